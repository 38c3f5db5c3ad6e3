/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/suparena/recordstore/record"
)

// TruePredicateExpression matches every record.
const TruePredicateExpression = "TRUEPREDICATE"

// Predicate is an opaque filter expression handed to the database as is.
// Expressions use DynamoDB condition syntax with `:value` and `#name`
// placeholders.
type Predicate struct {
	Expression string
	Names      map[string]string
	Values     map[string]types.AttributeValue
}

// TruePredicate returns the always-true predicate.
func TruePredicate() Predicate {
	return Predicate{Expression: TruePredicateExpression}
}

// NewPredicate builds a predicate, marshaling values with attributevalue.
// Value keys must start with ':'.
func NewPredicate(expression string, values map[string]any) (Predicate, error) {
	p := Predicate{Expression: expression}
	if len(values) == 0 {
		return p, nil
	}
	p.Values = make(map[string]types.AttributeValue, len(values))
	for k, v := range values {
		if !strings.HasPrefix(k, ":") {
			return Predicate{}, fmt.Errorf("predicate value placeholder %q must start with ':'", k)
		}
		av, err := attributevalue.Marshal(v)
		if err != nil {
			return Predicate{}, fmt.Errorf("failed to marshal predicate value %q: %w", k, err)
		}
		p.Values[k] = av
	}
	return p, nil
}

// MustPredicate is like NewPredicate but panics on error.
func MustPredicate(expression string, values map[string]any) Predicate {
	p, err := NewPredicate(expression, values)
	if err != nil {
		panic(err)
	}
	return p
}

// WithNames returns a copy of p with the given #name placeholders.
func (p Predicate) WithNames(names map[string]string) Predicate {
	cp := p
	cp.Names = make(map[string]string, len(p.Names)+len(names))
	for k, v := range p.Names {
		cp.Names[k] = v
	}
	for k, v := range names {
		cp.Names[k] = v
	}
	return cp
}

// IsTrue reports whether p matches every record.
func (p Predicate) IsTrue() bool {
	e := strings.TrimSpace(p.Expression)
	return e == "" || strings.EqualFold(e, TruePredicateExpression)
}

func (p Predicate) String() string {
	if p.IsTrue() {
		return TruePredicateExpression
	}
	return p.Expression
}

// CreatorPredicate matches records created by the given user identity.
func CreatorPredicate(userRecordID string) Predicate {
	return Predicate{
		Expression: record.AttrCreator + " = :creator",
		Values: map[string]types.AttributeValue{
			":creator": &types.AttributeValueMemberS{Value: userRecordID},
		},
	}
}

// SortDescriptor orders query results by a system time attribute.
type SortDescriptor struct {
	Key       string
	Ascending bool
}

// SortByCreation orders by creation time, then modification time.
func SortByCreation(ascending bool) []SortDescriptor {
	return []SortDescriptor{
		{Key: record.AttrCreatedAt, Ascending: ascending},
		{Key: record.AttrModifiedAt, Ascending: ascending},
	}
}

// CreationOrder validates sort and reports its direction. Only creation
// ordering (optionally followed by modification time, same direction) is
// supported. An empty sort is ascending.
func CreationOrder(sort []SortDescriptor) (ascending bool, err error) {
	if len(sort) == 0 {
		return true, nil
	}
	if sort[0].Key != record.AttrCreatedAt {
		return false, fmt.Errorf("unsupported sort key %q", sort[0].Key)
	}
	if len(sort) > 2 || (len(sort) == 2 && (sort[1].Key != record.AttrModifiedAt || sort[1].Ascending != sort[0].Ascending)) {
		return false, fmt.Errorf("unsupported sort descriptors %v", sort)
	}
	return sort[0].Ascending, nil
}

// Query selects records of one type.
type Query struct {
	// RecordType is the type tag of the records to return.
	RecordType string
	// Predicate filters the records; the zero value matches everything.
	Predicate Predicate
	// Sort is a request hint; providers apply it on a best-effort basis.
	Sort []SortDescriptor
	// Limit bounds the page size. Zero returns every matching record.
	Limit int
}

// QueryResult is one page of records.
type QueryResult struct {
	Records []*record.Record
	// Cursor continues the query. Empty when no more records exist.
	Cursor string
}

// SavePolicy controls how Save treats an existing record with the same identity.
type SavePolicy int

const (
	// InsertOnly fails if a record with the same identity exists.
	InsertOnly SavePolicy = iota
	// OverwriteAllKeys replaces every field of an existing record and fails
	// if the record does not exist.
	OverwriteAllKeys
)

func (p SavePolicy) String() string {
	switch p {
	case InsertOnly:
		return "insert-only"
	case OverwriteAllKeys:
		return "overwrite-all-keys"
	}
	return fmt.Sprintf("SavePolicy(%d)", int(p))
}

// AccountStatus describes whether the current user can reach the database.
type AccountStatus int

const (
	CouldNotDetermine AccountStatus = iota
	Available
	Restricted
	NoAccount
	TemporarilyUnavailable
)

func (s AccountStatus) String() string {
	switch s {
	case Available:
		return "available"
	case Restricted:
		return "restricted"
	case NoAccount:
		return "no-account"
	case TemporarilyUnavailable:
		return "temporarily-unavailable"
	}
	return "could-not-determine"
}
