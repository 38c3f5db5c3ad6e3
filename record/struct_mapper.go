/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"fmt"
	"reflect"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	storeerrors "github.com/suparena/recordstore/errors"
)

// StructMapper maps a struct to and from a record using attributevalue
// struct tags (`dynamodbav:"name"`). The identity is kept outside the field
// bag and accessed through the getID/setID functions, so the identity field
// should be tagged `dynamodbav:"-"`.
type StructMapper[T any] struct {
	recordType string
	required   []string
	getID      func(T) string
	setID      func(*T, string)
}

// NewStructMapper builds a mapper for recordType. Fields listed in required
// must be present when reading a record; all other fields are optional and
// keep their zero value when absent.
func NewStructMapper[T any](recordType string, getID func(T) string, setID func(*T, string), required ...string) StructMapper[T] {
	return StructMapper[T]{
		recordType: recordType,
		required:   required,
		getID:      getID,
		setID:      setID,
	}
}

// FromRecord decodes rec into a T.
func (m StructMapper[T]) FromRecord(rec *Record) (T, error) {
	var out T
	if rec == nil {
		return out, storeerrors.NewParsingError(m.recordType, "", "nil record")
	}
	if rec.Type != m.recordType {
		return out, storeerrors.NewParsingError(m.recordType, "", fmt.Sprintf("record has type %q", rec.Type))
	}
	for _, name := range m.required {
		if !rec.Has(name) {
			return out, storeerrors.NewParsingError(m.recordType, name, "required field is missing")
		}
	}
	if name, why := structMismatch(rec.Fields, reflect.TypeOf(&out).Elem()); why != "" {
		return out, storeerrors.NewParsingError(m.recordType, name, why)
	}
	if err := attributevalue.UnmarshalMap(rec.Fields, &out); err != nil {
		return out, storeerrors.NewParsingError(m.recordType, "", err.Error())
	}
	if m.setID != nil {
		m.setID(&out, rec.ID)
	}
	return out, nil
}

// ToRecord encodes v into a new record, reusing v's identity when it has one.
func (m StructMapper[T]) ToRecord(v T) (*Record, error) {
	id := ""
	if m.getID != nil {
		id = m.getID(v)
	}
	av, err := attributevalue.MarshalMap(v)
	if err != nil {
		return nil, storeerrors.NewParsingError(m.recordType, "", err.Error())
	}

	rec := From(m.recordType, id)
	for name, value := range av {
		if err := rec.Set(name, value); err != nil {
			return nil, storeerrors.NewParsingError(m.recordType, name, err.Error())
		}
	}
	return rec, nil
}
