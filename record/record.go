/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// System attribute names. They are written by the database and cannot be
// used as field names.
const (
	AttrType       = "EntityType"
	AttrID         = "RecordID"
	AttrCreatedAt  = "CreatedAt"
	AttrModifiedAt = "ModifiedAt"
	AttrCreator    = "CreatorUserRecordID"
	AttrModifier   = "LastModifiedUserRecordID"
)

// TimeLayout is a fixed-width UTC layout, so that formatted timestamps sort
// lexically in time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// ErrMalformed is returned when a stored item cannot be read back as a record.
var ErrMalformed = errors.New("malformed record")

var reserved = map[string]bool{
	AttrType:       true,
	AttrID:         true,
	AttrCreatedAt:  true,
	AttrModifiedAt: true,
	AttrCreator:    true,
	AttrModifier:   true,
	"PK":           true,
	"SK":           true,
	"GSI1PK":       true,
	"GSI1SK":       true,
}

// IsReserved reports whether name is a system or key attribute name.
func IsReserved(name string) bool {
	return reserved[name]
}

// Reference points at another record by identity.
type Reference struct {
	RecordID string `dynamodbav:"RecordID"`
}

// Record is the untyped representation exchanged with the database.
type Record struct {
	Type   string
	ID     string
	Fields map[string]types.AttributeValue

	// Set by the database on save.
	CreatedAt  time.Time
	ModifiedAt time.Time
	CreatorID  string
	ModifierID string
}

// New allocates a record with a fresh identity.
func New(recordType string) *Record {
	return WithID(recordType, uuid.NewString())
}

// WithID allocates a record for an existing identity.
func WithID(recordType, id string) *Record {
	return &Record{
		Type:   recordType,
		ID:     id,
		Fields: make(map[string]types.AttributeValue),
	}
}

// From allocates a record using id when it is set, or a fresh identity otherwise.
func From(recordType, id string) *Record {
	if id == "" {
		return New(recordType)
	}
	return WithID(recordType, id)
}

// ID validates a record name and returns it.
func ID(from string) (string, error) {
	if from == "" {
		return "", fmt.Errorf("%w: empty record name", ErrMalformed)
	}
	return from, nil
}

// Set stores value under name. Values are marshaled with attributevalue;
// a types.AttributeValue is stored as is and nil is stored as NULL.
func (r *Record) Set(name string, value any) error {
	if name == "" {
		return errors.New("record: empty field name")
	}
	if IsReserved(name) {
		return fmt.Errorf("record: field name %q is reserved", name)
	}
	if r.Fields == nil {
		r.Fields = make(map[string]types.AttributeValue)
	}

	switch v := value.(type) {
	case nil:
		r.Fields[name] = &types.AttributeValueMemberNULL{Value: true}
		return nil
	case types.AttributeValue:
		r.Fields[name] = v
		return nil
	}

	av, err := attributevalue.Marshal(value)
	if err != nil {
		return fmt.Errorf("record: failed to marshal field %q: %w", name, err)
	}
	r.Fields[name] = av
	return nil
}

// Get returns the raw value of a field.
func (r *Record) Get(name string) (types.AttributeValue, bool) {
	av, ok := r.Fields[name]
	return av, ok
}

// Has reports whether the field is present and not NULL.
func (r *Record) Has(name string) bool {
	av, ok := r.Fields[name]
	return ok && !isNull(av)
}

// Delete removes a field.
func (r *Record) Delete(name string) {
	delete(r.Fields, name)
}

// Names returns the field names in sorted order.
func (r *Record) Names() []string {
	names := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Clone returns a copy of the record with its own field map.
func (r *Record) Clone() *Record {
	cp := *r
	cp.Fields = make(map[string]types.AttributeValue, len(r.Fields))
	for k, v := range r.Fields {
		cp.Fields[k] = v
	}
	return &cp
}

// Attributes returns the fields merged with the system attributes.
func (r *Record) Attributes() map[string]types.AttributeValue {
	attrs := make(map[string]types.AttributeValue, len(r.Fields)+6)
	for k, v := range r.Fields {
		attrs[k] = v
	}
	attrs[AttrType] = &types.AttributeValueMemberS{Value: r.Type}
	attrs[AttrID] = &types.AttributeValueMemberS{Value: r.ID}
	if !r.CreatedAt.IsZero() {
		attrs[AttrCreatedAt] = &types.AttributeValueMemberS{Value: FormatTime(r.CreatedAt)}
	}
	if !r.ModifiedAt.IsZero() {
		attrs[AttrModifiedAt] = &types.AttributeValueMemberS{Value: FormatTime(r.ModifiedAt)}
	}
	if r.CreatorID != "" {
		attrs[AttrCreator] = &types.AttributeValueMemberS{Value: r.CreatorID}
	}
	if r.ModifierID != "" {
		attrs[AttrModifier] = &types.AttributeValueMemberS{Value: r.ModifierID}
	}
	return attrs
}

// FromAttributes rebuilds a record from a stored attribute map. Key
// attributes are dropped.
func FromAttributes(attrs map[string]types.AttributeValue) (*Record, error) {
	recordType, err := systemString(attrs, AttrType, true)
	if err != nil {
		return nil, err
	}
	id, err := systemString(attrs, AttrID, true)
	if err != nil {
		return nil, err
	}

	rec := WithID(recordType, id)
	if rec.CreatedAt, err = systemTime(attrs, AttrCreatedAt); err != nil {
		return nil, err
	}
	if rec.ModifiedAt, err = systemTime(attrs, AttrModifiedAt); err != nil {
		return nil, err
	}
	if rec.CreatorID, err = systemString(attrs, AttrCreator, false); err != nil {
		return nil, err
	}
	if rec.ModifierID, err = systemString(attrs, AttrModifier, false); err != nil {
		return nil, err
	}

	for k, v := range attrs {
		if IsReserved(k) {
			continue
		}
		rec.Fields[k] = v
	}
	return rec, nil
}

// FormatTime formats t with TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a timestamp written by FormatTime or any RFC 3339 time.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func systemString(attrs map[string]types.AttributeValue, name string, required bool) (string, error) {
	av, ok := attrs[name]
	if !ok {
		if required {
			return "", fmt.Errorf("%w: missing %s attribute", ErrMalformed, name)
		}
		return "", nil
	}
	s, ok := av.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("%w: %s attribute is not a string", ErrMalformed, name)
	}
	if required && s.Value == "" {
		return "", fmt.Errorf("%w: empty %s attribute", ErrMalformed, name)
	}
	return s.Value, nil
}

func systemTime(attrs map[string]types.AttributeValue, name string) (time.Time, error) {
	s, err := systemString(attrs, name, false)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s attribute: %v", ErrMalformed, name, err)
	}
	return t, nil
}

func isNull(av types.AttributeValue) bool {
	n, ok := av.(*types.AttributeValueMemberNULL)
	return ok && n.Value
}
