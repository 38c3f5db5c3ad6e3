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

// Required decodes a field that must be present. A missing or NULL field,
// or one whose attribute type does not match T, is a parsing failure.
func Required[T any](r *Record, name string) (T, error) {
	var out T
	av, ok := r.Fields[name]
	if !ok || isNull(av) {
		return out, storeerrors.NewParsingError(r.Type, name, "required field is missing")
	}
	if why := kindMismatch(av, reflect.TypeOf(&out).Elem()); why != "" {
		return out, storeerrors.NewParsingError(r.Type, name, why)
	}
	if err := attributevalue.Unmarshal(av, &out); err != nil {
		return out, storeerrors.NewParsingError(r.Type, name, fmt.Sprintf("cannot decode as %T: %v", out, err))
	}
	return out, nil
}

// Optional decodes a field that may be absent, returning def in that case.
// A present value of the wrong type is still a parsing failure.
func Optional[T any](r *Record, name string, def T) (T, error) {
	av, ok := r.Fields[name]
	if !ok || isNull(av) {
		return def, nil
	}
	var out T
	if why := kindMismatch(av, reflect.TypeOf(&out).Elem()); why != "" {
		return def, storeerrors.NewParsingError(r.Type, name, why)
	}
	if err := attributevalue.Unmarshal(av, &out); err != nil {
		return def, storeerrors.NewParsingError(r.Type, name, fmt.Sprintf("cannot decode as %T: %v", out, err))
	}
	return out, nil
}

// Reader reads several fields and keeps the first error.
//
//	rd := record.NewReader(rec)
//	name := record.Read[string](rd, "name")
//	desc := record.ReadOptional(rd, "simpleDescription", "")
//	if err := rd.Err(); err != nil {
//	    return Post{}, err
//	}
type Reader struct {
	rec *Record
	err error
}

// NewReader creates a Reader over rec.
func NewReader(rec *Record) *Reader {
	return &Reader{rec: rec}
}

// Read decodes a required field. It is a no-op once the reader has failed.
func Read[T any](rd *Reader, name string) T {
	var zero T
	if rd.err != nil {
		return zero
	}
	v, err := Required[T](rd.rec, name)
	if err != nil {
		rd.err = err
		return zero
	}
	return v
}

// ReadOptional decodes an optional field. It is a no-op once the reader has failed.
func ReadOptional[T any](rd *Reader, name string, def T) T {
	if rd.err != nil {
		return def
	}
	v, err := Optional(rd.rec, name, def)
	if err != nil {
		rd.err = err
		return def
	}
	return v
}

// ExpectType fails the reader unless the record has the given type tag.
func (rd *Reader) ExpectType(recordType string) *Reader {
	if rd.err == nil && rd.rec.Type != recordType {
		rd.err = storeerrors.NewParsingError(recordType, "",
			fmt.Sprintf("record has type %q", rd.rec.Type))
	}
	return rd
}

// Record returns the record being read.
func (rd *Reader) Record() *Record {
	return rd.rec
}

// Err returns the first error encountered.
func (rd *Reader) Err() error {
	return rd.err
}
