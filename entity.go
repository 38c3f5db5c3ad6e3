/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"fmt"
	"reflect"

	storeerrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/record"
	"github.com/suparena/recordstore/registry"
)

// Entity is implemented by application types persisted through the store.
// Methods are called on the zero value to obtain the type tag and mapper, so
// they must not depend on field values, except RecordID.
type Entity[T any] interface {
	// RecordType is the stable remote record type tag.
	RecordType() string
	// RecordID is the identity assigned by the database, or "" when the
	// entity has not been persisted.
	RecordID() string
	// Mapper returns the converter between T and its remote record.
	Mapper() Mapper[T]
}

// Mapper converts an entity to and from its remote record. Implementations
// must be stateless.
type Mapper[T any] interface {
	// FromRecord builds an entity from rec, taking the identity from rec.ID.
	// Missing or mistyped required fields are parsing failures.
	FromRecord(rec *record.Record) (T, error)
	// ToRecord builds a record from v, reusing v's identity if it has one.
	ToRecord(v T) (*record.Record, error)
}

// Register adds T to the type registry under its record type tag. It panics
// if the tag is already registered.
func Register[T Entity[T]]() {
	var zero T
	registry.RegisterType(zero.RecordType(), reflect.TypeOf(zero), func(rec *record.Record) (any, error) {
		return decode[T](rec)
	})
}

func recordType[T Entity[T]]() string {
	var zero T
	return zero.RecordType()
}

func mapperOf[T Entity[T]]() Mapper[T] {
	var zero T
	return zero.Mapper()
}

// checkRegistered fails when the type tag of T is registered to another Go type.
func checkRegistered[T Entity[T]](tag string) error {
	e, ok := registry.Lookup(tag)
	if !ok {
		return nil
	}
	var zero T
	if e.GoType != reflect.TypeOf(zero) {
		return storeerrors.NewParsingError(tag, "", fmt.Sprintf("record type is registered to %v, not %T", e.GoType, zero))
	}
	return nil
}

func decode[T Entity[T]](rec *record.Record) (T, error) {
	var zero T
	tag := recordType[T]()
	if rec == nil {
		return zero, storeerrors.NewParsingError(tag, "", "nil record")
	}
	if rec.Type != tag {
		return zero, storeerrors.NewParsingError(tag, "", fmt.Sprintf("record has type %q", rec.Type))
	}
	if err := checkRegistered[T](tag); err != nil {
		return zero, err
	}
	v, err := mapperOf[T]().FromRecord(rec)
	if err != nil {
		return zero, asParsingError(tag, err)
	}
	return v, nil
}

func decodeAll[T Entity[T]](recs []*record.Record) ([]T, error) {
	items := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := decode[T](rec)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

func encode[T Entity[T]](v T) (*record.Record, error) {
	tag := recordType[T]()
	if err := checkRegistered[T](tag); err != nil {
		return nil, err
	}
	rec, err := mapperOf[T]().ToRecord(v)
	if err != nil {
		return nil, asParsingError(tag, err)
	}
	if rec == nil {
		return nil, storeerrors.NewParsingError(tag, "", "mapper returned no record")
	}
	if rec.Type != tag {
		return nil, storeerrors.NewParsingError(tag, "", fmt.Sprintf("mapper produced a %q record", rec.Type))
	}
	if id := v.RecordID(); id != "" && rec.ID != id {
		return nil, storeerrors.NewParsingError(tag, "", fmt.Sprintf("mapper changed the record identity from %q to %q", id, rec.ID))
	}
	if rec.ID == "" {
		return nil, storeerrors.NewParsingError(tag, "", "mapper produced a record without identity")
	}
	return rec, nil
}

func asParsingError(tag string, err error) error {
	if storeerrors.IsParsingFailure(err) {
		return err
	}
	return storeerrors.NewParsingError(tag, "", err.Error())
}
