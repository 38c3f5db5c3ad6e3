/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
)

// Kind names one variant of the storage error taxonomy.
type Kind int

const (
	KindDataRetrieval Kind = iota + 1
	KindDataInsertion
	KindDataRemoval
	KindDataUpdate
	KindNullReference
	KindNullRecord
	KindNullReturn
	KindParsingFailure
)

// Sentinel errors, one per Kind.
var (
	// ErrDataRetrieval is returned when a fetch or query fails
	ErrDataRetrieval = errors.New("data retrieval failed")

	// ErrDataInsertion is returned when a record cannot be saved
	ErrDataInsertion = errors.New("data insertion failed")

	// ErrDataRemoval is returned when a delete fails
	ErrDataRemoval = errors.New("data removal failed")

	// ErrDataUpdate is returned when an overwrite of an existing record fails
	ErrDataUpdate = errors.New("data update failed")

	// ErrNullReference is returned when an operation needs an identity that is missing
	ErrNullReference = errors.New("null reference")

	// ErrNullRecord is returned when an entity read from storage has no identity
	ErrNullRecord = errors.New("null record")

	// ErrNullReturn is returned when the database succeeded but returned nothing
	ErrNullReturn = errors.New("null return")

	// ErrParsingFailure is returned when a record cannot be mapped to or from an entity
	ErrParsingFailure = errors.New("parsing failure")
)

var sentinels = map[Kind]error{
	KindDataRetrieval:  ErrDataRetrieval,
	KindDataInsertion:  ErrDataInsertion,
	KindDataRemoval:    ErrDataRemoval,
	KindDataUpdate:     ErrDataUpdate,
	KindNullReference:  ErrNullReference,
	KindNullRecord:     ErrNullRecord,
	KindNullReturn:     ErrNullReturn,
	KindParsingFailure: ErrParsingFailure,
}

var descriptions = map[Kind]string{
	KindDataRetrieval:  "Could not retrieve data from storage.",
	KindDataInsertion:  "Could not insert data into storage.",
	KindDataRemoval:    "Could not remove data from storage.",
	KindDataUpdate:     "Could not update data from storage.",
	KindNullReference:  "Could not work with a null resource ID.",
	KindNullRecord:     "Could not work with a null record.",
	KindNullReturn:     "Storage returned null for the operation.",
	KindParsingFailure: "Could not parse record to object.",
}

var names = map[Kind]string{
	KindDataRetrieval:  "DataRetrieval",
	KindDataInsertion:  "DataInsertion",
	KindDataRemoval:    "DataRemoval",
	KindDataUpdate:     "DataUpdate",
	KindNullReference:  "NullReference",
	KindNullRecord:     "NullRecord",
	KindNullReturn:     "NullReturn",
	KindParsingFailure: "ParsingFailure",
}

func (k Kind) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Description returns the user-facing description of the kind.
func (k Kind) Description() string {
	return descriptions[k]
}

// StorageError is the only error type returned by storage operations.
// It does not unwrap to the database's native error.
type StorageError struct {
	Kind       Kind
	Op         string
	RecordType string
	Key        string
	Detail     string
}

func (e *StorageError) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.RecordType != "" {
		msg += fmt.Sprintf(" (%s", e.RecordType)
		if e.Key != "" {
			msg += fmt.Sprintf(" %q", e.Key)
		}
		msg += ")"
	} else if e.Key != "" {
		msg += fmt.Sprintf(" (%q)", e.Key)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Description returns the human-readable description for the error's kind.
func (e *StorageError) Description() string {
	return e.Kind.Description()
}

func (e *StorageError) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// New creates a StorageError of the given kind.
func New(kind Kind, op, recordType, key, detail string) error {
	return &StorageError{Kind: kind, Op: op, RecordType: recordType, Key: key, Detail: detail}
}

// NewRetrievalError creates a DataRetrieval error
func NewRetrievalError(op, recordType, key string) error {
	return New(KindDataRetrieval, op, recordType, key, "")
}

// NewInsertionError creates a DataInsertion error
func NewInsertionError(op, recordType string) error {
	return New(KindDataInsertion, op, recordType, "", "")
}

// NewRemovalError creates a DataRemoval error
func NewRemovalError(op, key string) error {
	return New(KindDataRemoval, op, "", key, "")
}

// NewUpdateError creates a DataUpdate error
func NewUpdateError(op, recordType, key string) error {
	return New(KindDataUpdate, op, recordType, key, "")
}

// NewNullReferenceError creates a NullReference error
func NewNullReferenceError(op, recordType string) error {
	return New(KindNullReference, op, recordType, "", "entity has no record identity")
}

// NewNullRecordError creates a NullRecord error
func NewNullRecordError(op, recordType string) error {
	return New(KindNullRecord, op, recordType, "", "fetched entity has no record identity")
}

// NewNullReturnError creates a NullReturn error
func NewNullReturnError(op, recordType, key string) error {
	return New(KindNullReturn, op, recordType, key, "")
}

// NewParsingError creates a ParsingFailure error for a record field.
func NewParsingError(recordType, field, detail string) error {
	if field != "" {
		detail = fmt.Sprintf("field %q: %s", field, detail)
	}
	return New(KindParsingFailure, "", recordType, "", detail)
}

// KindOf returns the Kind of err, or 0 if err is not a StorageError.
func KindOf(err error) Kind {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// WithOp returns err with its Op set, if it is a StorageError without one.
func WithOp(err error, op string) error {
	var se *StorageError
	if errors.As(err, &se) && se.Op == "" {
		cp := *se
		cp.Op = op
		return &cp
	}
	return err
}

// IsDataRetrieval checks if an error is a DataRetrieval error
func IsDataRetrieval(err error) bool { return errors.Is(err, ErrDataRetrieval) }

// IsDataInsertion checks if an error is a DataInsertion error
func IsDataInsertion(err error) bool { return errors.Is(err, ErrDataInsertion) }

// IsDataRemoval checks if an error is a DataRemoval error
func IsDataRemoval(err error) bool { return errors.Is(err, ErrDataRemoval) }

// IsDataUpdate checks if an error is a DataUpdate error
func IsDataUpdate(err error) bool { return errors.Is(err, ErrDataUpdate) }

// IsNullReference checks if an error is a NullReference error
func IsNullReference(err error) bool { return errors.Is(err, ErrNullReference) }

// IsNullRecord checks if an error is a NullRecord error
func IsNullRecord(err error) bool { return errors.Is(err, ErrNullRecord) }

// IsNullReturn checks if an error is a NullReturn error
func IsNullReturn(err error) bool { return errors.Is(err, ErrNullReturn) }

// IsParsingFailure checks if an error is a ParsingFailure error
func IsParsingFailure(err error) bool { return errors.Is(err, ErrParsingFailure) }
