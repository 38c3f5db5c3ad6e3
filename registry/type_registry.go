/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/suparena/recordstore/record"
)

// DecodeFunc decodes a record into its registered entity type.
type DecodeFunc func(rec *record.Record) (any, error)

// Entry describes one registered record type.
type Entry struct {
	RecordType string
	GoType     reflect.Type
	Decode     DecodeFunc
}

var (
	mu           sync.RWMutex
	typeRegistry = make(map[string]Entry)
)

// RegisterType registers the Go type and decoder for a record type tag.
// If a type is already registered for the tag, it panics to prevent accidental overrides.
func RegisterType(recordType string, goType reflect.Type, fn DecodeFunc) {
	if recordType == "" {
		panic("type registry: empty record type")
	}
	mu.Lock()
	defer mu.Unlock()

	if existing, exists := typeRegistry[recordType]; exists {
		panic(fmt.Sprintf("type registry: record type %q already registered to %v", recordType, existing.GoType))
	}
	typeRegistry[recordType] = Entry{RecordType: recordType, GoType: goType, Decode: fn}
}

// Lookup returns the entry registered for recordType.
func Lookup(recordType string) (Entry, bool) {
	mu.RLock()
	defer mu.RUnlock()
	e, ok := typeRegistry[recordType]
	return e, ok
}

// GetDecodeFunc returns the registered decode function for the given record type.
// If no function is registered, it returns an error.
func GetDecodeFunc(recordType string) (DecodeFunc, error) {
	e, ok := Lookup(recordType)
	if !ok {
		return nil, fmt.Errorf("type registry: no type registered for record type %q", recordType)
	}
	return e.Decode, nil
}

// Decode decodes rec with the decoder registered for its type tag.
func Decode(rec *record.Record) (any, error) {
	fn, err := GetDecodeFunc(rec.Type)
	if err != nil {
		return nil, err
	}
	return fn(rec)
}

// RecordTypes lists the registered record types in sorted order.
func RecordTypes() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(typeRegistry))
	for name := range typeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
