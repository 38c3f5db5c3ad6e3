/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package datastore

import (
	"context"
	"errors"

	"github.com/suparena/recordstore/record"
	"github.com/suparena/recordstore/storagemodels"
)

// Provider errors. Callers of the store never see them; the store maps
// every provider error into the storage error taxonomy.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	ErrNoAccount     = errors.New("no user account available")
	ErrNoContainer   = errors.New("container not found")
)

// Database is one logical record database (a public or private scope of a container).
type Database interface {
	// Fetch returns the record with the given identity, or nil if there is none.
	Fetch(ctx context.Context, id string) (*record.Record, error)

	// Save persists rec and returns the stored record, including the system
	// attributes assigned by the database.
	Save(ctx context.Context, rec *record.Record, policy storagemodels.SavePolicy) (*record.Record, error)

	// Delete removes one record and returns its identity.
	Delete(ctx context.Context, id string) (string, error)

	// DeleteMany removes several records and returns the deleted identities.
	DeleteMany(ctx context.Context, ids []string) ([]string, error)

	// Query returns one page of records. An empty cursor starts from the
	// beginning. The returned cursor is empty when no more records exist.
	Query(ctx context.Context, q storagemodels.Query, cursor string) (*storagemodels.QueryResult, error)
}

// Container groups a public and a private database with an account.
type Container interface {
	Identifier() string
	PublicDatabase() Database
	PrivateDatabase() Database

	// UserRecordID returns the identity of the current user.
	UserRecordID(ctx context.Context) (string, error)

	// AccountStatus reports whether the current user can use the container.
	AccountStatus(ctx context.Context) (storagemodels.AccountStatus, error)
}

// Provider resolves containers.
type Provider interface {
	DefaultContainer() (Container, error)
	Container(identifier string) (Container, error)
}
