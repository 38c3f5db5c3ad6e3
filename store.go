/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/suparena/recordstore/datastore"
	storeerrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/record"
)

// Store dispatches typed operations to a datastore.Provider. It holds no
// per-call state and is safe for concurrent use.
type Store struct {
	provider datastore.Provider
	logger   *logrus.Logger
	executor Executor
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Operations log at debug level.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithExecutor sets the executor that delivers Future callbacks.
func WithExecutor(executor Executor) Option {
	return func(s *Store) {
		s.executor = executor
	}
}

// New creates a Store over provider. Without WithLogger, logging is
// discarded; without WithExecutor, callbacks run inline.
func New(provider datastore.Provider, opts ...Option) (*Store, error) {
	if provider == nil {
		return nil, fmt.Errorf("recordstore: provider is required")
	}
	s := &Store{
		provider: provider,
		executor: Inline,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.New()
		s.logger.SetOutput(io.Discard)
	}
	if s.executor == nil {
		s.executor = Inline
	}
	return s, nil
}

// Logger returns the store's logger.
func (s *Store) Logger() *logrus.Logger {
	return s.logger
}

func (s *Store) entry(op, recordType string, p Partition) *logrus.Entry {
	fields := logrus.Fields{
		"op":    op,
		"scope": p.Scope.String(),
	}
	if recordType != "" {
		fields["record_type"] = recordType
	}
	if p.HasContainer() {
		fields["container"] = p.Container
	}
	return s.logger.WithFields(fields)
}

// container resolves the partition's container. Nothing is cached.
func (s *Store) container(p Partition) (datastore.Container, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var (
		c   datastore.Container
		err error
	)
	if p.HasContainer() {
		c, err = s.provider.Container(p.Container)
	} else {
		c, err = s.provider.DefaultContainer()
	}
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, datastore.ErrNoContainer
	}
	return c, nil
}

func (s *Store) database(p Partition) (datastore.Database, error) {
	c, err := s.container(p)
	if err != nil {
		return nil, err
	}
	var db datastore.Database
	if p.Scope == PublicScope {
		db = c.PublicDatabase()
	} else {
		db = c.PrivateDatabase()
	}
	if db == nil {
		return nil, fmt.Errorf("container %q has no %s database", c.Identifier(), p.Scope)
	}
	return db, nil
}

// fail logs a provider error and maps it into the storage error taxonomy.
// Storage errors pass through; malformed stored items become parsing
// failures. The provider error itself is never returned.
func (s *Store) fail(log *logrus.Entry, kind storeerrors.Kind, op, recordType, key string, cause error) error {
	if storeerrors.KindOf(cause) != 0 {
		return storeerrors.WithOp(cause, op)
	}
	log.WithError(cause).Debug("provider call failed")
	if errors.Is(cause, record.ErrMalformed) {
		kind = storeerrors.KindParsingFailure
	}
	return storeerrors.New(kind, op, recordType, key, cause.Error())
}
