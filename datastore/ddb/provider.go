/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/record"
)

// DefaultContainerID identifies the container backed by Config.DefaultTable.
const DefaultContainerID = "default"

// Config describes the tables behind the provider's containers.
type Config struct {
	// DefaultTable backs the default container.
	DefaultTable string
	// Tables maps custom container identifiers to table names.
	Tables map[string]string
	// Index is the type index present on every table.
	Index IndexConfig
	// UserRecordID, when set, is used as the current user identity instead
	// of the STS caller identity.
	UserRecordID string
}

// Provider implements datastore.Provider on DynamoDB, one table per
// container.
type Provider struct {
	api      API
	identity IdentityAPI
	cfg      Config
	keys     map[string]string
	logger   *logrus.Logger
	now      func() time.Time

	mu         sync.Mutex
	callerID   string
	containers map[string]*Container
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Provider) {
		p.logger = logger
	}
}

// WithClock replaces the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// NewProvider creates a Provider. identity may be nil when cfg.UserRecordID
// is set or only public databases are used.
func NewProvider(api API, identity IdentityAPI, cfg Config, opts ...Option) (*Provider, error) {
	if api == nil {
		return nil, fmt.Errorf("ddb: client is required")
	}
	if cfg.DefaultTable == "" {
		return nil, fmt.Errorf("ddb: default table is required")
	}
	if cfg.Index.IndexName == "" {
		cfg.Index = DefaultIndexConfig
	}
	if cfg.Index.PartitionKeyName == "" || cfg.Index.SortKeyName == "" {
		return nil, fmt.Errorf("ddb: index %q needs partition and sort key names", cfg.Index.IndexName)
	}
	for _, name := range []string{cfg.Index.PartitionKeyName, cfg.Index.SortKeyName} {
		if isSystemAttribute(name) {
			return nil, fmt.Errorf("ddb: index key %q clashes with a record attribute", name)
		}
	}
	for id, table := range cfg.Tables {
		if id == "" || table == "" {
			return nil, fmt.Errorf("ddb: container %q has no table", id)
		}
	}

	p := &Provider{
		api:        api,
		identity:   identity,
		cfg:        cfg,
		keys:       indexMap(cfg.Index),
		logger:     logrus.StandardLogger(),
		now:        time.Now,
		containers: make(map[string]*Container),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// DefaultContainer returns the container backed by the default table.
func (p *Provider) DefaultContainer() (datastore.Container, error) {
	return p.container(DefaultContainerID, p.cfg.DefaultTable), nil
}

// Container returns the container with the given identifier.
func (p *Provider) Container(identifier string) (datastore.Container, error) {
	if identifier == DefaultContainerID {
		return p.DefaultContainer()
	}
	table, ok := p.cfg.Tables[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %q", datastore.ErrNoContainer, identifier)
	}
	return p.container(identifier, table), nil
}

// Containers lists the configured container identifiers.
func (p *Provider) Containers() []string {
	ids := []string{DefaultContainerID}
	for id := range p.cfg.Tables {
		if id != DefaultContainerID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids[1:])
	return ids
}

func (p *Provider) container(id, table string) *Container {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.containers[id]; ok {
		return c
	}
	c := &Container{provider: p, id: id, table: table}
	p.containers[id] = c
	return c
}

func (p *Provider) cachedCallerID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.callerID
}

func (p *Provider) setCallerID(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callerID = id
}

// isSystemAttribute reports whether name is a table key or an attribute the
// store writes on every record.
func isSystemAttribute(name string) bool {
	switch name {
	case PartitionKeyName, SortKeyName,
		record.AttrType, record.AttrID, record.AttrCreatedAt,
		record.AttrModifiedAt, record.AttrCreator, record.AttrModifier:
		return true
	}
	return false
}
