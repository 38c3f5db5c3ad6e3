/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-process implementation of the datastore
// interfaces, used by tests and by the example application in offline mode.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/suparena/recordstore/datastore"
)

// DefaultContainerID identifies the default container.
const DefaultContainerID = "default"

// Provider is a thread-safe in-memory datastore.Provider.
type Provider struct {
	mu         sync.RWMutex
	containers map[string]*Container
	user       string
	autoCreate bool
	now        func() time.Time
}

// Option configures a Provider.
type Option func(*Provider)

// WithUser sets the identity of the current user for containers created
// afterwards. Without a user, private databases are unavailable.
func WithUser(userRecordID string) Option {
	return func(p *Provider) {
		p.user = userRecordID
	}
}

// WithStrictContainers makes Container fail for identifiers that were not
// registered with RegisterContainer.
func WithStrictContainers() Option {
	return func(p *Provider) {
		p.autoCreate = false
	}
}

// WithClock replaces the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// New creates a Provider with a default container.
func New(opts ...Option) *Provider {
	p := &Provider{
		containers: make(map[string]*Container),
		autoCreate: true,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.containers[DefaultContainerID] = newContainer(DefaultContainerID, p.user, p.now)
	return p
}

// RegisterContainer creates a container under the given identifier.
func (p *Provider) RegisterContainer(identifier string) (*Container, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if identifier == "" {
		return nil, fmt.Errorf("container identifier is empty")
	}
	if _, exists := p.containers[identifier]; exists {
		return nil, fmt.Errorf("container %q already registered", identifier)
	}
	c := newContainer(identifier, p.user, p.now)
	p.containers[identifier] = c
	return c, nil
}

// DefaultContainer returns the default container.
func (p *Provider) DefaultContainer() (datastore.Container, error) {
	return p.Default(), nil
}

// Default returns the default container with its concrete type.
func (p *Provider) Default() *Container {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.containers[DefaultContainerID]
}

// Container returns the container with the given identifier, creating it
// unless the provider is strict.
func (p *Provider) Container(identifier string) (datastore.Container, error) {
	return p.Lookup(identifier)
}

// Lookup is like Container but returns the concrete type.
func (p *Provider) Lookup(identifier string) (*Container, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, exists := p.containers[identifier]; exists {
		return c, nil
	}
	if !p.autoCreate || identifier == "" {
		return nil, fmt.Errorf("%w: %q", datastore.ErrNoContainer, identifier)
	}
	c := newContainer(identifier, p.user, p.now)
	p.containers[identifier] = c
	return c, nil
}

// Containers lists the registered container identifiers.
func (p *Provider) Containers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]string, 0, len(p.containers))
	for id := range p.containers {
		ids = append(ids, id)
	}
	return ids
}
