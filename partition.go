/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"fmt"
)

// Scope selects the logical database inside a container.
type Scope int

const (
	// PrivateScope is the current user's database.
	PrivateScope Scope = iota
	// PublicScope is the database shared by every user of the container.
	PublicScope
)

func (s Scope) String() string {
	switch s {
	case PrivateScope:
		return "private"
	case PublicScope:
		return "public"
	}
	return fmt.Sprintf("Scope(%d)", int(s))
}

// Partition selects the database an operation targets: a scope, optionally
// in a custom container. The zero value is the private database of the
// default container.
type Partition struct {
	Scope     Scope
	Container string
	custom    bool
}

// Private selects the private database of the default container.
func Private() Partition {
	return Partition{Scope: PrivateScope}
}

// Public selects the public database of the default container.
func Public() Partition {
	return Partition{Scope: PublicScope}
}

// DefaultPartition is the private database of the default container.
func DefaultPartition() Partition {
	return Private()
}

// In returns a copy of p targeting the given container.
func (p Partition) In(container string) Partition {
	p.Container = container
	p.custom = true
	return p
}

// HasContainer reports whether p names a custom container.
func (p Partition) HasContainer() bool {
	return p.custom || p.Container != ""
}

// Validate rejects unknown scopes and empty container identifiers.
func (p Partition) Validate() error {
	if p.Scope != PrivateScope && p.Scope != PublicScope {
		return fmt.Errorf("unknown scope %v", p.Scope)
	}
	if p.custom && p.Container == "" {
		return fmt.Errorf("container identifier is empty")
	}
	return nil
}

func (p Partition) String() string {
	if !p.HasContainer() {
		return p.Scope.String()
	}
	return p.Scope.String() + "@" + p.Container
}
