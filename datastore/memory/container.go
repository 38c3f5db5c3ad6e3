/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/record"
	"github.com/suparena/recordstore/storagemodels"
)

const publicPartition = "PUBLIC"

// Container holds the records of one container, keyed by partition
// (public, or private per user) and identity.
type Container struct {
	id string

	mu          sync.RWMutex
	user        string
	status      *storagemodels.AccountStatus
	identityErr error
	partitions  map[string]map[string]*record.Record
	now         func() time.Time
	last        time.Time

	fetchErr  error
	saveErr   error
	deleteErr error
	queryErr  error
}

func newContainer(id, user string, now func() time.Time) *Container {
	return &Container{
		id:         id,
		user:       user,
		partitions: make(map[string]map[string]*record.Record),
		now:        now,
	}
}

// Identifier returns the container identifier.
func (c *Container) Identifier() string {
	return c.id
}

// PublicDatabase returns the database shared by all users.
func (c *Container) PublicDatabase() datastore.Database {
	return &Database{container: c, public: true}
}

// PrivateDatabase returns the current user's database. The user is
// resolved on every call.
func (c *Container) PrivateDatabase() datastore.Database {
	return &Database{container: c}
}

// UserRecordID returns the current user identity.
func (c *Container) UserRecordID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.identityErr != nil {
		return "", c.identityErr
	}
	if c.user == "" {
		return "", datastore.ErrNoAccount
	}
	return c.user, nil
}

// AccountStatus reports Available when a user is set and NoAccount otherwise,
// unless overridden with SetAccountStatus.
func (c *Container) AccountStatus(ctx context.Context) (storagemodels.AccountStatus, error) {
	if err := ctx.Err(); err != nil {
		return storagemodels.CouldNotDetermine, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.status != nil {
		return *c.status, nil
	}
	if c.identityErr != nil {
		return storagemodels.CouldNotDetermine, nil
	}
	if c.user == "" {
		return storagemodels.NoAccount, nil
	}
	return storagemodels.Available, nil
}

// SetUser switches the current user.
func (c *Container) SetUser(userRecordID string) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = userRecordID
	return c
}

// SetAccountStatus overrides the reported account status.
func (c *Container) SetAccountStatus(status storagemodels.AccountStatus) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = &status
	return c
}

// WithIdentityError makes UserRecordID fail with err.
func (c *Container) WithIdentityError(err error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identityErr = err
	return c
}

// WithFetchError makes Fetch operations return an error
func (c *Container) WithFetchError(err error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchErr = err
	return c
}

// WithSaveError makes Save operations return an error
func (c *Container) WithSaveError(err error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveErr = err
	return c
}

// WithDeleteError makes Delete and DeleteMany operations return an error
func (c *Container) WithDeleteError(err error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteErr = err
	return c
}

// WithQueryError makes Query operations return an error
func (c *Container) WithQueryError(err error) *Container {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryErr = err
	return c
}

// Put stores rec directly in the public database, bypassing Save. Tests use
// it to plant malformed or pre-dated records.
func (c *Container) Put(rec *record.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partition(publicPartition)[rec.ID] = rec.Clone()
}

// Count returns the number of records across all partitions.
func (c *Container) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, p := range c.partitions {
		n += len(p)
	}
	return n
}

// Clear removes all records.
func (c *Container) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.partitions = make(map[string]map[string]*record.Record)
}

// partition must be called with c.mu held for writing.
func (c *Container) partition(key string) map[string]*record.Record {
	p, ok := c.partitions[key]
	if !ok {
		p = make(map[string]*record.Record)
		c.partitions[key] = p
	}
	return p
}

// tick returns a strictly increasing timestamp. Must be called with c.mu held.
func (c *Container) tick() time.Time {
	now := c.now().UTC()
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}
