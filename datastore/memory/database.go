/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/record"
	"github.com/suparena/recordstore/storagemodels"
)

// Database is one scope of a Container.
type Database struct {
	container *Container
	public    bool
}

// partitionKey must be called with the container lock held.
func (d *Database) partitionKey() (string, error) {
	if d.public {
		return publicPartition, nil
	}
	if d.container.user == "" {
		return "", datastore.ErrNoAccount
	}
	return "PRIVATE#" + d.container.user, nil
}

// Fetch retrieves a record by identity, or nil if it does not exist.
func (d *Database) Fetch(ctx context.Context, id string) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := d.container
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	key, err := d.partitionKey()
	if err != nil {
		return nil, err
	}
	rec, exists := c.partitions[key][id]
	if !exists {
		return nil, nil
	}
	return rec.Clone(), nil
}

// Save stores a record according to policy.
func (d *Database) Save(ctx context.Context, rec *record.Record, policy storagemodels.SavePolicy) (*record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rec == nil || rec.ID == "" || rec.Type == "" {
		return nil, fmt.Errorf("record needs a type and an identity")
	}
	c := d.container
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.saveErr != nil {
		return nil, c.saveErr
	}
	key, err := d.partitionKey()
	if err != nil {
		return nil, err
	}
	records := c.partition(key)
	existing, exists := records[rec.ID]
	stored := rec.Clone()
	now := c.tick()

	switch policy {
	case storagemodels.InsertOnly:
		if exists {
			return nil, fmt.Errorf("%w: %s", datastore.ErrAlreadyExists, rec.ID)
		}
		stored.CreatedAt = now
		stored.CreatorID = c.user
	case storagemodels.OverwriteAllKeys:
		if !exists {
			return nil, fmt.Errorf("%w: %s", datastore.ErrNotFound, rec.ID)
		}
		if existing.Type != rec.Type {
			return nil, fmt.Errorf("record %s has type %q, not %q", rec.ID, existing.Type, rec.Type)
		}
		stored.CreatedAt = existing.CreatedAt
		stored.CreatorID = existing.CreatorID
	default:
		return nil, fmt.Errorf("unsupported save policy %v", policy)
	}
	stored.ModifiedAt = now
	stored.ModifierID = c.user

	records[rec.ID] = stored
	return stored.Clone(), nil
}

// Delete removes a record by identity.
func (d *Database) Delete(ctx context.Context, id string) (string, error) {
	deleted, err := d.DeleteMany(ctx, []string{id})
	if err != nil {
		return "", err
	}
	return deleted[0], nil
}

// DeleteMany removes records by identity. It deletes nothing if any of the
// identities does not exist. Repeated identities are reported once.
func (d *Database) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := d.container
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deleteErr != nil {
		return nil, c.deleteErr
	}
	key, err := d.partitionKey()
	if err != nil {
		return nil, err
	}
	records := c.partitions[key]
	for _, id := range ids {
		if _, exists := records[id]; !exists {
			return nil, fmt.Errorf("%w: %s", datastore.ErrNotFound, id)
		}
	}

	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, exists := records[id]; !exists {
			continue
		}
		delete(records, id)
		deleted = append(deleted, id)
	}
	return deleted, nil
}

// Query returns the records of q.RecordType matching q.Predicate, ordered by
// creation time. Pages hold at most q.Limit records.
func (d *Database) Query(ctx context.Context, q storagemodels.Query, cursor string) (*storagemodels.QueryResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ascending, err := storagemodels.CreationOrder(q.Sort)
	if err != nil {
		return nil, err
	}
	match, err := Compile(q.Predicate)
	if err != nil {
		return nil, err
	}
	var after *position
	if cursor != "" {
		if after, err = decodeCursor(cursor); err != nil {
			return nil, err
		}
	}

	c := d.container
	c.mu.RLock()
	if c.queryErr != nil {
		c.mu.RUnlock()
		return nil, c.queryErr
	}
	key, err := d.partitionKey()
	if err != nil {
		c.mu.RUnlock()
		return nil, err
	}
	var matched []*record.Record
	for _, rec := range c.partitions[key] {
		if rec.Type != q.RecordType {
			continue
		}
		if match(rec.Attributes()) {
			matched = append(matched, rec.Clone())
		}
	}
	c.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		cmp := positionOf(matched[i]).compare(positionOf(matched[j]))
		if ascending {
			return cmp < 0
		}
		return cmp > 0
	})

	if after != nil {
		start := sort.Search(len(matched), func(i int) bool {
			cmp := positionOf(matched[i]).compare(*after)
			if ascending {
				return cmp > 0
			}
			return cmp < 0
		})
		matched = matched[start:]
	}

	result := &storagemodels.QueryResult{Records: matched}
	if q.Limit > 0 && len(matched) > q.Limit {
		result.Records = matched[:q.Limit]
		if result.Cursor, err = encodeCursor(positionOf(matched[q.Limit-1])); err != nil {
			return nil, err
		}
	}
	if result.Records == nil {
		result.Records = []*record.Record{}
	}
	return result, nil
}

// position is the sort key of a record.
type position struct {
	CreatedAt  string `json:"c"`
	ModifiedAt string `json:"m"`
	ID         string `json:"id"`
}

func positionOf(rec *record.Record) position {
	return position{
		CreatedAt:  record.FormatTime(rec.CreatedAt),
		ModifiedAt: record.FormatTime(rec.ModifiedAt),
		ID:         rec.ID,
	}
}

func (p position) compare(o position) int {
	if c := strings.Compare(p.CreatedAt, o.CreatedAt); c != 0 {
		return c
	}
	if c := strings.Compare(p.ModifiedAt, o.ModifiedAt); c != 0 {
		return c
	}
	return strings.Compare(p.ID, o.ID)
}

func encodeCursor(p position) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeCursor(s string) (*position, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	var p position
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("invalid cursor content: %w", err)
	}
	return &p, nil
}
