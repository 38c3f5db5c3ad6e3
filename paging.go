/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"context"
	"fmt"
	"sync/atomic"

	storeerrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/storagemodels"
)

// MaxPageSize bounds the number of records requested per page.
const MaxPageSize = 1000

// ErrCursorConsumed is returned by FetchPage on a cursor that was already
// used. It is a DataRetrieval error.
var ErrCursorConsumed = storeerrors.New(storeerrors.KindDataRetrieval, "FetchPage", "", "", "page cursor already consumed")

// Page is one page of a paged query.
type Page[T Entity[T]] struct {
	Items []T
	// Next fetches the following page. Nil when the query is exhausted.
	Next *PageCursor[T]
}

// PageCursor continues a paged query. It is single-use: the first FetchPage
// call consumes it and returns a fresh cursor for the page after.
type PageCursor[T Entity[T]] struct {
	store     *Store
	partition Partition
	query     storagemodels.Query
	token     string
	consumed  atomic.Bool
}

// FetchPage fetches the next page. A second call fails with ErrCursorConsumed.
func (c *PageCursor[T]) FetchPage(ctx context.Context) (Page[T], error) {
	if !c.consumed.CompareAndSwap(false, true) {
		return Page[T]{}, ErrCursorConsumed
	}
	return paginate[T](ctx, c.store, c.partition, "FetchPage", c.query, c.token)
}

// Consumed reports whether FetchPage has been called.
func (c *PageCursor[T]) Consumed() bool {
	return c.consumed.Load()
}

// Token returns the provider's continuation token.
func (c *PageCursor[T]) Token() string {
	return c.token
}

// PageSize returns the number of records requested per page.
func (c *PageCursor[T]) PageSize() int {
	return c.query.Limit
}

// Partition returns the partition the query runs against.
func (c *PageCursor[T]) Partition() Partition {
	return c.partition
}

func paginate[T Entity[T]](ctx context.Context, s *Store, p Partition, op string, q storagemodels.Query, token string) (Page[T], error) {
	items, next, err := query[T](ctx, s, p, op, q, token)
	if err != nil {
		return Page[T]{}, err
	}
	page := Page[T]{Items: items}
	if next != "" {
		page.Next = &PageCursor[T]{
			store:     s,
			partition: p,
			query:     q,
			token:     next,
		}
	}
	return page, nil
}

func checkPageSize(op, recordType string, pageSize int) (int, error) {
	if pageSize < 1 {
		return 0, storeerrors.New(storeerrors.KindDataRetrieval, op, recordType, "",
			fmt.Sprintf("page size must be at least 1, got %d", pageSize))
	}
	if pageSize > MaxPageSize {
		return MaxPageSize, nil
	}
	return pageSize, nil
}
