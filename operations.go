/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"context"

	storeerrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/storagemodels"
)

// GetAll returns every entity of type T in the partition. A single record
// that cannot be mapped fails the whole call.
func GetAll[T Entity[T]](ctx context.Context, s *Store, p Partition) ([]T, error) {
	return get[T](ctx, s, p, "GetAll", storagemodels.TruePredicate())
}

// Get returns the entities of type T matching predicate. The predicate is
// passed to the database unmodified.
func Get[T Entity[T]](ctx context.Context, s *Store, p Partition, predicate storagemodels.Predicate) ([]T, error) {
	return get[T](ctx, s, p, "Get", predicate)
}

func get[T Entity[T]](ctx context.Context, s *Store, p Partition, op string, predicate storagemodels.Predicate) ([]T, error) {
	q := storagemodels.Query{
		RecordType: recordType[T](),
		Predicate:  predicate,
	}
	items, _, err := query[T](ctx, s, p, op, q, "")
	return items, err
}

// GetByID fetches exactly one entity by identity.
func GetByID[T Entity[T]](ctx context.Context, s *Store, p Partition, id string) (T, error) {
	const op = "GetByID"
	var zero T
	tag := recordType[T]()
	if id == "" {
		return zero, storeerrors.NewNullReferenceError(op, tag)
	}

	log := s.entry(op, tag, p).WithField("id", id)
	db, err := s.database(p)
	if err != nil {
		return zero, s.fail(log, storeerrors.KindDataRetrieval, op, tag, id, err)
	}

	log.Debug("fetching record")
	rec, err := db.Fetch(ctx, id)
	if err != nil {
		return zero, s.fail(log, storeerrors.KindDataRetrieval, op, tag, id, err)
	}
	if rec == nil {
		return zero, storeerrors.NewNullReturnError(op, tag, id)
	}

	v, err := decode[T](rec)
	if err != nil {
		return zero, storeerrors.WithOp(err, op)
	}
	return v, nil
}

// GetAllWithoutLimit returns every entity of type T, walking the database's
// pages of MaxPageSize records in creation order.
func GetAllWithoutLimit[T Entity[T]](ctx context.Context, s *Store, p Partition) ([]T, error) {
	const op = "GetAllWithoutLimit"
	q := storagemodels.Query{
		RecordType: recordType[T](),
		Predicate:  storagemodels.TruePredicate(),
		Sort:       storagemodels.SortByCreation(true),
		Limit:      MaxPageSize,
	}
	page, err := paginate[T](ctx, s, p, op, q, "")
	if err != nil {
		return nil, err
	}

	items := page.Items
	for next := page.Next; next != nil; next = page.Next {
		if page, err = next.FetchPage(ctx); err != nil {
			return nil, storeerrors.WithOp(err, op)
		}
		items = append(items, page.Items...)
	}
	return items, nil
}

// GetAllPaginated returns the first page of entities of type T, newest first
// by creation time then modification time. Page.Next continues the query and
// is nil when no more records exist.
func GetAllPaginated[T Entity[T]](ctx context.Context, s *Store, p Partition, pageSize int) (Page[T], error) {
	return getPaginated[T](ctx, s, p, "GetAllPaginated", storagemodels.TruePredicate(), pageSize)
}

// GetPaginated is GetAllPaginated with a filter predicate.
func GetPaginated[T Entity[T]](ctx context.Context, s *Store, p Partition, predicate storagemodels.Predicate, pageSize int) (Page[T], error) {
	return getPaginated[T](ctx, s, p, "GetPaginated", predicate, pageSize)
}

func getPaginated[T Entity[T]](ctx context.Context, s *Store, p Partition, op string, predicate storagemodels.Predicate, pageSize int) (Page[T], error) {
	tag := recordType[T]()
	limit, err := checkPageSize(op, tag, pageSize)
	if err != nil {
		return Page[T]{}, err
	}
	q := storagemodels.Query{
		RecordType: tag,
		Predicate:  predicate,
		Sort:       storagemodels.SortByCreation(false),
		Limit:      limit,
	}
	return paginate[T](ctx, s, p, op, q, "")
}

// FetchRecordsByUser returns the entities of type T created by the current
// user. If the user identity cannot be resolved, no query is issued.
func FetchRecordsByUser[T Entity[T]](ctx context.Context, s *Store, p Partition) ([]T, error) {
	const op = "FetchRecordsByUser"
	uid, err := UserRecordID(ctx, s, p)
	if err != nil {
		return nil, err
	}
	return get[T](ctx, s, p, op, storagemodels.CreatorPredicate(uid))
}

// UserRecordID returns the identity of the current user in the partition's
// container.
func UserRecordID(ctx context.Context, s *Store, p Partition) (string, error) {
	const op = "UserRecordID"
	log := s.entry(op, "", p)
	c, err := s.container(p)
	if err != nil {
		return "", s.fail(log, storeerrors.KindDataRetrieval, op, "", "", err)
	}

	log.Debug("resolving user identity")
	uid, err := c.UserRecordID(ctx)
	if err != nil {
		return "", s.fail(log, storeerrors.KindDataRetrieval, op, "", "", err)
	}
	if uid == "" {
		return "", storeerrors.NewNullReturnError(op, "", "")
	}
	return uid, nil
}

// AccountStatus reports whether the current user can use the partition's
// container.
func AccountStatus(ctx context.Context, s *Store, p Partition) (storagemodels.AccountStatus, error) {
	const op = "AccountStatus"
	log := s.entry(op, "", p)
	c, err := s.container(p)
	if err != nil {
		return storagemodels.CouldNotDetermine, s.fail(log, storeerrors.KindDataRetrieval, op, "", "", err)
	}

	status, err := c.AccountStatus(ctx)
	if err != nil {
		return storagemodels.CouldNotDetermine, s.fail(log, storeerrors.KindDataRetrieval, op, "", "", err)
	}
	log.WithField("status", status.String()).Debug("account status")
	return status, nil
}

// query runs one provider query and maps its records.
func query[T Entity[T]](ctx context.Context, s *Store, p Partition, op string, q storagemodels.Query, cursor string) ([]T, string, error) {
	log := s.entry(op, q.RecordType, p).WithField("predicate", q.Predicate.String())
	db, err := s.database(p)
	if err != nil {
		return nil, "", s.fail(log, storeerrors.KindDataRetrieval, op, q.RecordType, "", err)
	}

	log.WithField("limit", q.Limit).Debug("querying records")
	res, err := db.Query(ctx, q, cursor)
	if err != nil {
		return nil, "", s.fail(log, storeerrors.KindDataRetrieval, op, q.RecordType, "", err)
	}
	if res == nil {
		return nil, "", storeerrors.NewNullReturnError(op, q.RecordType, "")
	}

	items, err := decodeAll[T](res.Records)
	if err != nil {
		return nil, "", storeerrors.WithOp(err, op)
	}
	return items, res.Cursor, nil
}
