/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package recordstore

import (
	"context"

	storeerrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/storagemodels"
)

// Create saves a new entity and returns it as stored, with the identity and
// timestamps assigned by the database. Creating an entity whose identity
// already exists fails.
func Create[T Entity[T]](ctx context.Context, s *Store, p Partition, v T) (T, error) {
	const op = "Create"
	var zero T
	tag := recordType[T]()

	rec, err := encode[T](v)
	if err != nil {
		return zero, storeerrors.WithOp(err, op)
	}

	log := s.entry(op, tag, p).WithField("id", rec.ID)
	db, err := s.database(p)
	if err != nil {
		return zero, s.fail(log, storeerrors.KindDataInsertion, op, tag, rec.ID, err)
	}

	log.Debug("inserting record")
	saved, err := db.Save(ctx, rec, storagemodels.InsertOnly)
	if err != nil {
		return zero, s.fail(log, storeerrors.KindDataInsertion, op, tag, rec.ID, err)
	}
	if saved == nil {
		return zero, storeerrors.NewNullReturnError(op, tag, rec.ID)
	}

	created, err := decode[T](saved)
	if err != nil {
		return zero, storeerrors.WithOp(err, op)
	}
	return created, nil
}

// Update overwrites every field of an existing record with v and returns
// the identity echoed by the database. v must have an identity; Update
// never creates a record.
func Update[T Entity[T]](ctx context.Context, s *Store, p Partition, v T) (string, error) {
	const op = "Update"
	tag := recordType[T]()
	id := v.RecordID()
	if id == "" {
		return "", storeerrors.NewNullReferenceError(op, tag)
	}

	rec, err := encode[T](v)
	if err != nil {
		return "", storeerrors.WithOp(err, op)
	}

	log := s.entry(op, tag, p).WithField("id", id)
	db, err := s.database(p)
	if err != nil {
		return "", s.fail(log, storeerrors.KindDataUpdate, op, tag, id, err)
	}

	log.Debug("overwriting record")
	saved, err := db.Save(ctx, rec, storagemodels.OverwriteAllKeys)
	if err != nil {
		return "", s.fail(log, storeerrors.KindDataUpdate, op, tag, id, err)
	}
	if saved == nil || saved.ID == "" {
		return "", storeerrors.NewNullReturnError(op, tag, id)
	}
	return saved.ID, nil
}

// Remove deletes one record and returns its identity.
func Remove(ctx context.Context, s *Store, p Partition, id string) (string, error) {
	const op = "Remove"
	if id == "" {
		return "", storeerrors.NewNullReferenceError(op, "")
	}

	log := s.entry(op, "", p).WithField("id", id)
	db, err := s.database(p)
	if err != nil {
		return "", s.fail(log, storeerrors.KindDataRemoval, op, "", id, err)
	}

	log.Debug("deleting record")
	deleted, err := db.Delete(ctx, id)
	if err != nil {
		return "", s.fail(log, storeerrors.KindDataRemoval, op, "", id, err)
	}
	if deleted == "" {
		return "", storeerrors.NewNullReturnError(op, "", id)
	}
	return deleted, nil
}

// RemoveMany deletes several records and returns the deleted identities.
// The deletion is not atomic across records. An empty list succeeds
// without reaching the database.
func RemoveMany(ctx context.Context, s *Store, p Partition, ids []string) ([]string, error) {
	const op = "RemoveMany"
	if len(ids) == 0 {
		return []string{}, nil
	}
	for _, id := range ids {
		if id == "" {
			return nil, storeerrors.NewNullReferenceError(op, "")
		}
	}

	log := s.entry(op, "", p).WithField("count", len(ids))
	db, err := s.database(p)
	if err != nil {
		return nil, s.fail(log, storeerrors.KindDataRemoval, op, "", "", err)
	}

	log.Debug("deleting records")
	deleted, err := db.DeleteMany(ctx, ids)
	if err != nil {
		return nil, s.fail(log, storeerrors.KindDataRemoval, op, "", "", err)
	}
	if deleted == nil {
		return nil, storeerrors.NewNullReturnError(op, "", "")
	}
	return deleted, nil
}

// RemoveAll deletes every entity of type T in the partition. It is a fetch
// followed by a batch delete, not an atomic operation.
func RemoveAll[T Entity[T]](ctx context.Context, s *Store, p Partition) ([]string, error) {
	items, err := GetAll[T](ctx, s, p)
	if err != nil {
		return nil, err
	}
	return removeEntities(ctx, s, p, "RemoveAll", items)
}

// RemoveAllByUser deletes the entities of type T created by the current user.
func RemoveAllByUser[T Entity[T]](ctx context.Context, s *Store, p Partition) ([]string, error) {
	items, err := FetchRecordsByUser[T](ctx, s, p)
	if err != nil {
		return nil, err
	}
	return removeEntities(ctx, s, p, "RemoveAllByUser", items)
}

// RemoveWhere deletes the entities of type T matching predicate.
func RemoveWhere[T Entity[T]](ctx context.Context, s *Store, p Partition, predicate storagemodels.Predicate) ([]string, error) {
	items, err := Get[T](ctx, s, p, predicate)
	if err != nil {
		return nil, err
	}
	return removeEntities(ctx, s, p, "RemoveWhere", items)
}

func removeEntities[T Entity[T]](ctx context.Context, s *Store, p Partition, op string, items []T) ([]string, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		id := item.RecordID()
		if id == "" {
			return nil, storeerrors.NewNullRecordError(op, recordType[T]())
		}
		ids = append(ids, id)
	}
	return RemoveMany(ctx, s, p, ids)
}
