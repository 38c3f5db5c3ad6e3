/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"

	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/record"
	"github.com/suparena/recordstore/storagemodels"
)

// maxTransactWrite is the TransactWriteItems request limit.
const maxTransactWrite = 100

// Database is one scope of a Container.
type Database struct {
	container *Container
	public    bool
}

func (d *Database) log(op string) *logrus.Entry {
	scope := "private"
	if d.public {
		scope = "public"
	}
	return d.container.provider.logger.WithFields(logrus.Fields{
		"op":    op,
		"table": d.container.table,
		"scope": scope,
	})
}

// scope returns the key prefix of the database. The private scope needs
// the current user identity.
func (d *Database) scope(ctx context.Context) (string, error) {
	if d.public {
		return publicScope, nil
	}
	uid, err := d.container.UserRecordID(ctx)
	if err != nil {
		return "", err
	}
	return privateScope + uid, nil
}

// user returns the identity recorded as creator and modifier. Anonymous
// writes are allowed in the public scope.
func (d *Database) user(ctx context.Context) (string, error) {
	uid, err := d.container.UserRecordID(ctx)
	if err != nil && !(d.public && errors.Is(err, datastore.ErrNoAccount)) {
		return "", err
	}
	return uid, nil
}

func (d *Database) key(scope, id string) (map[string]types.AttributeValue, error) {
	expanded, err := expandMacros(primaryKeyMap(d.container.provider.keys), keyFields{Scope: scope, RecordID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to expand key: %w", err)
	}
	return buildKeyFromExpanded(expanded)
}

// toItem adds the table and index keys to the record's attributes. A field
// named like a key attribute is rejected rather than overwritten.
func (d *Database) toItem(scope string, rec *record.Record) (map[string]types.AttributeValue, error) {
	expanded, err := expandMacros(d.container.provider.keys, keyFields{
		Scope:      scope,
		EntityType: rec.Type,
		RecordID:   rec.ID,
		CreatedAt:  record.FormatTime(rec.CreatedAt),
		ModifiedAt: record.FormatTime(rec.ModifiedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to expand keys: %w", err)
	}

	item := rec.Attributes()
	for k, v := range expanded {
		if _, taken := item[k]; taken {
			return nil, fmt.Errorf("field %q collides with a key attribute of table %s", k, d.container.table)
		}
		item[k] = &types.AttributeValueMemberS{Value: v}
	}
	return item, nil
}

// fromItem strips the keys and rebuilds the record.
func (d *Database) fromItem(item map[string]types.AttributeValue) (*record.Record, error) {
	attrs := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		if _, isKey := d.container.provider.keys[k]; isKey {
			continue
		}
		attrs[k] = v
	}
	return record.FromAttributes(attrs)
}

// Fetch retrieves a record with a consistent read, or nil if it does not exist.
func (d *Database) Fetch(ctx context.Context, id string) (*record.Record, error) {
	scope, err := d.scope(ctx)
	if err != nil {
		return nil, err
	}
	key, err := d.key(scope, id)
	if err != nil {
		return nil, err
	}

	d.log("Fetch").WithField("id", id).Debug("GetItem")
	out, err := d.container.provider.api.GetItem(ctx, &sdk.GetItemInput{
		TableName:      aws.String(d.container.table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}
	return d.fromItem(out.Item)
}

// Save writes rec with PutItem. InsertOnly requires that the record does not
// exist; OverwriteAllKeys requires that it does and replaces every field,
// keeping the creation attributes.
func (d *Database) Save(ctx context.Context, rec *record.Record, policy storagemodels.SavePolicy) (*record.Record, error) {
	if rec == nil || rec.ID == "" || rec.Type == "" {
		return nil, fmt.Errorf("record needs a type and an identity")
	}
	scope, err := d.scope(ctx)
	if err != nil {
		return nil, err
	}
	uid, err := d.user(ctx)
	if err != nil {
		return nil, err
	}

	stored := rec.Clone()
	now := d.container.provider.now().UTC()
	var condition string

	switch policy {
	case storagemodels.InsertOnly:
		stored.CreatedAt = now
		stored.CreatorID = uid
		condition = "attribute_not_exists(#pk)"
	case storagemodels.OverwriteAllKeys:
		existing, err := d.Fetch(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, fmt.Errorf("%w: %s", datastore.ErrNotFound, rec.ID)
		}
		if existing.Type != rec.Type {
			return nil, fmt.Errorf("record %s has type %q, not %q", rec.ID, existing.Type, rec.Type)
		}
		stored.CreatedAt = existing.CreatedAt
		stored.CreatorID = existing.CreatorID
		condition = "attribute_exists(#pk)"
	default:
		return nil, fmt.Errorf("unsupported save policy %v", policy)
	}
	stored.ModifiedAt = now
	stored.ModifierID = uid

	item, err := d.toItem(scope, stored)
	if err != nil {
		return nil, err
	}

	d.log("Save").WithFields(logrus.Fields{"id": rec.ID, "policy": policy.String()}).Debug("PutItem")
	_, err = d.container.provider.api.PutItem(ctx, &sdk.PutItemInput{
		TableName:                aws.String(d.container.table),
		Item:                     item,
		ConditionExpression:      aws.String(condition),
		ExpressionAttributeNames: map[string]string{"#pk": PartitionKeyName},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			if policy == storagemodels.InsertOnly {
				return nil, fmt.Errorf("%w: %s", datastore.ErrAlreadyExists, rec.ID)
			}
			return nil, fmt.Errorf("%w: %s", datastore.ErrNotFound, rec.ID)
		}
		return nil, fmt.Errorf("PutItem failed: %w", err)
	}
	return stored, nil
}

// Delete removes an existing record.
func (d *Database) Delete(ctx context.Context, id string) (string, error) {
	scope, err := d.scope(ctx)
	if err != nil {
		return "", err
	}
	key, err := d.key(scope, id)
	if err != nil {
		return "", err
	}

	d.log("Delete").WithField("id", id).Debug("DeleteItem")
	out, err := d.container.provider.api.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:                aws.String(d.container.table),
		Key:                      key,
		ConditionExpression:      aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames: map[string]string{"#pk": PartitionKeyName},
		ReturnValues:             types.ReturnValueAllOld,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return "", fmt.Errorf("%w: %s", datastore.ErrNotFound, id)
		}
		return "", fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	if len(out.Attributes) == 0 {
		return "", fmt.Errorf("%w: %s", datastore.ErrNotFound, id)
	}
	return id, nil
}

// DeleteMany removes existing records with TransactWriteItems, 100 per
// request. Each delete is conditioned on the item existing, so a chunk that
// names a missing record deletes nothing and fails with ErrNotFound. Chunks
// already committed stay deleted.
func (d *Database) DeleteMany(ctx context.Context, ids []string) ([]string, error) {
	scope, err := d.scope(ctx)
	if err != nil {
		return nil, err
	}

	ids = unique(ids)
	deleted := make([]string, 0, len(ids))
	for start := 0; start < len(ids); start += maxTransactWrite {
		end := min(start+maxTransactWrite, len(ids))
		chunk := ids[start:end]
		items := make([]types.TransactWriteItem, 0, len(chunk))
		for _, id := range chunk {
			key, err := d.key(scope, id)
			if err != nil {
				return nil, err
			}
			items = append(items, types.TransactWriteItem{
				Delete: &types.Delete{
					TableName:                aws.String(d.container.table),
					Key:                      key,
					ConditionExpression:      aws.String("attribute_exists(#pk)"),
					ExpressionAttributeNames: map[string]string{"#pk": PartitionKeyName},
				},
			})
		}

		d.log("DeleteMany").WithField("count", len(items)).Debug("TransactWriteItems")
		_, err := d.container.provider.api.TransactWriteItems(ctx, &sdk.TransactWriteItemsInput{
			TransactItems: items,
		})
		if err != nil {
			if id, ok := missingID(err, chunk); ok {
				return nil, fmt.Errorf("%w: %s", datastore.ErrNotFound, id)
			}
			return nil, fmt.Errorf("TransactWriteItems failed after %d deletions: %w", len(deleted), err)
		}
		deleted = append(deleted, chunk...)
	}
	return deleted, nil
}

// missingID returns the identity whose existence check canceled the
// transaction. Cancellation reasons are listed in request order.
func missingID(err error, chunk []string) (string, bool) {
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return "", false
	}
	for i, reason := range tce.CancellationReasons {
		if aws.ToString(reason.Code) == "ConditionalCheckFailed" && i < len(chunk) {
			return chunk[i], true
		}
	}
	return "", false
}

func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
