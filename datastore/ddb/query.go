/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"

	"github.com/suparena/recordstore/record"
	"github.com/suparena/recordstore/storagemodels"
)

// Placeholders reserved for the key condition.
const (
	typeKeyName  = "#rs_pk"
	typeKeyValue = ":rs_pk"
)

// Query runs q against the type index. Records come back in creation order.
// With a limit, one extra item is read ahead so that a cursor is only
// returned when more records exist.
func (d *Database) Query(ctx context.Context, q storagemodels.Query, cursor string) (*storagemodels.QueryResult, error) {
	input, err := d.queryInput(ctx, q)
	if err != nil {
		return nil, err
	}
	if cursor != "" {
		if input.ExclusiveStartKey, err = decodeCursor(cursor); err != nil {
			return nil, err
		}
	}

	log := d.log("Query").WithFields(logrus.Fields{
		"record_type": q.RecordType,
		"limit":       q.Limit,
	})

	var items []map[string]types.AttributeValue
	if q.Limit <= 0 {
		items, err = d.queryAll(ctx, log, input)
	} else {
		items, err = d.queryAhead(ctx, log, input, q.Limit)
	}
	if err != nil {
		return nil, err
	}

	result := &storagemodels.QueryResult{}
	if q.Limit > 0 && len(items) > q.Limit {
		items = items[:q.Limit]
		if result.Cursor, err = d.cursorAfter(items[q.Limit-1]); err != nil {
			return nil, err
		}
	}

	result.Records = make([]*record.Record, 0, len(items))
	for _, item := range items {
		rec, err := d.fromItem(item)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func (d *Database) queryInput(ctx context.Context, q storagemodels.Query) (*sdk.QueryInput, error) {
	if q.RecordType == "" {
		return nil, fmt.Errorf("query needs a record type")
	}
	ascending, err := storagemodels.CreationOrder(q.Sort)
	if err != nil {
		return nil, err
	}
	scope, err := d.scope(ctx)
	if err != nil {
		return nil, err
	}

	idx := d.container.provider.cfg.Index
	expanded, err := expandMacros(
		map[string]string{idx.PartitionKeyName: d.container.provider.keys[idx.PartitionKeyName]},
		keyFields{Scope: scope, EntityType: q.RecordType},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to expand type key: %w", err)
	}

	names := map[string]string{typeKeyName: idx.PartitionKeyName}
	values := map[string]types.AttributeValue{
		typeKeyValue: &types.AttributeValueMemberS{Value: expanded[idx.PartitionKeyName]},
	}

	input := &sdk.QueryInput{
		TableName:              aws.String(d.container.table),
		IndexName:              aws.String(idx.IndexName),
		KeyConditionExpression: aws.String(typeKeyName + " = " + typeKeyValue),
		ScanIndexForward:       aws.Bool(ascending),
	}

	if !q.Predicate.IsTrue() {
		for k, v := range q.Predicate.Names {
			if k == typeKeyName {
				return nil, fmt.Errorf("predicate uses reserved placeholder %s", k)
			}
			names[k] = v
		}
		for k, v := range q.Predicate.Values {
			if k == typeKeyValue {
				return nil, fmt.Errorf("predicate uses reserved placeholder %s", k)
			}
			values[k] = v
		}
		input.FilterExpression = aws.String(q.Predicate.Expression)
	}
	input.ExpressionAttributeNames = names
	input.ExpressionAttributeValues = values
	return input, nil
}

// queryAll drains every page.
func (d *Database) queryAll(ctx context.Context, log *logrus.Entry, input *sdk.QueryInput) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	paginator := sdk.NewQueryPaginator(d.container.provider.api, input)
	for paginator.HasMorePages() {
		log.Debug("Query")
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}
		items = append(items, out.Items...)
	}
	return items, nil
}

// queryAhead reads until limit+1 matching items are found or the index is
// exhausted. Limit applies before the filter, so several requests may be
// needed.
func (d *Database) queryAhead(ctx context.Context, log *logrus.Entry, input *sdk.QueryInput, limit int) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	for {
		input.Limit = aws.Int32(int32(limit + 1 - len(items)))
		log.WithField("request_limit", *input.Limit).Debug("Query")
		out, err := d.container.provider.api.Query(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("query error: %w", err)
		}
		items = append(items, out.Items...)
		if len(items) > limit || len(out.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// cursorAfter encodes the key of item as a continuation token.
func (d *Database) cursorAfter(item map[string]types.AttributeValue) (string, error) {
	idx := d.container.provider.cfg.Index
	key := make(map[string]string, 4)
	for _, name := range []string{PartitionKeyName, SortKeyName, idx.PartitionKeyName, idx.SortKeyName} {
		s, ok := item[name].(*types.AttributeValueMemberS)
		if !ok || s.Value == "" {
			return "", fmt.Errorf("%w: item has no %s key", record.ErrMalformed, name)
		}
		key[name] = s.Value
	}
	return encodeCursor(key)
}

func encodeCursor(key map[string]string) (string, error) {
	data, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func decodeCursor(s string) (map[string]types.AttributeValue, error) {
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor format: %w", err)
	}
	var key map[string]string
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("invalid cursor content: %w", err)
	}
	if len(key) == 0 {
		return nil, fmt.Errorf("invalid cursor content: empty key")
	}
	start := make(map[string]types.AttributeValue, len(key))
	for k, v := range key {
		start[k] = &types.AttributeValueMemberS{Value: v}
	}
	return start, nil
}
