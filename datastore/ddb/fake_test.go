/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/suparena/recordstore/datastore/memory"
	"github.com/suparena/recordstore/storagemodels"
)

// fakeAPI is an in-memory table with a GSI1 index. Query filters are
// evaluated with the memory provider's expression compiler.
type fakeAPI struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	// maxPage caps the items evaluated per Query request; zero means no cap.
	maxPage int
	// err fails every call.
	err error

	puts    []*sdk.PutItemInput
	transactions []int
	queries []*sdk.QueryInput
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]map[string]types.AttributeValue)}
}

func itemKey(item map[string]types.AttributeValue) string {
	return stringAttr(item, PartitionKeyName) + "|" + stringAttr(item, SortKeyName)
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if s, ok := item[name].(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func copyItem(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	cp := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		cp[k] = v
	}
	return cp
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func (f *fakeAPI) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[itemKey(in.Key)]
	if !ok {
		return &sdk.GetItemOutput{}, nil
	}
	return &sdk.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, in)

	key := itemKey(in.Item)
	_, exists := f.items[key]
	cond := aws.ToString(in.ConditionExpression)
	switch {
	case strings.HasPrefix(cond, "attribute_not_exists") && exists:
		return nil, conditionFailed()
	case strings.HasPrefix(cond, "attribute_exists") && !exists:
		return nil, conditionFailed()
	}
	f.items[key] = copyItem(in.Item)
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	key := itemKey(in.Key)
	old, exists := f.items[key]
	if !exists {
		if strings.HasPrefix(aws.ToString(in.ConditionExpression), "attribute_exists") {
			return nil, conditionFailed()
		}
		return &sdk.DeleteItemOutput{}, nil
	}
	delete(f.items, key)
	out := &sdk.DeleteItemOutput{}
	if in.ReturnValues == types.ReturnValueAllOld {
		out.Attributes = old
	}
	return out, nil
}

// TransactWriteItems applies conditional deletes all or nothing.
func (f *fakeAPI) TransactWriteItems(_ context.Context, in *sdk.TransactWriteItemsInput, _ ...func(*sdk.Options)) (*sdk.TransactWriteItemsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.transactions = append(f.transactions, len(in.TransactItems))

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	canceled := false
	for i, item := range in.TransactItems {
		reasons[i].Code = aws.String("None")
		_, exists := f.items[itemKey(item.Delete.Key)]
		if !exists && strings.HasPrefix(aws.ToString(item.Delete.ConditionExpression), "attribute_exists") {
			reasons[i].Code = aws.String("ConditionalCheckFailed")
			canceled = true
		}
	}
	if canceled {
		return nil, &types.TransactionCanceledException{
			Message:             aws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}
	for _, item := range in.TransactItems {
		delete(f.items, itemKey(item.Delete.Key))
	}
	return &sdk.TransactWriteItemsOutput{}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *sdk.QueryInput, _ ...func(*sdk.Options)) (*sdk.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	snapshot := *in
	f.queries = append(f.queries, &snapshot)

	idx := DefaultIndexConfig
	pk := stringAttr(in.ExpressionAttributeValues, typeKeyValue)
	var candidates []map[string]types.AttributeValue
	for _, item := range f.items {
		if stringAttr(item, idx.PartitionKeyName) == pk {
			candidates = append(candidates, item)
		}
	}
	forward := aws.ToBool(in.ScanIndexForward)
	sort.Slice(candidates, func(i, j int) bool {
		a, b := stringAttr(candidates[i], idx.SortKeyName), stringAttr(candidates[j], idx.SortKeyName)
		if forward {
			return a < b
		}
		return a > b
	})

	start := 0
	if len(in.ExclusiveStartKey) > 0 {
		after := itemKey(in.ExclusiveStartKey)
		for i, item := range candidates {
			if itemKey(item) == after {
				start = i + 1
				break
			}
		}
	}
	candidates = candidates[start:]

	limit := len(candidates)
	if in.Limit != nil && int(*in.Limit) < limit {
		limit = int(*in.Limit)
	}
	if f.maxPage > 0 && f.maxPage < limit {
		limit = f.maxPage
	}
	evaluated := candidates[:limit]

	match := func(map[string]types.AttributeValue) bool { return true }
	if in.FilterExpression != nil {
		m, err := memory.Compile(storagemodels.Predicate{
			Expression: *in.FilterExpression,
			Names:      in.ExpressionAttributeNames,
			Values:     in.ExpressionAttributeValues,
		})
		if err != nil {
			return nil, err
		}
		match = m
	}

	out := &sdk.QueryOutput{}
	for _, item := range evaluated {
		if match(item) {
			out.Items = append(out.Items, copyItem(item))
		}
	}
	if limit < len(candidates) || (in.Limit != nil && limit == int(*in.Limit) && limit > 0) {
		last := evaluated[len(evaluated)-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			PartitionKeyName:     last[PartitionKeyName],
			SortKeyName:          last[SortKeyName],
			idx.PartitionKeyName: last[idx.PartitionKeyName],
			idx.SortKeyName:      last[idx.SortKeyName],
		}
	}
	out.Count = int32(len(out.Items))
	out.ScannedCount = int32(len(evaluated))
	return out, nil
}

func (f *fakeAPI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// fakeIdentity answers GetCallerIdentity with a fixed ARN or error.
type fakeIdentity struct {
	mu    sync.Mutex
	arn   string
	err   error
	calls int
}

func (f *fakeIdentity) GetCallerIdentity(_ context.Context, _ *sts.GetCallerIdentityInput, _ ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &sts.GetCallerIdentityOutput{Arn: aws.String(f.arn)}, nil
}
