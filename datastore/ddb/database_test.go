/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/record"
	"github.com/suparena/recordstore/storagemodels"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// steppingClock returns a time one second later on every call.
func steppingClock() func() time.Time {
	n := 0
	return func() time.Time {
		n++
		return epoch.Add(time.Duration(n) * time.Second)
	}
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestProvider(t *testing.T, api *fakeAPI, identity IdentityAPI, cfg Config) *Provider {
	t.Helper()
	if cfg.DefaultTable == "" {
		cfg.DefaultTable = "records"
	}
	p, err := NewProvider(api, identity, cfg, WithLogger(quietLogger()), WithClock(steppingClock()))
	require.NoError(t, err)
	return p
}

func privateDB(t *testing.T, api *fakeAPI) datastore.Database {
	t.Helper()
	c, err := newTestProvider(t, api, nil, Config{UserRecordID: "user-1"}).DefaultContainer()
	require.NoError(t, err)
	return c.PrivateDatabase()
}

func note(t *testing.T, id, title string) *record.Record {
	t.Helper()
	rec := record.WithID("Note", id)
	require.NoError(t, rec.Set("title", title))
	return rec
}

func TestExpandMacros(t *testing.T) {
	keys := indexMap(DefaultIndexConfig)

	expanded, err := expandMacros(keys, keyFields{
		Scope:      "PUBLIC",
		EntityType: "Note",
		RecordID:   "n1",
		CreatedAt:  "2025-03-01T12:00:00.000000000Z",
		ModifiedAt: "2025-03-02T12:00:00.000000000Z",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"PK":     "PUBLIC#REC#n1",
		"SK":     "PUBLIC#REC#n1",
		"GSI1PK": "PUBLIC#TYPE#Note",
		"GSI1SK": "2025-03-01T12:00:00.000000000Z#2025-03-02T12:00:00.000000000Z#n1",
	}, expanded)

	_, err = expandMacros(keys, keyFields{Scope: "PUBLIC", RecordID: "n1"})
	assert.Error(t, err)

	key, err := expandMacros(primaryKeyMap(keys), keyFields{Scope: "PRIVATE#u", RecordID: "n1"})
	require.NoError(t, err)
	built, err := buildKeyFromExpanded(key)
	require.NoError(t, err)
	assert.Equal(t, "PRIVATE#u#REC#n1", stringAttr(built, "PK"))
	assert.Len(t, built, 2)

	_, err = buildKeyFromExpanded(map[string]string{"PK": "x"})
	assert.Error(t, err)
}

func TestSaveInsertOnly(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)

	saved, err := db.Save(ctx, note(t, "n1", "first"), storagemodels.InsertOnly)
	require.NoError(t, err)
	assert.Equal(t, "user-1", saved.CreatorID)
	assert.Equal(t, "user-1", saved.ModifierID)
	assert.True(t, saved.CreatedAt.Equal(saved.ModifiedAt))

	require.Len(t, api.puts, 1)
	put := api.puts[0]
	assert.Equal(t, "records", aws.ToString(put.TableName))
	assert.Equal(t, "attribute_not_exists(#pk)", aws.ToString(put.ConditionExpression))
	assert.Equal(t, "PRIVATE#user-1#REC#n1", stringAttr(put.Item, "PK"))
	assert.Equal(t, "PRIVATE#user-1#REC#n1", stringAttr(put.Item, "SK"))
	assert.Equal(t, "PRIVATE#user-1#TYPE#Note", stringAttr(put.Item, "GSI1PK"))
	ts := record.FormatTime(saved.CreatedAt)
	assert.Equal(t, ts+"#"+ts+"#n1", stringAttr(put.Item, "GSI1SK"))
	assert.Equal(t, "Note", stringAttr(put.Item, record.AttrType))
	assert.Equal(t, "first", stringAttr(put.Item, "title"))

	_, err = db.Save(ctx, note(t, "n1", "again"), storagemodels.InsertOnly)
	assert.ErrorIs(t, err, datastore.ErrAlreadyExists)

	_, err = db.Save(ctx, record.WithID("Note", ""), storagemodels.InsertOnly)
	assert.Error(t, err)
}

func TestSaveOverwrite(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)

	_, err := db.Save(ctx, note(t, "ghost", "x"), storagemodels.OverwriteAllKeys)
	assert.ErrorIs(t, err, datastore.ErrNotFound)
	assert.Empty(t, api.puts)

	created, err := db.Save(ctx, note(t, "n1", "first"), storagemodels.InsertOnly)
	require.NoError(t, err)

	updated, err := db.Save(ctx, note(t, "n1", "second"), storagemodels.OverwriteAllKeys)
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))
	assert.True(t, updated.ModifiedAt.After(created.ModifiedAt))
	assert.Equal(t, "attribute_exists(#pk)", aws.ToString(api.puts[len(api.puts)-1].ConditionExpression))

	fetched, err := db.Fetch(ctx, "n1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	title, err := record.Required[string](fetched, "title")
	require.NoError(t, err)
	assert.Equal(t, "second", title)
	assert.Equal(t, 1, api.count())

	_, err = db.Save(ctx, record.WithID("Task", "n1"), storagemodels.OverwriteAllKeys)
	assert.Error(t, err)
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)

	missing, err := db.Fetch(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	saved, err := db.Save(ctx, note(t, "n1", "first"), storagemodels.InsertOnly)
	require.NoError(t, err)
	fetched, err := db.Fetch(ctx, "n1")
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, saved.ID, fetched.ID)
	assert.Equal(t, saved.Fields, fetched.Fields)
	assert.True(t, saved.CreatedAt.Equal(fetched.CreatedAt))
	assert.False(t, fetched.Has("PK"))
	assert.False(t, fetched.Has("GSI1SK"))

	api.err = fmt.Errorf("boom")
	_, err = db.Fetch(ctx, "n1")
	assert.ErrorContains(t, err, "boom")
}

func TestFetchMalformedItem(t *testing.T) {
	api := newFakeAPI()
	api.items["PRIVATE#user-1#REC#bad|PRIVATE#user-1#REC#bad"] = map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "PRIVATE#user-1#REC#bad"},
		"SK": &types.AttributeValueMemberS{Value: "PRIVATE#user-1#REC#bad"},
	}
	_, err := privateDB(t, api).Fetch(context.Background(), "bad")
	assert.ErrorIs(t, err, record.ErrMalformed)
}

func TestScopes(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	c, err := newTestProvider(t, api, nil, Config{}).DefaultContainer()
	require.NoError(t, err)

	saved, err := c.PublicDatabase().Save(ctx, note(t, "n1", "anon"), storagemodels.InsertOnly)
	require.NoError(t, err)
	assert.Empty(t, saved.CreatorID)
	assert.Equal(t, "PUBLIC#REC#n1", stringAttr(api.puts[0].Item, "PK"))

	_, err = c.PrivateDatabase().Save(ctx, note(t, "n2", "mine"), storagemodels.InsertOnly)
	assert.ErrorIs(t, err, datastore.ErrNoAccount)

	_, err = c.PrivateDatabase().Fetch(ctx, "n1")
	assert.ErrorIs(t, err, datastore.ErrNoAccount)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)

	_, err := db.Save(ctx, note(t, "n1", "first"), storagemodels.InsertOnly)
	require.NoError(t, err)

	id, err := db.Delete(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", id)
	assert.Equal(t, 0, api.count())

	_, err = db.Delete(ctx, "n1")
	assert.ErrorIs(t, err, datastore.ErrNotFound)
}

func TestDeleteManyChunks(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)

	ids := make([]string, 250)
	for i := range ids {
		ids[i] = fmt.Sprintf("n%03d", i)
		_, err := db.Save(ctx, note(t, ids[i], "x"), storagemodels.InsertOnly)
		require.NoError(t, err)
	}

	deleted, err := db.DeleteMany(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, ids, deleted)
	assert.Equal(t, []int{100, 100, 50}, api.transactions)
	assert.Equal(t, 0, api.count())
}

func TestDeleteManyMissingRecord(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)
	_, err := db.Save(ctx, note(t, "n1", "x"), storagemodels.InsertOnly)
	require.NoError(t, err)

	deleted, err := db.DeleteMany(ctx, []string{"n1", "ghost"})
	require.ErrorIs(t, err, datastore.ErrNotFound)
	assert.Contains(t, err.Error(), "ghost")
	assert.Nil(t, deleted)
	assert.Equal(t, 1, api.count(), "nothing is deleted when a record is missing")
}

func TestDeleteManyDuplicates(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)
	_, err := db.Save(ctx, note(t, "n1", "x"), storagemodels.InsertOnly)
	require.NoError(t, err)

	deleted, err := db.DeleteMany(ctx, []string{"n1", "n1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, deleted)
}

func TestDeleteManyFailure(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)
	_, err := db.Save(ctx, note(t, "n1", "x"), storagemodels.InsertOnly)
	require.NoError(t, err)

	api.err = errors.New("throttled")
	deleted, err := db.DeleteMany(ctx, []string{"n1"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, datastore.ErrNotFound)
	assert.Nil(t, deleted)
}

func seedNotes(t *testing.T, db datastore.Database, n int) []string {
	t.Helper()
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("n%d", i)
		rec := note(t, ids[i], fmt.Sprintf("title %d", i))
		require.NoError(t, rec.Set("rank", i))
		_, err := db.Save(context.Background(), rec, storagemodels.InsertOnly)
		require.NoError(t, err)
	}
	return ids
}

func recordIDs(recs []*record.Record) []string {
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids
}

func TestQueryPaging(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)
	seedNotes(t, db, 7)

	q := storagemodels.Query{RecordType: "Note", Sort: storagemodels.SortByCreation(false), Limit: 3}

	var pages [][]string
	cursor := ""
	for {
		res, err := db.Query(ctx, q, cursor)
		require.NoError(t, err)
		pages = append(pages, recordIDs(res.Records))
		if res.Cursor == "" {
			break
		}
		cursor = res.Cursor
	}
	assert.Equal(t, [][]string{
		{"n6", "n5", "n4"},
		{"n3", "n2", "n1"},
		{"n0"},
	}, pages)

	first := api.queries[0]
	assert.Equal(t, "GSI1", aws.ToString(first.IndexName))
	assert.False(t, aws.ToBool(first.ScanIndexForward))
	assert.Equal(t, "#rs_pk = :rs_pk", aws.ToString(first.KeyConditionExpression))
	assert.Equal(t, "GSI1PK", first.ExpressionAttributeNames["#rs_pk"])
	assert.Equal(t, "PRIVATE#user-1#TYPE#Note", stringAttr(first.ExpressionAttributeValues, ":rs_pk"))
	assert.Nil(t, first.FilterExpression)
	assert.Equal(t, int32(4), aws.ToInt32(first.Limit))
}

func TestQueryExactMultipleHasNoTrailingCursor(t *testing.T) {
	ctx := context.Background()
	db := privateDB(t, newFakeAPI())
	seedNotes(t, db, 6)

	q := storagemodels.Query{RecordType: "Note", Limit: 3}
	res, err := db.Query(ctx, q, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"n0", "n1", "n2"}, recordIDs(res.Records))
	require.NotEmpty(t, res.Cursor)

	res, err = db.Query(ctx, q, res.Cursor)
	require.NoError(t, err)
	assert.Equal(t, []string{"n3", "n4", "n5"}, recordIDs(res.Records))
	assert.Empty(t, res.Cursor)
}

func TestQueryFilterReadsAhead(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	db := privateDB(t, api)
	seedNotes(t, db, 10)

	even := storagemodels.MustPredicate("#r IN (:a, :b, :c, :d, :e)", map[string]any{
		":a": 0, ":b": 2, ":c": 4, ":d": 6, ":e": 8,
	}).WithNames(map[string]string{"#r": "rank"})

	res, err := db.Query(ctx, storagemodels.Query{RecordType: "Note", Predicate: even, Limit: 3}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"n0", "n2", "n4"}, recordIDs(res.Records))
	assert.NotEmpty(t, res.Cursor)
	assert.Greater(t, len(api.queries), 1)
	assert.Equal(t, "rank", api.queries[0].ExpressionAttributeNames["#r"])
	assert.Equal(t, "GSI1PK", api.queries[0].ExpressionAttributeNames["#rs_pk"])

	res, err = db.Query(ctx, storagemodels.Query{RecordType: "Note", Predicate: even, Limit: 3}, res.Cursor)
	require.NoError(t, err)
	assert.Equal(t, []string{"n6", "n8"}, recordIDs(res.Records))
	assert.Empty(t, res.Cursor)
}

func TestQueryWithoutLimitDrainsPages(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.maxPage = 2
	db := privateDB(t, api)
	ids := seedNotes(t, db, 5)

	res, err := db.Query(ctx, storagemodels.Query{RecordType: "Note"}, "")
	require.NoError(t, err)
	assert.Equal(t, ids, recordIDs(res.Records))
	assert.Empty(t, res.Cursor)
	assert.Len(t, api.queries, 3)
}

func TestQueryEmpty(t *testing.T) {
	res, err := privateDB(t, newFakeAPI()).Query(context.Background(), storagemodels.Query{RecordType: "Note", Limit: 5}, "")
	require.NoError(t, err)
	assert.NotNil(t, res.Records)
	assert.Empty(t, res.Records)
	assert.Empty(t, res.Cursor)
}

func TestQueryRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	db := privateDB(t, newFakeAPI())

	_, err := db.Query(ctx, storagemodels.Query{}, "")
	assert.Error(t, err)

	_, err = db.Query(ctx, storagemodels.Query{RecordType: "Note"}, "%%%")
	assert.Error(t, err)

	_, err = db.Query(ctx, storagemodels.Query{
		RecordType: "Note",
		Sort:       []storagemodels.SortDescriptor{{Key: "title"}},
	}, "")
	assert.Error(t, err)

	reserved := storagemodels.MustPredicate("title = :rs_pk", map[string]any{":rs_pk": "x"})
	_, err = db.Query(ctx, storagemodels.Query{RecordType: "Note", Predicate: reserved}, "")
	assert.Error(t, err)
}

func TestCursorRoundTrip(t *testing.T) {
	key := map[string]string{"PK": "a", "SK": "a", "GSI1PK": "b", "GSI1SK": "c"}
	token, err := encodeCursor(key)
	require.NoError(t, err)

	start, err := decodeCursor(token)
	require.NoError(t, err)
	require.Len(t, start, 4)
	for k, v := range key {
		assert.Equal(t, v, stringAttr(start, k))
	}

	_, err = decodeCursor("e30")
	assert.Error(t, err)
}
