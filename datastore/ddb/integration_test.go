//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/recordstore/datastore/ddb"
	"github.com/suparena/recordstore/record"
	"github.com/suparena/recordstore/storagemodels"
)

// setupProvider connects to the table named by RECORDSTORE_TABLE. Settings
// may come from a .env file at the repository root.
func setupProvider(t *testing.T) *ddb.Provider {
	t.Helper()
	if err := godotenv.Load("../../.env"); err != nil {
		t.Log("No .env file found, proceeding with environment variables")
	}

	table := os.Getenv("RECORDSTORE_TABLE")
	if table == "" {
		t.Skip("RECORDSTORE_TABLE not set, skipping integration test")
	}

	ctx := context.Background()
	client, identity, err := ddb.NewDynamoDBClient(ctx, ddb.ClientConfig{
		Region:    os.Getenv("AWS_REGION"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		Endpoint:  os.Getenv("RECORDSTORE_ENDPOINT"),
	}, nil)
	require.NoError(t, err)

	p, err := ddb.NewProvider(client, identity, ddb.Config{
		DefaultTable: table,
		UserRecordID: os.Getenv("RECORDSTORE_USER"),
	})
	require.NoError(t, err)
	return p
}

func TestIntegrationRecordLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	c, err := setupProvider(t).DefaultContainer()
	require.NoError(t, err)
	db := c.PublicDatabase()

	recordType := fmt.Sprintf("IntegrationNote%d", time.Now().UnixNano())
	var ids []string
	for i := 0; i < 3; i++ {
		rec := record.New(recordType)
		require.NoError(t, rec.Set("title", fmt.Sprintf("note %d", i)))
		saved, err := db.Save(ctx, rec, storagemodels.InsertOnly)
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}
	t.Cleanup(func() {
		_, _ = db.DeleteMany(context.Background(), ids)
	})

	fetched, err := db.Fetch(ctx, ids[0])
	require.NoError(t, err)
	require.NotNil(t, fetched)

	rec := fetched.Clone()
	require.NoError(t, rec.Set("title", "updated"))
	_, err = db.Save(ctx, rec, storagemodels.OverwriteAllKeys)
	require.NoError(t, err)

	q := storagemodels.Query{RecordType: recordType, Sort: storagemodels.SortByCreation(true), Limit: 2}
	page, err := db.Query(ctx, q, "")
	require.NoError(t, err)
	assert.Len(t, page.Records, 2)
	require.NotEmpty(t, page.Cursor)

	page, err = db.Query(ctx, q, page.Cursor)
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Empty(t, page.Cursor)

	id, err := db.Delete(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, ids[0], id)

	_, err = db.Delete(ctx, ids[0])
	assert.Error(t, err)
}
