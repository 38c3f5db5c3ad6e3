/*
Package datastore defines the interfaces a record database provider implements.

A Provider resolves containers; a Container exposes a public and a private
Database plus the current user's identity:

	type Database interface {
	    Fetch(ctx context.Context, id string) (*record.Record, error)
	    Save(ctx context.Context, rec *record.Record, policy storagemodels.SavePolicy) (*record.Record, error)
	    Delete(ctx context.Context, id string) (string, error)
	    DeleteMany(ctx context.Context, ids []string) ([]string, error)
	    Query(ctx context.Context, q storagemodels.Query, cursor string) (*storagemodels.QueryResult, error)
	}

Implementations:
  - ddb: DynamoDB, one table per container, single-table layout
  - memory: in-process provider for tests and offline use

Providers return plain Go errors; the store maps them into the storage error
taxonomy and never passes them to its callers.

Paging contract: a page holds at most Query.Limit records and a non-empty
cursor is only returned when at least one more record matches, so the last
page never comes with a cursor.
*/
package datastore
