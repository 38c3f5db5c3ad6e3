/*
Package ddb provides a DynamoDB implementation of the datastore.Provider
interface.

Each container is backed by one table. Records of every type share the
table; the public scope and one private scope per user are separated by a
key prefix:

	PK, SK   {Scope}#REC#{RecordID}
	GSI1PK   {Scope}#TYPE#{EntityType}
	GSI1SK   {CreatedAt}#{ModifiedAt}#{RecordID}

Scope is "PUBLIC" or "PRIVATE#<user record id>". The user record id is the
configured Config.UserRecordID or the ARN of the STS caller identity.

Queries run against the type index, so results come back in creation order.
Predicates are passed through as DynamoDB filter expressions:

	p := storagemodels.MustPredicate("#n = :name", map[string]any{":name": "a"}).
	    WithNames(map[string]string{"#n": "name"})

A table suitable for the provider has a string PK/SK key and a GSI named
GSI1 with string GSI1PK/GSI1SK keys projecting all attributes.
*/
package ddb
