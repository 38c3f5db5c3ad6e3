/*
Package storagemodels defines the data structures passed between the store
and a database provider.

Predicate:
An opaque filter expression in DynamoDB condition syntax:

	p := storagemodels.MustPredicate("name = :name AND begins_with(#d, :prefix)",
	    map[string]any{":name": "a", ":prefix": "draft"}).
	    WithNames(map[string]string{"#d": "simpleDescription"})

The always-true predicate is TruePredicate() (expression TRUEPREDICATE).

Query:
Selects records of one type, optionally filtered, sorted and size bounded:

	q := storagemodels.Query{
	    RecordType: "Post",
	    Predicate:  storagemodels.TruePredicate(),
	    Sort:       storagemodels.SortByCreation(false),
	    Limit:      20,
	}

QueryResult carries one page plus an opaque continuation cursor, empty when
the query is exhausted.

SavePolicy selects between insert-only and overwrite-all-keys saves.
AccountStatus reports whether the current user can reach the database.
*/
package storagemodels
