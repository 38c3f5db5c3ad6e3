/*
Package recordstore provides typed persistence over a record database.

Application types implement Entity: a stable record type tag, an optional
identity and a Mapper converting between the type and an untyped
record.Record. Every operation is a generic function over the entity type
that takes an explicit Partition:

	store, _ := recordstore.New(provider, recordstore.WithLogger(logger))
	p := recordstore.DefaultPartition()

	post, err := recordstore.Create(ctx, store, p, Post{Name: "a"})
	posts, err := recordstore.GetAll[Post](ctx, store, p)
	_, err = recordstore.RemoveMany(ctx, store, p, []string{post.ID})

Paged queries return a Page whose Next cursor fetches the following page
exactly once:

	page, err := recordstore.GetAllPaginated[Post](ctx, store, p, 20)
	for page.Next != nil {
	    if page, err = page.Next.FetchPage(ctx); err != nil {
	        break
	    }
	}

Every error returned is a *errors.StorageError of one of eight kinds; the
provider's own error is logged at debug level and never returned.

Providers live under datastore: ddb for Amazon DynamoDB and memory for an
in-process database.
*/
package recordstore
