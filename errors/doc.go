/*
Package errors defines the closed error taxonomy surfaced by recordstore.

Every storage operation fails with a *StorageError whose Kind is one of:

	DataRetrieval   fetch or query failed
	DataInsertion   create failed
	DataRemoval     delete failed
	DataUpdate      overwrite failed
	NullReference   an identity was required but missing
	NullRecord      an entity read from storage has no identity
	NullReturn      the database succeeded but returned nothing
	ParsingFailure  a record could not be mapped to or from an entity

Each kind has a sentinel that works with errors.Is:

	posts, err := recordstore.GetAll[Post](ctx, store, recordstore.DefaultPartition())
	if err != nil {
	    if errors.IsParsingFailure(err) {
	        // a stored record is malformed
	    }
	    return err
	}

A StorageError never unwraps to the database's native error; the native cause
is logged by the store before it is mapped.
*/
package errors
