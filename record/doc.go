/*
Package record defines the untyped record exchanged with the database.

A Record carries a type tag, an identity and a bag of fields whose values are
DynamoDB attribute values (string, number, binary, bool, list, map, null).
Dates are stored as RFC 3339 strings and references to other records as a
map with a RecordID entry.

Mappers read fields with an explicit per-field policy:

	rd := record.NewReader(rec).ExpectType("Post")
	name := record.Read[string](rd, "name")                    // required
	desc := record.ReadOptional(rd, "simpleDescription", "")   // optional
	if err := rd.Err(); err != nil {
	    return Post{}, err // ParsingFailure
	}

StructMapper offers the same contract for plain structs tagged with
`dynamodbav` tags.
*/
package record
