/*
Package registry maps record type tags to Go entity types.

Entity types register once, usually from init():

	func init() {
	    recordstore.Register[Post]()
	}

The store consults the registry before decoding: a record type tag that is
registered to a different Go type is a parsing failure rather than a silent
mis-decode. Registered decoders also let tools decode records whose type is
only known at runtime:

	v, err := registry.Decode(rec)

Registering the same tag twice panics.
*/
package registry
