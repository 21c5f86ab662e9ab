/*
Package jsondb implements an embedded document store that keeps a collection
of typed records in a single JSON file.

We implement:

1. Shapes, explicit descriptions of a record type: an ordered list of named
fields, each bound to a typed accessor and a field kind.

2. A codec that turns a record into a JSON value tree and back, driven by the
shape. No runtime reflection over struct declarations is involved.

3. Stores, in-memory collections loaded from a file on open and written back
in full after every change.

4. Indexed stores, which add a primary-key index with uniqueness enforcement
and O(1) lookups.

# Shapes

A shape is defined once, usually as a package-level variable:

	var itemShape = jsondb.DefineShape("Item", func(b *jsondb.ShapeBuilder[Item]) {
		jsondb.Field(b, "id", jsondb.UUID, func(r *Item) *uuid.UUID { return &r.ID })
		jsondb.Field(b, "name", jsondb.String, func(r *Item) *string { return &r.Name })
		jsondb.Field(b, "status", statusKind, func(r *Item) *Status { return &r.Status })
		jsondb.Field(b, "due", jsondb.Optional(jsondb.Time), func(r *Item) **time.Time { return &r.Due })
	})

Field kinds form a closed set: strings, integers, floats, booleans, UUIDs,
enumerations (persisted by stored value, not by name), times (RFC 3339 with
nanoseconds), optionals, sequences, string-keyed maps and nested shapes.

# File format

The file holds exactly one JSON array with one object per record. Object keys
follow field declaration order, and every field is present, optional ones as
null. A missing file is an empty store; no file is created until the first
save. Writes go to a temporary file which then replaces the target, so readers
never observe a partially written file.

Storage is pluggable ([Storage]): plain files ([OSStorage]), memory
([MemStorage]) or a Bolt database ([BoltStorage]). The array can also be
persisted as MessagePack ([MsgPack]).

# Concurrency

Stores do no locking. A store is meant to be used from one goroutine at a time;
callers sharing a store between goroutines must synchronize externally. Several
processes writing the same file race, and the last writer wins.

# Errors

Every failure is an [*Error]. Use [errors.Is] with the sentinel kinds
([ErrNotFound], [ErrDuplicateKey], [ErrMalformed], ...) to tell them apart, and
[errors.As] to get at the file path, field path and key.
*/
package jsondb
