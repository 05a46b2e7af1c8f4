// Package mirror keeps a local, append-only log of mirrored document writes.
//
// A Log implements nskv.MirrorWriter: every JSONSet carrying a mirror
// description ends up as one Record holding the query and its parameters.
// Records live in Badger under time-ordered ULID keys, are encoded as
// protobuf Struct values and may be sealed at rest with an adaptive cipher.
package mirror
