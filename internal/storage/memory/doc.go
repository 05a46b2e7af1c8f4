// Package memory provides the in-process keyspace behind the development
// server and the memconn adapter.
//
// Keys map to typed entries (string, hash, set, sorted set, JSON document)
// held in a sharded cmap. An order index assigns each new key an increasing
// sequence number; SCAN cursors are positions in that order, so keys that
// exist for a whole iteration are reported exactly once no matter how the
// keyspace changes in between.
//
// Entries are not locked individually. Callers that mutate an entry in
// place serialize access themselves, as the command engine does.
package memory
