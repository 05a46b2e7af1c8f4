// Package command executes store commands against the in-memory keyspace.
//
// The Engine understands the subset of the store's command set the nskv
// layer relies on: strings, hashes, sets, sorted sets, JSON documents,
// SCAN/HSCAN, and atomic execution of queued commands. Replies are typed
// values (Status, Error, Int, Bulk, Array, or nil for a null reply) that
// the RESP server writes to the wire and memconn hands to callers.
//
// Commands run one at a time, as on the real store, so a queued batch
// executed with ExecMulti is atomic with respect to every other command.
package command
