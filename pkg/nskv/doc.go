// Package nskv is a namespaced access layer over a remote key-value store.
//
// A single store instance is shared by many tenants; every Client carries a
// key prefix and rewrites each key it touches, keeping cluster tags in
// front so slot placement is unaffected. On top of plain command dispatch
// the package provides:
//
//   - Scan: cursor-driven enumeration of keys or hash fields with per-group,
//     per-round or accumulating consumption
//   - Exec: pipelined or transactional batches with per-command results
//   - JSONGet/JSONSet: path-addressed document access with a fallback
//     and rerun protocol
//   - Purge/Drain: bulk deletion by name, by pattern, or by popping a
//     collection
//
// Every command runs against an explicit Target: Direct executes on the
// connection immediately, a *Batch queues it until Batch.Exec.
//
//	c := nskv.New(conn, "billing:")
//	b := c.NewBatch(nskv.Transaction)
//	c.Do(ctx, b, "HSET", "invoice:42", "status", "paid")
//	c.Do(ctx, b, "SREM", "unpaid", "42")
//	results, err := b.Exec(ctx)
//
// The connection itself is supplied by the caller; see the redisconn and
// memconn subpackages.
package nskv
