package nskv

import (
	"context"
	"fmt"
	"strconv"
)

// ScanOptions controls Client.Scan.
type ScanOptions struct {
	// HashKey switches from a keyspace scan to a field scan of this hash.
	HashKey string

	// Each is called per group, consuming each round from its end: one key
	// for a keyspace scan, a field and its value for a hash scan.
	Each func(ctx context.Context, group []string) error

	// EachRound is called once per round with the whole batch. It takes
	// precedence over Each.
	EachRound func(ctx context.Context, batch []string) error

	// Return accumulates every item into ScanResult.Items when no
	// callback is set.
	Return bool

	// One stops after the first round that yielded any items. Rounds that
	// match nothing do not count, so a sparse keyspace may take several
	// round trips; ScanResult.Cursor resumes from where One stopped.
	One bool

	// Cursor resumes a previous scan. Zero starts from the beginning.
	Cursor uint64

	// Count is the per-round work hint passed to the store.
	Count int64
}

// ScanResult reports how a scan ended.
type ScanResult struct {
	Items []string
	// Cursor is the point to resume from; zero when Complete.
	Cursor uint64
	Rounds int
	// Complete is set when the store reported the end of the iteration.
	Complete bool
	// Anomaly is set when the scan stopped on a malformed or empty reply;
	// Cursor then holds the last good cursor.
	Anomaly bool
}

// Scan iterates the keyspace, or the fields of opts.HashKey, matching
// pattern. For keyspace scans the pattern is namespaced; an empty pattern
// matches every key of the namespace. Keys are reported as stored, with
// their prefix. An error returned by a callback aborts the scan.
func (c *Client) Scan(ctx context.Context, pattern string, opts ScanOptions) (*ScanResult, error) {
	cmd, group := "SCAN", 1
	if opts.HashKey != "" {
		cmd, group = "HSCAN", 2
	} else {
		if pattern == "" {
			pattern = "*"
		}
		pattern = c.ns.Key(pattern)
	}

	res := &ScanResult{Cursor: opts.Cursor}
	cursor := opts.Cursor
	for {
		wire := []any{cmd}
		if opts.HashKey != "" {
			wire = append(wire, c.ns.Key(opts.HashKey))
		}
		wire = append(wire, strconv.FormatUint(cursor, 10))
		if pattern != "" {
			wire = append(wire, "MATCH", pattern)
		}
		if opts.Count > 0 {
			wire = append(wire, "COUNT", opts.Count)
		}

		reply, err := c.conn.Do(ctx, wire...)
		if err != nil {
			return res, fmt.Errorf("%s %d: %w", cmd, cursor, err)
		}
		next, items, ok := parseScanReply(reply)
		if !ok {
			res.Anomaly = true
			c.obs.ObserveScanRound(0, true)
			c.logger.Warn("scan stopped on malformed reply",
				"command", cmd, "cursor", cursor, "rounds", res.Rounds)
			return res, nil
		}
		res.Rounds++
		c.obs.ObserveScanRound(len(items), false)

		if err := consume(ctx, opts, group, items, res); err != nil {
			return res, err
		}

		cursor = next
		res.Cursor = next
		if next == 0 {
			res.Complete = true
			return res, nil
		}
		if opts.One && len(items) > 0 {
			return res, nil
		}
	}
}

func consume(ctx context.Context, opts ScanOptions, group int, items []string, res *ScanResult) error {
	switch {
	case opts.EachRound != nil:
		if len(items) == 0 {
			return nil
		}
		return opts.EachRound(ctx, items)
	case opts.Each != nil:
		for len(items) > 0 {
			n := min(group, len(items))
			g := items[len(items)-n:]
			items = items[:len(items)-n]
			if err := opts.Each(ctx, g); err != nil {
				return err
			}
		}
	case opts.Return:
		res.Items = append(res.Items, items...)
	}
	return nil
}

// parseScanReply splits a [cursor, [items...]] reply.
func parseScanReply(reply any) (uint64, []string, bool) {
	parts, ok := reply.([]any)
	if !ok || len(parts) != 2 {
		return 0, nil, false
	}
	var cursor uint64
	switch v := parts[0].(type) {
	case string:
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, nil, false
		}
		cursor = n
	case []byte:
		n, err := strconv.ParseUint(string(v), 10, 64)
		if err != nil {
			return 0, nil, false
		}
		cursor = n
	case int64:
		if v < 0 {
			return 0, nil, false
		}
		cursor = uint64(v)
	default:
		return 0, nil, false
	}
	raw, ok := parts[1].([]any)
	if !ok {
		return 0, nil, false
	}
	items := make([]string, 0, len(raw))
	for _, it := range raw {
		switch v := it.(type) {
		case string:
			items = append(items, v)
		case []byte:
			items = append(items, string(v))
		default:
			return 0, nil, false
		}
	}
	return cursor, items, true
}

// ScanKeys returns every key matching pattern with the namespace stripped.
func (c *Client) ScanKeys(ctx context.Context, pattern string) ([]string, error) {
	res, err := c.Scan(ctx, pattern, ScanOptions{Return: true})
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(res.Items))
	for i, k := range res.Items {
		keys[i] = c.ns.Strip(k)
	}
	return keys, nil
}
