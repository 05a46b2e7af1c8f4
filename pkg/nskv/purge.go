package nskv

import (
	"context"
	"fmt"
	"strings"
)

const (
	// FieldSeparator splits a purge name into a hash key and its fields.
	FieldSeparator = "|"

	// Wildcard marks a purge name as a pattern.
	Wildcard = "*"

	purgeScanCount = 1000
	drainChunk     = 500
)

// Purge deletes every name. A name holding the wildcard is a key pattern;
// a name holding FieldSeparator deletes hash fields ("hash|f1|f2");
// anything else deletes the key. All deletions run as one batch.
func (c *Client) Purge(ctx context.Context, names ...string) error {
	var cmds []Command
	for _, name := range names {
		if strings.Contains(name, Wildcard) {
			_, err := c.Scan(ctx, name, ScanOptions{
				Count: purgeScanCount,
				EachRound: func(_ context.Context, keys []string) error {
					for _, k := range keys {
						cmds = append(cmds, Cmd("DEL", k))
					}
					return nil
				},
			})
			if err != nil {
				return fmt.Errorf("purge %q: %w", name, err)
			}
			continue
		}

		parts := strings.Split(name, FieldSeparator)
		if len(parts) == 1 {
			cmds = append(cmds, Cmd("DEL", name))
			continue
		}
		fields := make([]any, 0, len(parts)-1)
		for _, f := range parts[1:] {
			fields = append(fields, f)
		}
		cmds = append(cmds, Cmd("HDEL", parts[0], fields...))
	}

	if len(cmds) == 0 {
		return nil
	}
	c.logger.Debug("purging", "names", len(names), "commands", len(cmds))
	return c.runAll(ctx, cmds)
}

// Drain pops the set (or sorted set) at key until it is empty and deletes
// one key per popped member. With renamePattern the member replaces its
// wildcard to form the key name; otherwise the member is the key name.
func (c *Client) Drain(ctx context.Context, key string, sorted bool, renamePattern string) error {
	pop := "SPOP"
	if sorted {
		pop = "ZPOPMIN"
	}

	total := 0
	for {
		reply, err := c.Do(ctx, Direct, pop, key, drainChunk)
		if err != nil {
			return err
		}
		members, err := stringList(reply)
		if err != nil {
			return fmt.Errorf("%s %s: %w", pop, key, err)
		}
		if sorted {
			members = evens(members)
		}
		if len(members) == 0 {
			c.logger.Debug("drained", "key", key, "members", total)
			return nil
		}

		cmds := make([]Command, len(members))
		for i, m := range members {
			name := m
			if renamePattern != "" {
				name = strings.ReplaceAll(renamePattern, Wildcard, m)
			}
			cmds[i] = Cmd("DEL", name)
		}
		if err := c.runAll(ctx, cmds); err != nil {
			return err
		}
		total += len(members)
	}
}

func (c *Client) runAll(ctx context.Context, cmds []Command) error {
	results, err := c.Exec(ctx, cmds, Pipeline)
	if err != nil {
		return err
	}
	return CheckResults(cmds, results)
}

// evens keeps members of a member/score list.
func evens(in []string) []string {
	out := make([]string, 0, (len(in)+1)/2)
	for i := 0; i < len(in); i += 2 {
		out = append(out, in[i])
	}
	return out
}

func stringList(reply any) ([]string, error) {
	switch v := reply.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []any:
		return appendItems(make([]string, 0, len(v)), v, true)
	}
	return nil, ErrMalformedReply.WithDetails(fmt.Sprintf("list reply %T", reply))
}

// appendItems flattens one level of nesting: RESP3 servers answer
// ZPOPMIN with a count as [member, score] pairs.
func appendItems(out []string, items []any, nested bool) ([]string, error) {
	for _, it := range items {
		switch s := it.(type) {
		case string:
			out = append(out, s)
		case []byte:
			out = append(out, string(s))
		case int64, float64:
			out = append(out, fmt.Sprint(s))
		case []any:
			if !nested {
				return nil, ErrMalformedReply.WithDetails("list nested too deep")
			}
			var err error
			if out, err = appendItems(out, s, false); err != nil {
				return nil, err
			}
		default:
			return nil, ErrMalformedReply.WithDetails(fmt.Sprintf("list item %T", it))
		}
	}
	return out, nil
}
