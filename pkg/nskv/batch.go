package nskv

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Batch is a pending queue of commands executed in one round trip. Pass it
// as the Target of Do to queue a command. A Batch is owned by one
// goroutine and executes once.
type Batch struct {
	c       *Client
	id      ulid.ULID
	mode    BatchMode
	pending Pending
	methods []string
	spent   bool
}

// NewBatch starts an empty batch in the given mode.
func (c *Client) NewBatch(mode BatchMode) *Batch {
	return &Batch{
		c:       c,
		id:      ulid.Make(),
		mode:    mode,
		pending: c.conn.Begin(mode),
	}
}

// ID returns the batch identifier used in log lines.
func (b *Batch) ID() string {
	return b.id.String()
}

// Mode returns the batch mode.
func (b *Batch) Mode() BatchMode {
	return b.mode
}

// Len returns the number of queued commands.
func (b *Batch) Len() int {
	return b.pending.Len()
}

func (b *Batch) queue(ctx context.Context, wire []any) {
	b.methods = append(b.methods, fmt.Sprint(wire[0]))
	b.pending.Queue(ctx, wire...)
}

// Exec sends the queued commands and returns one Result per command in
// queue order. The error is non-nil only when the round trip itself fails.
func (b *Batch) Exec(ctx context.Context) ([]Result, error) {
	if b.spent {
		return nil, ErrBatchSpent.WithDetails(b.ID())
	}
	b.spent = true

	n := b.pending.Len()
	if n == 0 {
		return nil, nil
	}

	start := time.Now()
	results, err := b.pending.Exec(ctx)
	d := time.Since(start)
	b.c.obs.ObserveBatch(b.mode, n, d, err)
	if err != nil {
		b.c.logger.Warn("batch failed",
			"batch_id", b.ID(), "mode", b.mode.String(), "size", n, "error", err)
		return nil, ErrBatch.WithDetails(b.mode.String() + " " + b.ID()).Wrap(err)
	}
	if len(results) != n {
		return nil, ErrMalformedReply.WithDetails(
			fmt.Sprintf("batch %s: %d results for %d commands", b.ID(), len(results), n))
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	b.c.logger.Debug("batch executed",
		"batch_id", b.ID(), "mode", b.mode.String(), "size", n, "failed", failed, "duration", d)
	return results, nil
}

// Exec runs cmds as one batch of the given mode and returns one Result per
// command in submission order. A single command is dispatched directly
// instead. The error is reserved for failures of the round trip itself;
// per-command failures are carried in the results.
func (c *Client) Exec(ctx context.Context, cmds []Command, mode BatchMode) ([]Result, error) {
	switch len(cmds) {
	case 0:
		return nil, nil
	case 1:
		v, err := c.Do(ctx, Direct, cmds[0].Method, cmds[0].Key, cmds[0].Args...)
		return []Result{{Value: v, Err: err}}, nil
	}

	b := c.NewBatch(mode)
	for i, cmd := range cmds {
		if _, err := c.Do(ctx, b, cmd.Method, cmd.Key, cmd.Args...); err != nil {
			return nil, fmt.Errorf("queue #%d: %w", i, err)
		}
	}
	return b.Exec(ctx)
}

// ExecValues runs cmds like Exec and returns the bare values. If any
// command failed the values are still returned, together with a
// *BatchError naming each failure.
func (c *Client) ExecValues(ctx context.Context, cmds []Command, mode BatchMode) ([]any, error) {
	results, err := c.Exec(ctx, cmds, mode)
	if err != nil {
		return nil, err
	}
	return DiscardErrors(results), CheckResults(cmds, results)
}

// DiscardErrors returns the values of results, dropping any per-command
// errors. Failed commands yield nil.
func DiscardErrors(results []Result) []any {
	values := make([]any, len(results))
	for i, r := range results {
		if r.Err == nil {
			values[i] = r.Value
		}
	}
	return values
}
