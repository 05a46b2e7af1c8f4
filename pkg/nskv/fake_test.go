package nskv

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// recordingConn records every command and answers from a script.
type recordingConn struct {
	mu      sync.Mutex
	calls   [][]any
	replies []any // consumed in order by Do; an error value is returned as the error
	batches []*recordingPending

	batchResults []Result // handed to the next pending batch
}

func (c *recordingConn) Do(_ context.Context, args ...any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, args)
	if len(c.replies) == 0 {
		return "OK", nil
	}
	r := c.replies[0]
	c.replies = c.replies[1:]
	if err, ok := r.(error); ok {
		return nil, err
	}
	return r, nil
}

func (c *recordingConn) Begin(mode BatchMode) Pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &recordingPending{mode: mode, results: c.batchResults}
	c.batchResults = nil
	c.batches = append(c.batches, p)
	return p
}

type recordingPending struct {
	mode    BatchMode
	queued  [][]any
	results []Result // returned by Exec when set
	err     error
	execs   int
}

func (p *recordingPending) Queue(_ context.Context, args ...any) {
	p.queued = append(p.queued, args)
}

func (p *recordingPending) Len() int {
	return len(p.queued)
}

func (p *recordingPending) Exec(context.Context) ([]Result, error) {
	p.execs++
	if p.err != nil {
		return nil, p.err
	}
	if p.results != nil {
		return p.results, nil
	}
	out := make([]Result, len(p.queued))
	for i := range out {
		out[i] = Result{Value: "OK"}
	}
	return out, nil
}

func newTestClient(conn Conn, opts ...Option) *Client {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(conn, "app:", opts...)
}
