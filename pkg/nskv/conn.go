package nskv

import "context"

// BatchMode selects how a batch reaches the store.
type BatchMode int

const (
	// Pipeline sends queued commands in one round trip; each succeeds or
	// fails on its own.
	Pipeline BatchMode = iota
	// Transaction wraps queued commands in MULTI/EXEC so they apply
	// all together or not at all.
	Transaction
)

// String returns the mode name.
func (m BatchMode) String() string {
	if m == Transaction {
		return "transaction"
	}
	return "pipeline"
}

// Result is the outcome of one command of a batch.
type Result struct {
	Value any
	Err   error
}

// Conn is the store connection the layer drives. Implementations must
// report a null reply as (nil, nil) and must be safe for concurrent use.
type Conn interface {
	// Do executes one command immediately.
	Do(ctx context.Context, args ...any) (any, error)
	// Begin starts a pending batch in the given mode.
	Begin(mode BatchMode) Pending
}

// Pending is a connection-level queue of commands awaiting one round trip.
type Pending interface {
	Queue(ctx context.Context, args ...any)
	Len() int
	// Exec sends the queue and returns one Result per queued command, in
	// order. The error is reserved for failures of the round trip itself.
	Exec(ctx context.Context) ([]Result, error)
}
