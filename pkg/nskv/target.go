package nskv

// Target is where a dispatched command executes: Direct, or a *Batch
// that queues it. A nil Target, or a nil *Batch, means Direct.
type Target interface {
	target()
}

type direct struct{}

func (direct) target() {}

// Direct executes commands on the connection immediately.
var Direct Target = direct{}

func (*Batch) target() {}

// batchOf returns the batch behind t, or nil for direct execution.
func batchOf(t Target) *Batch {
	b, ok := t.(*Batch)
	if !ok || b == nil {
		return nil
	}
	return b
}
