package nskv

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestExec_SingleCommandShortcut(t *testing.T) {
	conn := &recordingConn{replies: []any{"v"}}
	c := newTestClient(conn)

	results, err := c.Exec(context.Background(), []Command{Cmd("GET", "k")}, Transaction)
	if err != nil {
		t.Fatal(err)
	}
	if len(conn.batches) != 0 {
		t.Error("single command opened a batch")
	}
	if !reflect.DeepEqual(results, []Result{{Value: "v"}}) {
		t.Errorf("results = %+v", results)
	}
	if !reflect.DeepEqual(conn.calls[0], []any{"GET", "app:k"}) {
		t.Errorf("wire = %v", conn.calls[0])
	}
}

func TestExec_Batch(t *testing.T) {
	conn := &recordingConn{}
	c := newTestClient(conn)

	cmds := []Command{
		Cmd("SET", "a", "1"),
		Cmd("HSET", "{t}h", "f", "v"),
		Cmd("JSON.SET", "d", "$", map[string]any{"x": 1}),
	}
	results, err := c.Exec(context.Background(), cmds, Transaction)
	if err != nil {
		t.Fatal(err)
	}
	if len(conn.batches) != 1 || conn.batches[0].mode != Transaction || conn.batches[0].execs != 1 {
		t.Fatalf("batches = %+v", conn.batches)
	}
	want := [][]any{
		{"SET", "app:a", "1"},
		{"HSET", "{t}app:h", "f", "v"},
		{"JSON.SET", "app:d", "$", `{"x":1}`},
	}
	if !reflect.DeepEqual(conn.batches[0].queued, want) {
		t.Errorf("queued = %v", conn.batches[0].queued)
	}
	if len(results) != 3 || len(conn.calls) != 0 {
		t.Errorf("results = %d, direct calls = %d", len(results), len(conn.calls))
	}

	if r, err := c.Exec(context.Background(), nil, Pipeline); r != nil || err != nil {
		t.Errorf("empty Exec = (%v, %v)", r, err)
	}
}

func TestExec_RoundTripFailure(t *testing.T) {
	conn := &recordingConn{}
	c := newTestClient(conn)
	down := errors.New("connection reset")

	b := c.NewBatch(Pipeline)
	c.Do(context.Background(), b, "GET", "a")
	conn.batches[0].err = down

	_, err := b.Exec(context.Background())
	if !errors.Is(err, ErrBatch) || !errors.Is(err, down) {
		t.Fatalf("err = %v, want ErrBatch wrapping the transport error", err)
	}
	if _, err := b.Exec(context.Background()); !errors.Is(err, ErrBatchSpent) {
		t.Errorf("second Exec err = %v, want ErrBatchSpent", err)
	}
}

func TestExec_ResultCountMismatch(t *testing.T) {
	conn := &recordingConn{}
	c := newTestClient(conn)

	b := c.NewBatch(Pipeline)
	c.Do(context.Background(), b, "GET", "a")
	c.Do(context.Background(), b, "GET", "b")
	conn.batches[0].results = []Result{{Value: "x"}}

	if _, err := b.Exec(context.Background()); !errors.Is(err, ErrMalformedReply) {
		t.Errorf("err = %v, want ErrMalformedReply", err)
	}
}

func TestExecValues(t *testing.T) {
	wrong := errors.New("WRONGTYPE")
	conn := &recordingConn{batchResults: []Result{{Value: "1"}, {Err: wrong}, {Value: nil}}}
	c := newTestClient(conn)

	cmds := []Command{Cmd("GET", "a"), Cmd("HGET", "a", "f"), Cmd("GET", "c")}
	values, err := c.ExecValues(context.Background(), cmds, Pipeline)
	if !reflect.DeepEqual(values, []any{"1", nil, nil}) {
		t.Errorf("values = %v", values)
	}

	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *BatchError", err)
	}
	if !errors.Is(err, ErrBatch) || !errors.Is(err, wrong) {
		t.Errorf("BatchError does not match ErrBatch and the command error: %v", err)
	}
	if len(be.Failures) != 1 || be.Failures[0].Index != 1 || be.Failures[0].Method != "HGET" {
		t.Errorf("failures = %+v", be.Failures)
	}
}

func TestDiscardErrorsAndCheckResults(t *testing.T) {
	results := []Result{{Value: "a"}, {Value: "b", Err: errors.New("x")}}
	if got := DiscardErrors(results); !reflect.DeepEqual(got, []any{"a", nil}) {
		t.Errorf("DiscardErrors = %v", got)
	}
	if err := CheckResults(nil, []Result{{Value: 1}}); err != nil {
		t.Errorf("CheckResults on clean results = %v", err)
	}
	if err := CheckResults(nil, results); err == nil {
		t.Error("CheckResults missed a failure")
	}
}

func TestBatch_Identity(t *testing.T) {
	c := newTestClient(&recordingConn{})
	a, b := c.NewBatch(Pipeline), c.NewBatch(Transaction)
	if a.ID() == b.ID() || len(a.ID()) != 26 {
		t.Errorf("batch ids %q %q", a.ID(), b.ID())
	}
	if a.Mode().String() != "pipeline" || b.Mode().String() != "transaction" {
		t.Errorf("modes %v %v", a.Mode(), b.Mode())
	}
	if r, err := a.Exec(context.Background()); r != nil || err != nil {
		t.Errorf("empty batch Exec = (%v, %v)", r, err)
	}
}
