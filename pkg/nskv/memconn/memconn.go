// Package memconn implements nskv.Conn over an in-process command engine.
//
// It speaks the same command set as the development server without a
// network hop, which makes it the connection of choice for tests and for
// embedding a private store in a single process. Replies are shaped the
// way go-redis shapes them: status and bulk replies as string, integers as
// int64, arrays as []any, null as nil.
package memconn

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yndnr/nskv/internal/core/command"
	"github.com/yndnr/nskv/pkg/nskv"
)

// Conn is an in-process nskv.Conn.
type Conn struct {
	eng *command.Engine
}

var _ nskv.Conn = (*Conn)(nil)

// New returns a Conn over a fresh, empty engine.
func New() *Conn {
	return &Conn{eng: command.New(nil)}
}

// NewWithEngine returns a Conn sharing eng, e.g. with a running server.
func NewWithEngine(eng *command.Engine) *Conn {
	return &Conn{eng: eng}
}

// Engine returns the engine behind the connection.
func (c *Conn) Engine() *command.Engine {
	return c.eng
}

// Do executes one command.
func (c *Conn) Do(ctx context.Context, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return convert(c.eng.Exec(Argv(args)))
}

// Begin starts a batch. Transactions run through ExecMulti and are atomic
// with respect to every other command on the engine.
func (c *Conn) Begin(mode nskv.BatchMode) nskv.Pending {
	return &pending{eng: c.eng, mode: mode}
}

type pending struct {
	eng  *command.Engine
	mode nskv.BatchMode
	cmds [][]string
}

func (p *pending) Queue(_ context.Context, args ...any) {
	p.cmds = append(p.cmds, Argv(args))
}

func (p *pending) Len() int {
	return len(p.cmds)
}

func (p *pending) Exec(ctx context.Context) ([]nskv.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cmds := p.cmds
	p.cmds = nil

	replies := make([]command.Reply, len(cmds))
	if p.mode == nskv.Transaction {
		switch r := p.eng.ExecMulti(cmds).(type) {
		case command.Array:
			copy(replies, r)
		case command.Error:
			return nil, r
		default:
			return nil, fmt.Errorf("memconn: unexpected transaction reply %T", r)
		}
	} else {
		for i, argv := range cmds {
			replies[i] = p.eng.Exec(argv)
		}
	}

	results := make([]nskv.Result, len(replies))
	for i, r := range replies {
		v, err := convert(r)
		results[i] = nskv.Result{Value: v, Err: err}
	}
	return results, nil
}

// convert maps an engine reply to the (value, error) shape of nskv.Conn.
func convert(r command.Reply) (any, error) {
	switch v := r.(type) {
	case nil:
		return nil, nil
	case command.Error:
		return nil, v
	case command.Status:
		return string(v), nil
	case command.Bulk:
		return string(v), nil
	case command.Int:
		return int64(v), nil
	case command.Array:
		out := make([]any, len(v))
		for i, item := range v {
			val, err := convert(item)
			if err != nil {
				out[i] = err
				continue
			}
			out[i] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("memconn: unexpected reply %T", r)
	}
}

// Argv renders command arguments the way a RESP client does.
func Argv(args []any) []string {
	argv := make([]string, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case string:
			argv[i] = v
		case []byte:
			argv[i] = string(v)
		case nil:
			argv[i] = ""
		case int:
			argv[i] = strconv.Itoa(v)
		case int64:
			argv[i] = strconv.FormatInt(v, 10)
		case uint64:
			argv[i] = strconv.FormatUint(v, 10)
		case float64:
			argv[i] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			if v {
				argv[i] = "1"
			} else {
				argv[i] = "0"
			}
		default:
			argv[i] = fmt.Sprint(v)
		}
	}
	return argv
}
