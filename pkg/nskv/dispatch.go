package nskv

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Command describes one store command.
type Command struct {
	Method string
	Key    string
	Args   []any
}

// Cmd builds a Command.
func Cmd(method, key string, args ...any) Command {
	return Command{Method: method, Key: key, Args: args}
}

// Do issues method on key against t. Module commands (a dot in the method
// name, e.g. JSON.SET) go through the raw router. With a *Batch target the
// command is queued and Do returns (nil, nil). A null reply is (nil, nil).
func (c *Client) Do(ctx context.Context, t Target, method, key string, args ...any) (any, error) {
	if strings.Contains(method, ".") {
		return c.raw(ctx, t, method, key, args)
	}

	wire := make([]any, 0, len(args)+2)
	wire = append(wire, method, c.ns.Key(key))
	wire = append(wire, c.ns.Args(method, key, args)...)
	return c.issue(ctx, t, method, key, wire)
}

// Command issues a keyless command, such as PING or DBSIZE, unmodified.
func (c *Client) Command(ctx context.Context, t Target, args ...any) (any, error) {
	if len(args) == 0 {
		return nil, ErrInvalidArgument.WithDetails("empty command")
	}
	method := fmt.Sprint(args[0])
	return c.issue(ctx, t, method, "", args)
}

func (c *Client) issue(ctx context.Context, t Target, method, key string, wire []any) (any, error) {
	if b := batchOf(t); b != nil {
		b.queue(ctx, wire)
		return nil, nil
	}

	start := time.Now()
	v, err := c.conn.Do(ctx, wire...)
	c.obs.ObserveCommand(strings.ToUpper(method), time.Since(start), err)
	if err != nil {
		if key == "" {
			return nil, fmt.Errorf("%s: %w", method, err)
		}
		return nil, fmt.Errorf("%s %s: %w", method, key, err)
	}
	return v, nil
}
