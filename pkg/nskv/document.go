package nskv

import (
	"context"
	"strings"
)

// RootPath is the document root.
const RootPath = "$"

// NormalizePath anchors a document path under the root. Empty, "$" and "."
// mean the root; "a.b" and ".a.b" become "$.a.b".
func NormalizePath(path string) string {
	switch {
	case path == "" || path == RootPath || path == ".":
		return RootPath
	case strings.HasPrefix(path, "$"):
		return path
	case strings.HasPrefix(path, ".") || strings.HasPrefix(path, "["):
		return RootPath + path
	default:
		return RootPath + "." + path
	}
}

// GetOptions controls Client.JSONGet.
type GetOptions struct {
	// Transform replaces a non-null result with its output.
	Transform func(ctx context.Context, v any) (any, error)

	// Fallback produces a value when the result is null.
	Fallback func(ctx context.Context, key, path string) (any, error)

	// Rerun discards the fallback's value and repeats the read once,
	// expecting the fallback to have written the document.
	Rerun bool

	// EmptyArrayNull turns an empty result (path absent) into null.
	EmptyArrayNull bool

	// KeepArray keeps a one-element result wrapped.
	KeepArray bool

	// Default, when non-nil, replaces an undecodable payload instead of
	// failing with ErrDecode.
	Default any
}

// JSONGet reads path of the document at key. A missing key reads as nil;
// an absent path reads as an empty []any.
func (c *Client) JSONGet(ctx context.Context, key, path string, opts GetOptions) (any, error) {
	return c.jsonGet(ctx, key, NormalizePath(path), opts, false)
}

func (c *Client) jsonGet(ctx context.Context, key, path string, opts GetOptions, rerun bool) (any, error) {
	reply, err := c.Do(ctx, Direct, "JSON.GET", key, path)
	if err != nil {
		return nil, err
	}

	v, err := decodeDocument(reply)
	if err != nil {
		if opts.Default == nil {
			return nil, ErrDecode.WithDetails(key + " " + path).Wrap(err)
		}
		c.logger.Warn("undecodable document replaced by default", "key", key, "path", path, "error", err)
		v = opts.Default
	}

	if arr, ok := v.([]any); ok {
		switch {
		case len(arr) == 0 && opts.EmptyArrayNull:
			v = nil
		case len(arr) == 1 && !opts.KeepArray:
			v = arr[0]
		}
	}

	if v != nil && opts.Transform != nil {
		if v, err = opts.Transform(ctx, v); err != nil {
			return nil, err
		}
	}

	if v != nil || opts.Fallback == nil || rerun {
		return v, nil
	}

	c.obs.ObserveFallback(opts.Rerun)
	produced, err := opts.Fallback(ctx, key, path)
	if err != nil {
		return nil, err
	}
	if !opts.Rerun {
		return produced, nil
	}
	c.logger.Debug("document fallback ran, reading again", "key", key, "path", path)
	return c.jsonGet(ctx, key, path, opts, true)
}

func decodeDocument(reply any) (any, error) {
	var raw []byte
	switch v := reply.(type) {
	case nil:
		return nil, nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return v, nil
	}
	var out any
	if err := jsonAPI.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MirrorWriter receives a query and its parameters after a mirrored
// document set succeeds.
type MirrorWriter interface {
	Mirror(ctx context.Context, query string, params []any) error
}

// Mirror describes the side-write made after a successful JSONSet.
type Mirror struct {
	Query  string
	Params []any
	// Produce derives the parameters from the written data. It takes
	// precedence over Params.
	Produce func(data any) ([]any, error)
}

// SetOptions controls Client.JSONSet.
type SetOptions struct {
	NX     bool // only if the path does not exist
	XX     bool // only if the path exists
	Mirror *Mirror
}

// JSONSet writes data at path of the document at key. The reply is nil
// when an NX or XX condition prevented the write; the mirror runs only
// when the write happened.
func (c *Client) JSONSet(ctx context.Context, key, path string, data any, opts SetOptions) (any, error) {
	if opts.NX && opts.XX {
		return nil, ErrInvalidArgument.WithDetails("NX and XX are exclusive")
	}
	args := []any{NormalizePath(path), data}
	switch {
	case opts.NX:
		args = append(args, "NX")
	case opts.XX:
		args = append(args, "XX")
	}

	reply, err := c.Do(ctx, Direct, "JSON.SET", key, args...)
	if err != nil || reply == nil || opts.Mirror == nil {
		return reply, err
	}

	if c.mirror == nil {
		return reply, ErrMirror.WithDetails("no mirror writer configured")
	}
	params := opts.Mirror.Params
	if opts.Mirror.Produce != nil {
		if params, err = opts.Mirror.Produce(data); err != nil {
			return reply, ErrMirror.WithDetails(key).Wrap(err)
		}
	}
	if err := c.mirror.Mirror(ctx, opts.Mirror.Query, params); err != nil {
		return reply, ErrMirror.WithDetails(key).Wrap(err)
	}
	return reply, nil
}

// JSONDel deletes path of the document at key and returns the number of
// values removed.
func (c *Client) JSONDel(ctx context.Context, key, path string) (int64, error) {
	reply, err := c.Do(ctx, Direct, "JSON.DEL", key, NormalizePath(path))
	if err != nil {
		return 0, err
	}
	n, _ := reply.(int64)
	return n, nil
}

// JSONArrAppend appends values to the array at path and returns the
// reply, which carries the new length per matched path.
func (c *Client) JSONArrAppend(ctx context.Context, key, path string, values ...any) (any, error) {
	if len(values) == 0 {
		return nil, ErrInvalidArgument.WithDetails("JSON.ARRAPPEND without values")
	}
	args := append([]any{NormalizePath(path)}, values...)
	return c.Do(ctx, Direct, "JSON.ARRAPPEND", key, args...)
}

// JSONArrInsert inserts value before index in the array at path.
func (c *Client) JSONArrInsert(ctx context.Context, key, path string, value any, index int64) (any, error) {
	return c.Do(ctx, Direct, "JSON.ARRINSERT", key, NormalizePath(path), value, index)
}
