package nskv

import (
	"context"
	"encoding/json"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Module commands whose third positional argument is a JSON value.
var valueCommands = map[string]bool{
	"JSON.SET":       true,
	"JSON.MERGE":     true,
	"JSON.ARRAPPEND": true,
	"JSON.ARRINSERT": true,
	"JSON.ARRINDEX":  true,
	"JSON.STRAPPEND": true,
}

// Value commands for which a nil value means JSON null rather than "no value".
var nullableCommands = map[string]bool{
	"JSON.SET":       true,
	"JSON.MERGE":     true,
	"JSON.ARRAPPEND": true,
	"JSON.ARRINSERT": true,
}

// raw issues a module command. Positional arguments are key, path, value...;
// the key is namespaced and values are JSON-encoded. JSON.ARRINSERT takes
// (key, path, value, index) from the caller and sends (key, path, index, value).
func (c *Client) raw(ctx context.Context, t Target, method, key string, args []any) (any, error) {
	name := strings.ToUpper(method)

	pos := make([]any, 0, len(args)+1)
	pos = append(pos, c.ns.Key(key))
	pos = append(pos, args...)

	if valueCommands[name] && len(pos) > 2 {
		last := 2
		if name == "JSON.ARRAPPEND" {
			last = len(pos) - 1
		}
		for i := 2; i <= last; i++ {
			v, err := encodeValue(name, pos[i])
			if err != nil {
				return nil, ErrInvalidArgument.WithDetails(method + " value").Wrap(err)
			}
			pos[i] = v
		}
	}
	if name == "JSON.ARRINSERT" && len(pos) > 3 {
		pos[2], pos[3] = pos[3], pos[2]
	}

	wire := make([]any, 0, len(pos)+1)
	wire = append(wire, method)
	wire = append(wire, pos...)
	return c.issue(ctx, t, method, key, wire)
}

func encodeValue(name string, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		if nullableCommands[name] {
			return "null", nil
		}
		return nil, nil
	case json.RawMessage:
		return string(val), nil
	case []byte:
		return string(val), nil
	}
	b, err := jsonAPI.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
