package command

import (
	"strconv"
	"strings"
)

// Reply is one of Status, Error, Int, Bulk, Array, or nil for a null reply.
type Reply any

// Status is a simple string reply.
type Status string

// Error is an error reply. The first word is the error kind, e.g. ERR or
// WRONGTYPE.
type Error string

// Error implements the error interface.
func (e Error) Error() string {
	return string(e)
}

// Int is an integer reply.
type Int int64

// Bulk is a bulk string reply.
type Bulk string

// Array is an array reply.
type Array []Reply

// OK is the standard success reply.
const OK = Status("OK")

const (
	ErrWrongType     = Error("WRONGTYPE Operation against a key holding the wrong kind of value")
	ErrSyntax        = Error("ERR syntax error")
	ErrNotInteger    = Error("ERR value is not an integer or out of range")
	ErrNotFloat      = Error("ERR value is not a valid float")
	ErrInvalidCursor = Error("ERR invalid cursor")
	ErrNoExpiration  = Error("ERR key expiration is not supported")
	ErrExecAbort     = Error("EXECABORT Transaction discarded because of previous errors.")
)

func errArity(name string) Error {
	return Error("ERR wrong number of arguments for '" + strings.ToLower(name) + "' command")
}

func errUnknown(name string) Error {
	return Error("ERR unknown command '" + name + "'")
}

func bulkStrings(items []string) Array {
	out := make(Array, len(items))
	for i, s := range items {
		out[i] = Bulk(s)
	}
	return out
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
