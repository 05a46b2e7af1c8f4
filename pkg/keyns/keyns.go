package keyns

import "strings"

// Namespacer prefixes logical keys. The zero value is a pass-through.
type Namespacer struct {
	prefix string
}

// New creates a Namespacer for the given prefix.
func New(prefix string) Namespacer {
	return Namespacer{prefix: prefix}
}

// Prefix returns the configured prefix.
func (n Namespacer) Prefix() string {
	return n.prefix
}

// Key returns the namespaced form of key.
func (n Namespacer) Key(key string) string {
	if n.prefix == "" {
		return key
	}
	if tag, rest, ok := SplitTag(key); ok {
		return tag + n.plain(rest)
	}
	return n.plain(key)
}

func (n Namespacer) plain(key string) string {
	if strings.HasPrefix(key, n.prefix) {
		return key
	}
	return n.prefix + key
}

// Strip removes the namespace from a key returned by the store.
// Keys outside the namespace are returned unchanged.
func (n Namespacer) Strip(key string) string {
	if n.prefix == "" {
		return key
	}
	if tag, rest, ok := SplitTag(key); ok {
		return tag + strings.TrimPrefix(rest, n.prefix)
	}
	return strings.TrimPrefix(key, n.prefix)
}

// Args applies the multi-key rule for commands whose extra key arguments
// must share the primary key's slot. When method is one of those commands
// and key carries a cluster tag, every string argument that itself starts
// with a tag is namespaced. Other arguments are returned untouched.
// The input slice is never modified.
func (n Namespacer) Args(method, key string, args []any) []any {
	if n.prefix == "" || !IsMultiKey(method) || !HasTag(key) {
		return args
	}
	out := make([]any, len(args))
	for i, a := range args {
		s, ok := a.(string)
		if ok && HasTag(s) {
			out[i] = n.Key(s)
			continue
		}
		out[i] = a
	}
	return out
}

// multiKey lists commands whose additional arguments are keys bound to the
// primary key's slot.
var multiKey = map[string]struct{}{
	"DEL":         {},
	"UNLINK":      {},
	"ZUNIONSTORE": {},
	"ZINTERSTORE": {},
	"ZDIFFSTORE":  {},
	"ZRANGESTORE": {},
}

// IsMultiKey reports whether method takes slot-bound extra key arguments.
func IsMultiKey(method string) bool {
	_, ok := multiKey[strings.ToUpper(method)]
	return ok
}

// HasTag reports whether key begins with a non-empty cluster tag.
func HasTag(key string) bool {
	_, _, ok := SplitTag(key)
	return ok
}

// SplitTag splits a leading "{tag}" from key. ok is false when key does not
// start with a non-empty tag.
func SplitTag(key string) (tag, rest string, ok bool) {
	if len(key) < 3 || key[0] != '{' {
		return "", key, false
	}
	end := strings.IndexByte(key, '}')
	if end < 2 {
		return "", key, false
	}
	return key[:end+1], key[end+1:], true
}
