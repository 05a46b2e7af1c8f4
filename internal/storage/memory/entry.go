package memory

// Kind is the type of value a key holds.
type Kind uint8

const (
	KindString Kind = iota + 1
	KindHash
	KindSet
	KindZSet
	KindJSON
)

// String returns the name reported by the TYPE command.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindHash:
		return "hash"
	case KindSet:
		return "set"
	case KindZSet:
		return "zset"
	case KindJSON:
		return "ReJSON-RL"
	default:
		return "none"
	}
}

// Entry is the value stored under one key. Only the field matching Kind
// is used.
type Entry struct {
	Kind Kind
	Str  string
	Hash map[string]string
	Set  map[string]struct{}
	ZSet map[string]float64
	Doc  any
}

// NewString returns a string entry.
func NewString(v string) *Entry {
	return &Entry{Kind: KindString, Str: v}
}

// NewHash returns an empty hash entry.
func NewHash() *Entry {
	return &Entry{Kind: KindHash, Hash: make(map[string]string)}
}

// NewSet returns an empty set entry.
func NewSet() *Entry {
	return &Entry{Kind: KindSet, Set: make(map[string]struct{})}
}

// NewZSet returns an empty sorted set entry.
func NewZSet() *Entry {
	return &Entry{Kind: KindZSet, ZSet: make(map[string]float64)}
}

// NewDoc returns a JSON document entry.
func NewDoc(doc any) *Entry {
	return &Entry{Kind: KindJSON, Doc: doc}
}

// Empty reports whether a collection entry has no elements left. Empty
// collections are removed from the keyspace.
func (e *Entry) Empty() bool {
	switch e.Kind {
	case KindHash:
		return len(e.Hash) == 0
	case KindSet:
		return len(e.Set) == 0
	case KindZSet:
		return len(e.ZSet) == 0
	default:
		return false
	}
}
