package memory

import (
	"github.com/yndnr/nskv/pkg/cmap"
)

// DefaultScanCount is the number of keys a scan round examines when the
// caller gives no hint.
const DefaultScanCount = 10

// Store is the keyspace.
type Store struct {
	keys  *cmap.Map[*Entry]
	order *orderIndex
}

// Option configures the Store.
type Option func(*storeOptions)

type storeOptions struct {
	shards int
}

// WithShards sets the shard count of the keyspace map.
func WithShards(n int) Option {
	return func(o *storeOptions) {
		o.shards = n
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	o := storeOptions{shards: cmap.DefaultShardCount}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		keys:  cmap.NewWithShards[*Entry](o.shards),
		order: newOrderIndex(),
	}
}

// Get returns the entry stored under key.
func (s *Store) Get(key string) (*Entry, bool) {
	return s.keys.Get(key)
}

// Put stores e under key, replacing any previous entry. A replaced key
// keeps its place in the scan order.
func (s *Store) Put(key string, e *Entry) {
	if s.keys.SetIfAbsent(key, e) {
		s.order.add(key)
		return
	}
	s.keys.Set(key, e)
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(key string) bool {
	if !s.keys.Delete(key) {
		return false
	}
	s.order.remove(key)
	return true
}

// Exists reports whether key exists.
func (s *Store) Exists(key string) bool {
	return s.keys.Has(key)
}

// Len returns the number of keys.
func (s *Store) Len() int {
	return s.keys.Count()
}

// Flush removes every key.
func (s *Store) Flush() {
	s.keys.Clear()
	s.order.reset()
}

// ScanFilter narrows the keys a scan round reports.
type ScanFilter struct {
	Match string // glob; empty matches everything
	Kind  Kind   // zero matches every kind
}

func (f ScanFilter) accept(key string, e *Entry) bool {
	if f.Kind != 0 && e.Kind != f.Kind {
		return false
	}
	return f.Match == "" || Match(f.Match, key)
}

// Scan examines up to count keys from cursor and returns those accepted by
// f, with the cursor of the next round. A returned cursor of 0 means the
// iteration is complete. Like the real store, a round may report no keys
// while the iteration continues.
func (s *Store) Scan(cursor uint64, count int, f ScanFilter) (uint64, []string) {
	if count <= 0 {
		count = DefaultScanCount
	}
	var keys []string
	next := s.order.walk(cursor, count, func(key string) {
		if e, ok := s.keys.Get(key); ok && f.accept(key, e) {
			keys = append(keys, key)
		}
	})
	return next, keys
}
