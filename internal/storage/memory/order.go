package memory

import (
	"sort"
	"sync"
)

// orderIndex records the insertion order of live keys.
type orderIndex struct {
	mu    sync.Mutex
	next  uint64
	seqs  []uint64 // ascending, may hold deleted sequence numbers
	keys  map[uint64]string
	byKey map[string]uint64
}

func newOrderIndex() *orderIndex {
	return &orderIndex{
		next:  1,
		keys:  make(map[uint64]string),
		byKey: make(map[string]uint64),
	}
}

func (o *orderIndex) add(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.byKey[key]; ok {
		return
	}
	seq := o.next
	o.next++
	o.seqs = append(o.seqs, seq)
	o.keys[seq] = key
	o.byKey[key] = seq
}

func (o *orderIndex) remove(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	seq, ok := o.byKey[key]
	if !ok {
		return
	}
	delete(o.byKey, key)
	delete(o.keys, seq)
	if len(o.seqs) > 64 && len(o.keys) < len(o.seqs)/2 {
		o.compact()
	}
}

func (o *orderIndex) compact() {
	live := o.seqs[:0]
	for _, s := range o.seqs {
		if _, ok := o.keys[s]; ok {
			live = append(live, s)
		}
	}
	o.seqs = live
}

// walk visits up to count live keys starting at sequence cursor. It
// returns the cursor to continue from, or 0 when no live key remains.
func (o *orderIndex) walk(cursor uint64, count int, fn func(key string)) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	i := sort.Search(len(o.seqs), func(i int) bool { return o.seqs[i] >= cursor })
	seen := 0
	for ; i < len(o.seqs); i++ {
		key, ok := o.keys[o.seqs[i]]
		if !ok {
			continue
		}
		if seen == count {
			return o.seqs[i]
		}
		fn(key)
		seen++
	}
	return 0
}

func (o *orderIndex) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seqs = nil
	o.keys = make(map[uint64]string)
	o.byKey = make(map[string]uint64)
}
