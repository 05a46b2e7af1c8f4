package cmap

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

func TestNewWithShards(t *testing.T) {
	tests := []struct {
		input    int
		expected int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{2, 2},
		{8, 8},
		{32, 32},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			m := NewWithShards[int](tt.input)
			if m.ShardCount() != tt.expected {
				t.Errorf("NewWithShards(%d) shard count = %d, want %d",
					tt.input, m.ShardCount(), tt.expected)
			}
		})
	}
}

func TestSetGetDelete(t *testing.T) {
	m := New[int]()

	m.Set("key1", 100)
	m.Set("key2", 200)

	if v, ok := m.Get("key1"); !ok || v != 100 {
		t.Errorf("Get(key1) = (%d, %v), want (100, true)", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Error("Get(missing) found a value")
	}

	if !m.Delete("key1") {
		t.Error("Delete(key1) = false, want true")
	}
	if m.Delete("key1") {
		t.Error("second Delete(key1) = true, want false")
	}
	if m.Has("key1") {
		t.Error("key1 still present after Delete")
	}
	if m.Count() != 1 {
		t.Errorf("Count() = %d, want 1", m.Count())
	}
}

func TestSetIfAbsent(t *testing.T) {
	m := New[string]()

	if !m.SetIfAbsent("k", "a") {
		t.Fatal("first SetIfAbsent = false")
	}
	if m.SetIfAbsent("k", "b") {
		t.Fatal("second SetIfAbsent = true")
	}
	if v, _ := m.Get("k"); v != "a" {
		t.Errorf("value = %q, want %q", v, "a")
	}
}

func TestUpdate(t *testing.T) {
	m := New[int]()

	inc := func(v int, _ bool) (int, bool) { return v + 1, true }
	m.Update("n", inc)
	m.Update("n", inc)
	if v, _ := m.Get("n"); v != 2 {
		t.Errorf("n = %d, want 2", v)
	}

	m.Update("n", func(int, bool) (int, bool) { return 0, false })
	if m.Has("n") {
		t.Error("Update with keep=false left the key in place")
	}

	// removing an absent key is a no-op
	m.Update("absent", func(int, bool) (int, bool) { return 0, false })
	if m.Count() != 0 {
		t.Errorf("Count() = %d, want 0", m.Count())
	}
}

func TestShardIndexStable(t *testing.T) {
	a := NewWithShards[int](64)
	b := NewWithShards[int](64)
	for _, k := range []string{"", "a", "tenant:1", "{tag}x"} {
		if a.ShardIndex(k) != b.ShardIndex(k) {
			t.Errorf("ShardIndex(%q) differs between maps", k)
		}
		if i := a.ShardIndex(k); i < 0 || i >= 64 {
			t.Errorf("ShardIndex(%q) = %d out of range", k, i)
		}
	}
}

func TestRangeAndKeys(t *testing.T) {
	m := New[int]()
	for i := 0; i < 50; i++ {
		m.Set(fmt.Sprintf("k%02d", i), i)
	}

	keys := m.Keys()
	sort.Strings(keys)
	if len(keys) != 50 || keys[0] != "k00" || keys[49] != "k49" {
		t.Fatalf("Keys() = %d keys, first %q", len(keys), keys[0])
	}

	seen := 0
	m.Range(func(string, int) bool {
		seen++
		return seen < 10
	})
	if seen != 10 {
		t.Errorf("Range stopped after %d, want 10", seen)
	}

	m.Clear()
	if m.Count() != 0 {
		t.Errorf("Count() after Clear = %d", m.Count())
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := New[int]()
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d-%d", g, i)
				m.Set(key, i)
				m.Get(key)
				m.Update("shared", func(v int, _ bool) (int, bool) { return v + 1, true })
			}
		}(g)
	}
	wg.Wait()

	if v, _ := m.Get("shared"); v != 1600 {
		t.Errorf("shared = %d, want 1600", v)
	}
	if m.Count() != 1601 {
		t.Errorf("Count() = %d, want 1601", m.Count())
	}
}
