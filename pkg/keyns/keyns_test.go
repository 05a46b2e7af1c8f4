package keyns

import (
	"reflect"
	"testing"
)

func TestNamespacer_Key(t *testing.T) {
	ns := New("app:")

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"plain", "user:1", "app:user:1"},
		{"already prefixed", "app:user:1", "app:user:1"},
		{"tagged", "{t1}user", "{t1}app:user"},
		{"tagged already prefixed", "{t1}app:user", "{t1}app:user"},
		{"empty tag is not a tag", "{}user", "app:{}user"},
		{"unterminated tag", "{t1user", "app:{t1user"},
		{"empty key", "", "app:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ns.Key(tt.key); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestNamespacer_Idempotent(t *testing.T) {
	ns := New("tenant-a:")
	keys := []string{"", "x", "tenant-a:x", "{a}x", "{a}tenant-a:x", "{}x", "{a", "a}b", "tenant-a"}
	for _, k := range keys {
		once := ns.Key(k)
		twice := ns.Key(once)
		if once != twice {
			t.Errorf("Key(Key(%q)) = %q, want %q", k, twice, once)
		}
	}
}

func TestNamespacer_TagPreserved(t *testing.T) {
	ns := New("svc:")
	keys := []string{"{user1000}.following", "{user1000}.followers", "{x}"}
	for _, k := range keys {
		tag, rest, ok := SplitTag(k)
		if !ok {
			t.Fatalf("SplitTag(%q) found no tag", k)
		}
		got := ns.Key(k)
		if got != tag+ns.Key(rest) {
			t.Errorf("Key(%q) = %q, want tag %q followed by %q", k, got, tag, ns.Key(rest))
		}
		if Slot(got) != Slot(k) {
			t.Errorf("Slot(%q) = %d, want %d", got, Slot(got), Slot(k))
		}
	}
}

func TestNamespacer_ZeroValue(t *testing.T) {
	var ns Namespacer
	if got := ns.Key("{t}k"); got != "{t}k" {
		t.Errorf("zero Namespacer changed key: %q", got)
	}
	if got := ns.Strip("k"); got != "k" {
		t.Errorf("zero Namespacer Strip changed key: %q", got)
	}
}

func TestNamespacer_Strip(t *testing.T) {
	ns := New("app:")
	tests := map[string]string{
		"app:user":     "user",
		"{t}app:user":  "{t}user",
		"other:user":   "other:user",
		"{t}other:key": "{t}other:key",
	}
	for in, want := range tests {
		if got := ns.Strip(in); got != want {
			t.Errorf("Strip(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNamespacer_Args(t *testing.T) {
	ns := New("app:")

	t.Run("multi key with tag", func(t *testing.T) {
		args := []any{"{t}b", "plain", 3, "{t}c"}
		got := ns.Args("zunionstore", "{t}dest", args)
		want := []any{"{t}app:b", "plain", 3, "{t}app:c"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Args() = %v, want %v", got, want)
		}
		if args[0] != "{t}b" {
			t.Error("Args() modified its input")
		}
	})

	t.Run("primary key without tag", func(t *testing.T) {
		args := []any{"{t}b"}
		got := ns.Args("DEL", "a", args)
		if !reflect.DeepEqual(got, args) {
			t.Errorf("Args() = %v, want untouched %v", got, args)
		}
	})

	t.Run("single key command", func(t *testing.T) {
		args := []any{"{t}field", "v"}
		got := ns.Args("HSET", "{t}h", args)
		if !reflect.DeepEqual(got, args) {
			t.Errorf("Args() = %v, want untouched %v", got, args)
		}
	})
}

func TestSlot(t *testing.T) {
	if got := Slot("foo"); got != 12182 {
		t.Errorf("Slot(foo) = %d, want 12182", got)
	}
	if got := Slot("123456789"); got != 0x31C3 {
		t.Errorf("Slot(123456789) = %d, want %d", got, 0x31C3)
	}
	if Slot("{user1000}.following") != Slot("{user1000}.followers") {
		t.Error("keys sharing a tag must share a slot")
	}
	if Slot("foo{}{bar}") != Slot("foo{}{bar}") {
		t.Error("Slot must be deterministic")
	}
	if Slot("{bar") != int(crc16("{bar"))%SlotCount {
		t.Error("unterminated tag must hash the whole key")
	}
}
