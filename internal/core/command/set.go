package command

import (
	"sort"
	"strconv"

	"github.com/yndnr/nskv/internal/storage/memory"
)

func (e *Engine) sadd(args []string) Reply {
	ent, errReply := e.lookupOrCreate(args[0], memory.KindSet, memory.NewSet)
	if errReply != nil {
		return errReply
	}
	added := 0
	for _, m := range args[1:] {
		if _, ok := ent.Set[m]; !ok {
			ent.Set[m] = struct{}{}
			added++
		}
	}
	return Int(added)
}

func (e *Engine) srem(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindSet)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Int(0)
	}
	n := 0
	for _, m := range args[1:] {
		if _, ok := ent.Set[m]; ok {
			delete(ent.Set, m)
			n++
		}
	}
	e.dropIfEmpty(args[0], ent)
	return Int(n)
}

func (e *Engine) smembers(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindSet)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Array{}
	}
	return bulkStrings(sortedMembers(ent.Set))
}

func (e *Engine) scard(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindSet)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Int(0)
	}
	return Int(len(ent.Set))
}

func (e *Engine) sismember(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindSet)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Int(0)
	}
	if _, ok := ent.Set[args[1]]; ok {
		return Int(1)
	}
	return Int(0)
}

// spop removes members in sorted order, which keeps results reproducible.
// Without a count it returns a single member or null.
func (e *Engine) spop(args []string) Reply {
	if len(args) > 2 {
		return ErrSyntax
	}
	count := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 0 {
			return ErrNotInteger
		}
		count = n
	}

	ent, errReply := e.lookup(args[0], memory.KindSet)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		if len(args) == 2 {
			return Array{}
		}
		return nil
	}

	members := sortedMembers(ent.Set)
	if count > len(members) {
		count = len(members)
	}
	popped := members[:count]
	for _, m := range popped {
		delete(ent.Set, m)
	}
	e.dropIfEmpty(args[0], ent)

	if len(args) == 1 {
		return Bulk(popped[0])
	}
	return bulkStrings(popped)
}

func sortedMembers(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for m := range s {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
