package command

import (
	"sort"
	"strconv"

	"github.com/yndnr/nskv/internal/storage/memory"
)

func (e *Engine) hset(args []string) Reply {
	if len(args)%2 != 1 {
		return errArity("HSET")
	}
	ent, errReply := e.lookupOrCreate(args[0], memory.KindHash, memory.NewHash)
	if errReply != nil {
		return errReply
	}
	added := 0
	for i := 1; i < len(args); i += 2 {
		if _, ok := ent.Hash[args[i]]; !ok {
			added++
		}
		ent.Hash[args[i]] = args[i+1]
	}
	return Int(added)
}

func (e *Engine) hget(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindHash)
	if errReply != nil || ent == nil {
		return errReply
	}
	v, ok := ent.Hash[args[1]]
	if !ok {
		return nil
	}
	return Bulk(v)
}

func (e *Engine) hdel(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindHash)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Int(0)
	}
	n := 0
	for _, f := range args[1:] {
		if _, ok := ent.Hash[f]; ok {
			delete(ent.Hash, f)
			n++
		}
	}
	e.dropIfEmpty(args[0], ent)
	return Int(n)
}

func (e *Engine) hgetall(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindHash)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Array{}
	}
	fields := sortedFields(ent.Hash)
	out := make(Array, 0, 2*len(fields))
	for _, f := range fields {
		out = append(out, Bulk(f), Bulk(ent.Hash[f]))
	}
	return out
}

func (e *Engine) hlen(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindHash)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Int(0)
	}
	return Int(len(ent.Hash))
}

// hscan walks the fields in sorted order; the cursor is a position in that
// order, so fields added or removed mid-iteration may shift the walk.
func (e *Engine) hscan(args []string) Reply {
	sa, errReply := parseScanArgs(args[1:], false)
	if errReply != nil {
		return errReply
	}
	ent, errReply := e.lookup(args[0], memory.KindHash)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Array{Bulk("0"), Array{}}
	}
	count := sa.count
	if count <= 0 {
		count = memory.DefaultScanCount
	}

	fields := sortedFields(ent.Hash)
	start := sa.cursor
	if start > uint64(len(fields)) {
		start = uint64(len(fields))
	}
	end := start + uint64(count)
	if end > uint64(len(fields)) {
		end = uint64(len(fields))
	}

	out := Array{}
	for _, f := range fields[start:end] {
		if sa.match == "" || memory.Match(sa.match, f) {
			out = append(out, Bulk(f), Bulk(ent.Hash[f]))
		}
	}
	next := end
	if end == uint64(len(fields)) {
		next = 0
	}
	return Array{Bulk(strconv.FormatUint(next, 10)), out}
}

func sortedFields(h map[string]string) []string {
	fields := make([]string, 0, len(h))
	for f := range h {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
