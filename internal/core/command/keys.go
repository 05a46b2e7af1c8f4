package command

import (
	"strconv"
	"strings"

	"github.com/yndnr/nskv/internal/storage/memory"
)

func (e *Engine) ping(args []string) Reply {
	switch len(args) {
	case 0:
		return Status("PONG")
	case 1:
		return Bulk(args[0])
	default:
		return errArity("PING")
	}
}

func (e *Engine) echo(args []string) Reply {
	return Bulk(args[0])
}

func (e *Engine) selectDB(args []string) Reply {
	if args[0] != "0" {
		return Error("ERR DB index is out of range")
	}
	return OK
}

func (e *Engine) dbsize(_ []string) Reply {
	return Int(e.store.Len())
}

func (e *Engine) flush(_ []string) Reply {
	e.store.Flush()
	return OK
}

func (e *Engine) del(args []string) Reply {
	n := 0
	for _, k := range args {
		if e.store.Delete(k) {
			n++
		}
	}
	return Int(n)
}

func (e *Engine) exists(args []string) Reply {
	n := 0
	for _, k := range args {
		if e.store.Exists(k) {
			n++
		}
	}
	return Int(n)
}

func (e *Engine) typeOf(args []string) Reply {
	ent, ok := e.store.Get(args[0])
	if !ok {
		return Status("none")
	}
	return Status(ent.Kind.String())
}

// scanArgs holds the MATCH/COUNT/TYPE options shared by SCAN and HSCAN.
type scanArgs struct {
	cursor uint64
	match  string
	count  int
	kind   string
}

func parseScanArgs(args []string, allowType bool) (scanArgs, Reply) {
	var sa scanArgs
	c, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return sa, ErrInvalidCursor
	}
	sa.cursor = c

	rest := args[1:]
	for len(rest) > 0 {
		if len(rest) < 2 {
			return sa, ErrSyntax
		}
		switch strings.ToUpper(rest[0]) {
		case "MATCH":
			sa.match = rest[1]
		case "COUNT":
			n, err := strconv.Atoi(rest[1])
			if err != nil || n < 1 {
				return sa, ErrSyntax
			}
			sa.count = n
		case "TYPE":
			if !allowType {
				return sa, ErrSyntax
			}
			sa.kind = strings.ToLower(rest[1])
		default:
			return sa, ErrSyntax
		}
		rest = rest[2:]
	}
	return sa, nil
}

var kindNames = map[string]memory.Kind{
	"string":    memory.KindString,
	"hash":      memory.KindHash,
	"set":       memory.KindSet,
	"zset":      memory.KindZSet,
	"rejson-rl": memory.KindJSON,
}

func (e *Engine) scan(args []string) Reply {
	sa, errReply := parseScanArgs(args, true)
	if errReply != nil {
		return errReply
	}
	f := memory.ScanFilter{Match: sa.match}
	if sa.kind != "" {
		k, ok := kindNames[sa.kind]
		if !ok {
			return Error("ERR unknown type name '" + sa.kind + "'")
		}
		f.Kind = k
	}

	next, keys := e.store.Scan(sa.cursor, sa.count, f)
	return Array{Bulk(strconv.FormatUint(next, 10)), bulkStrings(keys)}
}
