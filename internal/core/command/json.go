package command

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/yndnr/nskv/internal/storage/memory"
)

// Documents keep numbers as json.Number so they round-trip unchanged.
var docJSON = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
	UseNumber:   true,
}.Froze()

const errNoKey = Error("ERR could not perform this operation on a key that doesn't exist")

func errNoPath(p docPath) Error {
	return Error("ERR Path '" + p.raw + "' does not exist")
}

func decodeValue(s string) (any, Reply) {
	var v any
	if err := docJSON.UnmarshalFromString(s, &v); err != nil {
		return nil, Error("ERR invalid JSON value: " + err.Error())
	}
	return v, nil
}

func encodeValue(v any) string {
	s, err := docJSON.MarshalToString(v)
	if err != nil {
		return "null"
	}
	return s
}

// jsonSet implements JSON.SET key path value [NX|XX].
func (e *Engine) jsonSet(args []string) Reply {
	key := args[0]
	p, err := parsePath(args[1])
	if err != nil {
		return err
	}
	v, errReply := decodeValue(args[2])
	if errReply != nil {
		return errReply
	}
	var nx, xx bool
	for _, opt := range args[3:] {
		switch strings.ToUpper(opt) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		default:
			return ErrSyntax
		}
	}
	if nx && xx {
		return ErrSyntax
	}

	ent, errReply := e.lookup(key, memory.KindJSON)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		if !p.root() {
			return Error("ERR new objects must be created at the root")
		}
		if xx {
			return nil
		}
		e.store.Put(key, memory.NewDoc(v))
		return OK
	}

	_, exists := resolve(ent.Doc, p.segs)
	if (nx && exists) || (xx && !exists) {
		return nil
	}
	if p.root() {
		ent.Doc = v
		return OK
	}
	if !assign(ent.Doc, p.segs, v) {
		return nil
	}
	return OK
}

// jsonGet implements JSON.GET key [INDENT s] [NEWLINE s] [SPACE s] [path ...].
// Formatting options are accepted and ignored.
func (e *Engine) jsonGet(args []string) Reply {
	key := args[0]
	var paths []string
	for i := 1; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "INDENT", "NEWLINE", "SPACE":
			i++
		default:
			paths = append(paths, args[i])
		}
	}

	ent, errReply := e.lookup(key, memory.KindJSON)
	if errReply != nil || ent == nil {
		return errReply
	}
	if len(paths) == 0 {
		return Bulk(encodeValue(ent.Doc))
	}

	if len(paths) == 1 {
		v, errReply := getOne(ent.Doc, paths[0])
		if errReply != nil {
			return errReply
		}
		return Bulk(encodeValue(v))
	}
	out := make(map[string]any, len(paths))
	for _, raw := range paths {
		v, errReply := getOne(ent.Doc, raw)
		if errReply != nil {
			return errReply
		}
		out[raw] = v
	}
	return Bulk(encodeValue(out))
}

func getOne(doc any, raw string) (any, Reply) {
	p, err := parsePath(raw)
	if err != nil {
		return nil, err
	}
	v, ok := resolve(doc, p.segs)
	if p.legacy {
		if !ok {
			return nil, errNoPath(p)
		}
		return v, nil
	}
	if !ok {
		return []any{}, nil
	}
	return []any{v}, nil
}

// jsonDel implements JSON.DEL key [path]; deleting the root removes the key.
func (e *Engine) jsonDel(args []string) Reply {
	key := args[0]
	raw := "$"
	if len(args) > 1 {
		raw = args[1]
	}
	p, err := parsePath(raw)
	if err != nil {
		return err
	}
	ent, errReply := e.lookup(key, memory.KindJSON)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Int(0)
	}
	if p.root() {
		e.store.Delete(key)
		return Int(1)
	}
	doc, ok := remove(ent.Doc, p.segs)
	if !ok {
		return Int(0)
	}
	ent.Doc = doc
	return Int(1)
}

func (e *Engine) jsonType(args []string) Reply {
	raw := "$"
	if len(args) > 1 {
		raw = args[1]
	}
	ent, errReply := e.lookup(args[0], memory.KindJSON)
	if errReply != nil || ent == nil {
		return errReply
	}
	p, err := parsePath(raw)
	if err != nil {
		return err
	}
	v, ok := resolve(ent.Doc, p.segs)
	if !ok {
		if p.legacy {
			return nil
		}
		return Array{}
	}
	name := typeName(v)
	if p.legacy {
		return Status(name)
	}
	return Array{Bulk(name)}
}

func typeName(v any) string {
	switch n := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	case interface{ String() string }:
		if strings.ContainsAny(n.String(), ".eE") {
			return "number"
		}
		return "integer"
	default:
		return "number"
	}
}

// arrayOp applies fn to the array at path and replies with its new length,
// wrapped in an array for "$" paths.
func (e *Engine) arrayOp(key, raw string, fn func(arr []any) ([]any, Reply)) Reply {
	p, err := parsePath(raw)
	if err != nil {
		return err
	}
	ent, errReply := e.lookup(key, memory.KindJSON)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return errNoKey
	}

	fail := func(r Error) Reply {
		if p.legacy {
			return r
		}
		return Array{nil}
	}
	v, ok := resolve(ent.Doc, p.segs)
	if !ok {
		return fail(errNoPath(p))
	}
	arr, ok := v.([]any)
	if !ok {
		return fail(Error("ERR wrong type of path value - expected array"))
	}
	arr, errReply = fn(arr)
	if errReply != nil {
		return errReply
	}
	if p.root() {
		ent.Doc = arr
	} else {
		assign(ent.Doc, p.segs, arr)
	}
	if p.legacy {
		return Int(len(arr))
	}
	return Array{Int(len(arr))}
}

func decodeValues(raw []string) ([]any, Reply) {
	vals := make([]any, len(raw))
	for i, s := range raw {
		v, errReply := decodeValue(s)
		if errReply != nil {
			return nil, errReply
		}
		vals[i] = v
	}
	return vals, nil
}

// jsonArrAppend implements JSON.ARRAPPEND key path value [value ...].
func (e *Engine) jsonArrAppend(args []string) Reply {
	vals, errReply := decodeValues(args[2:])
	if errReply != nil {
		return errReply
	}
	return e.arrayOp(args[0], args[1], func(arr []any) ([]any, Reply) {
		return append(arr, vals...), nil
	})
}

// jsonArrInsert implements JSON.ARRINSERT key path index value [value ...].
func (e *Engine) jsonArrInsert(args []string) Reply {
	idx, err := strconv.Atoi(args[2])
	if err != nil {
		return ErrNotInteger
	}
	vals, errReply := decodeValues(args[3:])
	if errReply != nil {
		return errReply
	}
	return e.arrayOp(args[0], args[1], func(arr []any) ([]any, Reply) {
		i := idx
		if i < 0 {
			i += len(arr)
		}
		if i < 0 || i > len(arr) {
			return nil, Error("ERR index out of bounds")
		}
		out := make([]any, 0, len(arr)+len(vals))
		out = append(out, arr[:i]...)
		out = append(out, vals...)
		out = append(out, arr[i:]...)
		return out, nil
	})
}

// jsonArrLen implements JSON.ARRLEN key [path].
func (e *Engine) jsonArrLen(args []string) Reply {
	raw := "$"
	if len(args) > 1 {
		raw = args[1]
	}
	ent, errReply := e.lookup(args[0], memory.KindJSON)
	if errReply != nil || ent == nil {
		return errReply
	}
	p, err := parsePath(raw)
	if err != nil {
		return err
	}
	v, ok := resolve(ent.Doc, p.segs)
	arr, isArr := v.([]any)
	switch {
	case ok && isArr && p.legacy:
		return Int(len(arr))
	case ok && isArr:
		return Array{Int(len(arr))}
	case p.legacy:
		return errNoPath(p)
	default:
		return Array{nil}
	}
}
