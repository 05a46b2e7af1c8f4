package command

import (
	"strconv"
	"strings"
)

// docPath is a parsed document path. Paths starting with "$" reply with an
// array of matches; legacy paths (".a.b" or "a.b") reply with the value.
type docPath struct {
	raw    string
	legacy bool
	segs   []pathSeg
}

type pathSeg struct {
	key     string
	index   int
	isIndex bool
}

func (p docPath) root() bool {
	return len(p.segs) == 0
}

func parsePath(raw string) (docPath, error) {
	p := docPath{raw: raw}
	rest := raw
	switch {
	case strings.HasPrefix(raw, "$"):
		rest = raw[1:]
	case raw == "." || raw == "":
		p.legacy = true
		return p, nil
	default:
		p.legacy = true
		if !strings.HasPrefix(raw, ".") && !strings.HasPrefix(raw, "[") {
			rest = "." + raw
		}
	}

	for len(rest) > 0 {
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			name := rest[:end]
			if name == "" || name == "*" || strings.HasPrefix(rest, ".") {
				return p, Error("ERR unsupported path '" + raw + "'")
			}
			p.segs = append(p.segs, pathSeg{key: name})
			rest = rest[end:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return p, Error("ERR invalid path '" + raw + "'")
			}
			inner := rest[1:end]
			rest = rest[end+1:]
			if len(inner) >= 2 && (inner[0] == '"' || inner[0] == '\'') && inner[len(inner)-1] == inner[0] {
				p.segs = append(p.segs, pathSeg{key: inner[1 : len(inner)-1]})
				continue
			}
			n, err := strconv.Atoi(inner)
			if err != nil {
				return p, Error("ERR unsupported path '" + raw + "'")
			}
			p.segs = append(p.segs, pathSeg{index: n, isIndex: true})
		default:
			return p, Error("ERR invalid path '" + raw + "'")
		}
	}
	return p, nil
}

// arrayIndex resolves a possibly negative index against length n.
func arrayIndex(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

func resolve(doc any, segs []pathSeg) (any, bool) {
	cur := doc
	for _, s := range segs {
		switch c := cur.(type) {
		case map[string]any:
			if s.isIndex {
				return nil, false
			}
			v, ok := c[s.key]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			if !s.isIndex {
				return nil, false
			}
			i, ok := arrayIndex(s.index, len(c))
			if !ok {
				return nil, false
			}
			cur = c[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

// assign stores v at segs inside doc. Object members are created, array
// elements must exist. The root is not assignable here.
func assign(doc any, segs []pathSeg, v any) bool {
	parent, ok := resolve(doc, segs[:len(segs)-1])
	if !ok {
		return false
	}
	last := segs[len(segs)-1]
	switch c := parent.(type) {
	case map[string]any:
		if last.isIndex {
			return false
		}
		c[last.key] = v
		return true
	case []any:
		if !last.isIndex {
			return false
		}
		i, ok := arrayIndex(last.index, len(c))
		if !ok {
			return false
		}
		c[i] = v
		return true
	}
	return false
}

// remove deletes the value at segs and returns the resulting document.
func remove(doc any, segs []pathSeg) (any, bool) {
	parentSegs := segs[:len(segs)-1]
	parent, ok := resolve(doc, parentSegs)
	if !ok {
		return doc, false
	}
	last := segs[len(segs)-1]
	switch c := parent.(type) {
	case map[string]any:
		if last.isIndex {
			return doc, false
		}
		if _, ok := c[last.key]; !ok {
			return doc, false
		}
		delete(c, last.key)
		return doc, true
	case []any:
		if !last.isIndex {
			return doc, false
		}
		i, ok := arrayIndex(last.index, len(c))
		if !ok {
			return doc, false
		}
		shrunk := append(append([]any{}, c[:i]...), c[i+1:]...)
		if len(parentSegs) == 0 {
			return shrunk, true
		}
		return doc, assign(doc, parentSegs, shrunk)
	}
	return doc, false
}
