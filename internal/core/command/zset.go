package command

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/yndnr/nskv/internal/storage/memory"
)

type scored struct {
	member string
	score  float64
}

// ranked returns the members ordered by score, then member.
func ranked(z map[string]float64) []scored {
	out := make([]scored, 0, len(z))
	for m, s := range z {
		out = append(out, scored{m, s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score < out[j].score
		}
		return out[i].member < out[j].member
	})
	return out
}

func parseScore(s string) (float64, bool) {
	switch strings.ToLower(s) {
	case "inf", "+inf":
		return math.Inf(1), true
	case "-inf":
		return math.Inf(-1), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

func formatScore(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return formatFloat(f)
}

func (e *Engine) zadd(args []string) Reply {
	pairs := args[1:]
	if len(pairs)%2 != 0 {
		return ErrSyntax
	}
	scores := make([]float64, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		f, ok := parseScore(pairs[i])
		if !ok {
			return ErrNotFloat
		}
		scores = append(scores, f)
	}

	ent, errReply := e.lookupOrCreate(args[0], memory.KindZSet, memory.NewZSet)
	if errReply != nil {
		return errReply
	}
	added := 0
	for i, f := range scores {
		m := pairs[2*i+1]
		if _, ok := ent.ZSet[m]; !ok {
			added++
		}
		ent.ZSet[m] = f
	}
	return Int(added)
}

func (e *Engine) zscore(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindZSet)
	if errReply != nil || ent == nil {
		return errReply
	}
	f, ok := ent.ZSet[args[1]]
	if !ok {
		return nil
	}
	return Bulk(formatScore(f))
}

func (e *Engine) zcard(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindZSet)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Int(0)
	}
	return Int(len(ent.ZSet))
}

// zrange implements ZRANGE key start stop [WITHSCORES] by rank.
func (e *Engine) zrange(args []string) Reply {
	start, err1 := strconv.Atoi(args[1])
	stop, err2 := strconv.Atoi(args[2])
	if err1 != nil || err2 != nil {
		return ErrNotInteger
	}
	withScores := false
	for _, opt := range args[3:] {
		if strings.ToUpper(opt) != "WITHSCORES" {
			return ErrSyntax
		}
		withScores = true
	}

	ent, errReply := e.lookup(args[0], memory.KindZSet)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Array{}
	}
	all := ranked(ent.ZSet)
	n := len(all)
	if start < 0 {
		start = max(n+start, 0)
	}
	if stop < 0 {
		stop = n + stop
	}
	if stop >= n {
		stop = n - 1
	}
	out := Array{}
	for i := start; i <= stop; i++ {
		out = append(out, Bulk(all[i].member))
		if withScores {
			out = append(out, Bulk(formatScore(all[i].score)))
		}
	}
	return out
}

// zpopmin replies member/score pairs, lowest scores first.
func (e *Engine) zpopmin(args []string) Reply {
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

	ent, errReply := e.lookup(args[0], memory.KindZSet)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return Array{}
	}
	all := ranked(ent.ZSet)
	if count > len(all) {
		count = len(all)
	}
	out := make(Array, 0, 2*count)
	for _, s := range all[:count] {
		delete(ent.ZSet, s.member)
		out = append(out, Bulk(s.member), Bulk(formatScore(s.score)))
	}
	e.dropIfEmpty(args[0], ent)
	return out
}

func (e *Engine) zunionstore(args []string) Reply {
	return e.zstore(args, func(sets []map[string]float64) map[string]float64 {
		out := make(map[string]float64)
		for _, z := range sets {
			for m, s := range z {
				out[m] += s
			}
		}
		return out
	})
}

func (e *Engine) zinterstore(args []string) Reply {
	return e.zstore(args, func(sets []map[string]float64) map[string]float64 {
		out := make(map[string]float64)
		if len(sets) == 0 {
			return out
		}
	next:
		for m, s := range sets[0] {
			sum := s
			for _, z := range sets[1:] {
				v, ok := z[m]
				if !ok {
					continue next
				}
				sum += v
			}
			out[m] = sum
		}
		return out
	})
}

// zstore implements the shared form dest numkeys key [key ...] with SUM
// aggregation. Plain sets count as sorted sets with score 1.
func (e *Engine) zstore(args []string, combine func([]map[string]float64) map[string]float64) Reply {
	dest := args[0]
	numKeys, err := strconv.Atoi(args[1])
	if err != nil || numKeys < 1 {
		return Error("ERR at least 1 input key is needed for this command")
	}
	if len(args) != 2+numKeys {
		return ErrSyntax
	}

	sets := make([]map[string]float64, 0, numKeys)
	for _, k := range args[2:] {
		ent, ok := e.store.Get(k)
		switch {
		case !ok:
			sets = append(sets, nil)
		case ent.Kind == memory.KindZSet:
			sets = append(sets, ent.ZSet)
		case ent.Kind == memory.KindSet:
			z := make(map[string]float64, len(ent.Set))
			for m := range ent.Set {
				z[m] = 1
			}
			sets = append(sets, z)
		default:
			return ErrWrongType
		}
	}

	result := combine(sets)
	if len(result) == 0 {
		e.store.Delete(dest)
		return Int(0)
	}
	ent := memory.NewZSet()
	ent.ZSet = result
	e.store.Put(dest, ent)
	return Int(len(result))
}
