package command

import (
	"strings"
	"sync"

	"github.com/yndnr/nskv/internal/storage/memory"
)

type handler func(e *Engine, args []string) Reply

type spec struct {
	// arity counts the command name; negative means "at least".
	arity   int
	handler handler
}

var table map[string]spec

func init() {
	table = map[string]spec{
		"PING":     {-1, (*Engine).ping},
		"ECHO":     {2, (*Engine).echo},
		"SELECT":   {2, (*Engine).selectDB},
		"DBSIZE":   {1, (*Engine).dbsize},
		"FLUSHDB":  {-1, (*Engine).flush},
		"FLUSHALL": {-1, (*Engine).flush},
		"DEL":      {-2, (*Engine).del},
		"UNLINK":   {-2, (*Engine).del},
		"EXISTS":   {-2, (*Engine).exists},
		"TYPE":     {2, (*Engine).typeOf},
		"SCAN":     {-2, (*Engine).scan},

		"GET": {2, (*Engine).get},
		"SET": {-3, (*Engine).set},

		"HSET":    {-4, (*Engine).hset},
		"HGET":    {3, (*Engine).hget},
		"HDEL":    {-3, (*Engine).hdel},
		"HGETALL": {2, (*Engine).hgetall},
		"HLEN":    {2, (*Engine).hlen},
		"HSCAN":   {-3, (*Engine).hscan},

		"SADD":      {-3, (*Engine).sadd},
		"SREM":      {-3, (*Engine).srem},
		"SMEMBERS":  {2, (*Engine).smembers},
		"SCARD":     {2, (*Engine).scard},
		"SISMEMBER": {3, (*Engine).sismember},
		"SPOP":      {-2, (*Engine).spop},

		"ZADD":        {-4, (*Engine).zadd},
		"ZSCORE":      {3, (*Engine).zscore},
		"ZCARD":       {2, (*Engine).zcard},
		"ZRANGE":      {-4, (*Engine).zrange},
		"ZPOPMIN":     {-2, (*Engine).zpopmin},
		"ZUNIONSTORE": {-4, (*Engine).zunionstore},
		"ZINTERSTORE": {-4, (*Engine).zinterstore},

		"JSON.SET":       {-4, (*Engine).jsonSet},
		"JSON.GET":       {-2, (*Engine).jsonGet},
		"JSON.DEL":       {-2, (*Engine).jsonDel},
		"JSON.FORGET":    {-2, (*Engine).jsonDel},
		"JSON.TYPE":      {-2, (*Engine).jsonType},
		"JSON.ARRAPPEND": {-4, (*Engine).jsonArrAppend},
		"JSON.ARRINSERT": {-5, (*Engine).jsonArrInsert},
		"JSON.ARRLEN":    {-2, (*Engine).jsonArrLen},
	}
}

// Engine executes commands against a Store.
type Engine struct {
	mu    sync.Mutex
	store *memory.Store
}

// New creates an engine over store. A nil store gets a fresh one.
func New(store *memory.Store) *Engine {
	if store == nil {
		store = memory.New()
	}
	return &Engine{store: store}
}

// Store returns the keyspace.
func (e *Engine) Store() *memory.Store {
	return e.store
}

// Name returns the canonical (upper-case) name of a command.
func Name(argv []string) string {
	if len(argv) == 0 {
		return ""
	}
	return strings.ToUpper(argv[0])
}

// Known reports whether the engine implements the named command.
func Known(name string) bool {
	_, ok := table[strings.ToUpper(name)]
	return ok
}

// Check validates the name and arity of argv without executing it. This is
// what a transaction verifies when a command is queued.
func (e *Engine) Check(argv []string) error {
	if len(argv) == 0 {
		return Error("ERR empty command")
	}
	name := Name(argv)
	s, ok := table[name]
	if !ok {
		return errUnknown(argv[0])
	}
	if (s.arity > 0 && len(argv) != s.arity) || (s.arity < 0 && len(argv) < -s.arity) {
		return errArity(name)
	}
	return nil
}

// Exec runs one command.
func (e *Engine) Exec(argv []string) Reply {
	if err := e.Check(argv); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.run(argv)
}

// ExecMulti runs cmds back to back with no other command interleaved. If
// any command fails Check, nothing runs and the reply is ErrExecAbort.
// Otherwise the reply holds one entry per command; runtime errors of
// individual commands do not undo the others.
func (e *Engine) ExecMulti(cmds [][]string) Reply {
	for _, argv := range cmds {
		if err := e.Check(argv); err != nil {
			return ErrExecAbort
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(Array, len(cmds))
	for i, argv := range cmds {
		out[i] = e.run(argv)
	}
	return out
}

func (e *Engine) run(argv []string) Reply {
	return table[Name(argv)].handler(e, argv[1:])
}

// lookup returns the entry at key if it has the given kind. A missing key
// yields (nil, nil).
func (e *Engine) lookup(key string, kind memory.Kind) (*memory.Entry, Reply) {
	ent, ok := e.store.Get(key)
	if !ok {
		return nil, nil
	}
	if ent.Kind != kind {
		return nil, ErrWrongType
	}
	return ent, nil
}

// lookupOrCreate is lookup that stores mk() when the key is missing.
func (e *Engine) lookupOrCreate(key string, kind memory.Kind, mk func() *memory.Entry) (*memory.Entry, Reply) {
	ent, errReply := e.lookup(key, kind)
	if errReply != nil {
		return nil, errReply
	}
	if ent == nil {
		ent = mk()
		e.store.Put(key, ent)
	}
	return ent, nil
}

// dropIfEmpty removes a collection left without elements.
func (e *Engine) dropIfEmpty(key string, ent *memory.Entry) {
	if ent.Empty() {
		e.store.Delete(key)
	}
}
