package command

import (
	"strings"

	"github.com/yndnr/nskv/internal/storage/memory"
)

func (e *Engine) get(args []string) Reply {
	ent, errReply := e.lookup(args[0], memory.KindString)
	if errReply != nil {
		return errReply
	}
	if ent == nil {
		return nil
	}
	return Bulk(ent.Str)
}

// set implements SET key value [NX|XX]. Values of any type are replaced.
func (e *Engine) set(args []string) Reply {
	key, value := args[0], args[1]
	var nx, xx bool
	for _, opt := range args[2:] {
		switch strings.ToUpper(opt) {
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "EX", "PX", "EXAT", "PXAT", "KEEPTTL":
			return ErrNoExpiration
		default:
			return ErrSyntax
		}
	}
	if nx && xx {
		return ErrSyntax
	}

	exists := e.store.Exists(key)
	if (nx && exists) || (xx && !exists) {
		return nil
	}
	e.store.Put(key, memory.NewString(value))
	return OK
}
