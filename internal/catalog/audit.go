package catalog

import (
	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/reactive"
)

// AuditOptions configures Audit.
type AuditOptions struct {
	// Limit caps the number of entries kept; the oldest are dropped.
	// Zero keeps everything.
	Limit int `mapstructure:"limit"`
}

// auditedTypes are the mutations Audit registers a second handler for.
var auditedTypes = []string{"increment", "decrement", "addTodo", "deleteTodo", "reset"}

// Audit is a module holding {entries}. It registers handlers under mutation
// names other modules also use, so each of those commits appends
// {type, payload} here as well.
//
// Getters: entryCount, lastEntry.
func Audit(opts AuditOptions) *engine.Module {
	mutations := make(map[string]engine.MutationHandler, len(auditedTypes))
	for _, typ := range auditedTypes {
		mutations[typ] = record(typ, opts.Limit)
	}
	return &engine.Module{
		State:     map[string]any{"entries": []any{}},
		Mutations: mutations,
		Getters: map[string]engine.GetterFunc{
			"entryCount": func(state *reactive.Object, _ engine.GetterView) any {
				return state.Array("entries").Len()
			},
			"lastEntry": func(state *reactive.Object, _ engine.GetterView) any {
				entries := state.Array("entries")
				if entries.Len() == 0 {
					return ""
				}
				last, _ := entries.At(entries.Len() - 1).(*reactive.Object)
				return last.String("type")
			},
		},
	}
}

func record(typ string, limit int) engine.MutationFunc {
	return func(state *reactive.Object, payload any) {
		entries := state.Array("entries")
		entries.Append(map[string]any{"type": typ, "payload": reactive.Plain(payload)})
		for limit > 0 && entries.Len() > limit {
			entries.RemoveAt(0)
		}
	}
}
