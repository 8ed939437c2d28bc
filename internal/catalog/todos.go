package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/reactive"
)

// Todo filters accepted by setFilter.
const (
	FilterAll       = "all"
	FilterActive    = "active"
	FilterCompleted = "completed"
)

// ErrEmptyTodo is returned by the addTodo action for blank text.
var ErrEmptyTodo = errors.New("todo text is empty")

// TodosOptions configures Todos.
type TodosOptions struct {
	// Filter is the initial visibility filter. Empty means "all".
	Filter string `mapstructure:"filter"`
}

// Todos is a module holding {items, nextId, filter}. Each item is
// {id, text, done}.
//
// Mutations: addTodo (text), editTodo ({id, text}), toggleTodo (id),
// deleteTodo (id), toggleAll (bool), clearCompleted, setFilter, reset.
// Actions: addTodo (rejects blank text), clearCompleted.
// Getters: remaining, doneCount, allDone, visible.
func Todos(opts TodosOptions) *engine.Module {
	filter := opts.Filter
	if filter == "" {
		filter = FilterAll
	}
	return &engine.Module{
		State: map[string]any{
			"items":  []any{},
			"nextId": 1,
			"filter": filter,
		},
		Mutations: map[string]engine.MutationHandler{
			"addTodo":        engine.MutationFunc(addTodo),
			"editTodo":       engine.MutationFunc(editTodo),
			"toggleTodo":     engine.MutationFunc(toggleTodo),
			"deleteTodo":     engine.MutationFunc(deleteTodo),
			"toggleAll":      engine.MutationFunc(toggleAll),
			"clearCompleted": engine.MutationFunc(clearCompleted),
			"setFilter":      engine.MutationFunc(setFilter),
			"reset": engine.MutationFunc(func(state *reactive.Object, _ any) {
				state.Array("items").Clear()
				state.Set("nextId", 1)
			}),
		},
		Actions: map[string]engine.ActionHandler{
			"addTodo": engine.ActionFunc(func(_ context.Context, ac *engine.ActionContext, payload any) (any, error) {
				text, _ := payload.(string)
				text = strings.TrimSpace(text)
				if text == "" {
					return nil, ErrEmptyTodo
				}
				ac.Commit("addTodo", text)
				return text, nil
			}),
			"clearCompleted": commitAction("clearCompleted"),
		},
		Getters: map[string]engine.GetterFunc{
			"remaining": func(state *reactive.Object, _ engine.GetterView) any {
				return countItems(state, false)
			},
			"doneCount": func(state *reactive.Object, _ engine.GetterView) any {
				return countItems(state, true)
			},
			"allDone": func(state *reactive.Object, view engine.GetterView) any {
				return state.Array("items").Len() > 0 && view.Int("remaining") == 0
			},
			"visible": visible,
		},
	}
}

func addTodo(state *reactive.Object, payload any) {
	text, _ := payload.(string)
	if m, ok := payload.(map[string]any); ok {
		text, _ = m["text"].(string)
	}
	id := state.Int("nextId")
	state.Array("items").Append(map[string]any{"id": id, "text": text, "done": false})
	state.Set("nextId", id+1)
}

func editTodo(state *reactive.Object, payload any) {
	m, _ := payload.(map[string]any)
	id, ok := reactive.ToInt(m["id"])
	if !ok {
		return
	}
	if item := findTodo(state, id); item != nil {
		text, _ := m["text"].(string)
		item.Set("text", text)
	}
}

func toggleTodo(state *reactive.Object, payload any) {
	id, ok := reactive.ToInt(payload)
	if !ok {
		return
	}
	if item := findTodo(state, id); item != nil {
		item.Set("done", !item.Bool("done"))
	}
}

func deleteTodo(state *reactive.Object, payload any) {
	id, ok := reactive.ToInt(payload)
	if !ok {
		return
	}
	items := state.Array("items")
	if i := items.Index(hasID(id)); i >= 0 {
		items.RemoveAt(i)
	}
}

func toggleAll(state *reactive.Object, payload any) {
	done, _ := payload.(bool)
	for _, v := range state.Array("items").Items() {
		if item, ok := v.(*reactive.Object); ok {
			item.Set("done", done)
		}
	}
}

func clearCompleted(state *reactive.Object, _ any) {
	state.Array("items").Filter(func(v any) bool {
		item, ok := v.(*reactive.Object)
		return ok && !item.Bool("done")
	})
}

func setFilter(state *reactive.Object, payload any) {
	switch f, _ := payload.(string); f {
	case FilterAll, FilterActive, FilterCompleted:
		state.Set("filter", f)
	}
}

func visible(state *reactive.Object, _ engine.GetterView) any {
	filter := state.String("filter")
	out := []any{}
	for _, v := range state.Array("items").Items() {
		item, ok := v.(*reactive.Object)
		if !ok {
			continue
		}
		done := item.Bool("done")
		if filter == FilterActive && done || filter == FilterCompleted && !done {
			continue
		}
		out = append(out, item.Plain())
	}
	return out
}

func countItems(state *reactive.Object, done bool) int {
	n := 0
	for _, v := range state.Array("items").Items() {
		if item, ok := v.(*reactive.Object); ok && item.Bool("done") == done {
			n++
		}
	}
	return n
}

func findTodo(state *reactive.Object, id int) *reactive.Object {
	items := state.Array("items")
	i := items.Index(hasID(id))
	if i < 0 {
		return nil
	}
	item, _ := items.At(i).(*reactive.Object)
	return item
}

func hasID(id int) func(any) bool {
	return func(v any) bool {
		item, ok := v.(*reactive.Object)
		return ok && item.Int("id") == id
	}
}
