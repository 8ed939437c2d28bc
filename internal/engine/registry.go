package engine

import (
	"slices"

	"github.com/roach88/vex/internal/ir"
)

type boundMutation struct {
	path    ir.Path
	handler MutationHandler
}

type boundAction struct {
	path    ir.Path
	handler ActionHandler
}

// registry maps a dispatch name to its handlers in registration order.
// It is rebuilt, never patched, on hot update.
type registry[H any] struct {
	entries map[string][]H
}

func newRegistry[H any]() *registry[H] {
	return &registry[H]{entries: make(map[string][]H)}
}

func (r *registry[H]) add(name string, h H) {
	r.entries[name] = append(r.entries[name], h)
}

// get returns a copy so callers can iterate after releasing the store lock.
func (r *registry[H]) get(name string) []H {
	return slices.Clone(r.entries[name])
}

func (r *registry[H]) names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
