package engine

import (
	"context"
	"maps"

	"github.com/roach88/vex/internal/reactive"
)

// MutationHandler applies a synchronous, in-place state transition to the
// sub-state of the module that registered it.
type MutationHandler interface {
	Mutate(state *reactive.Object, payload any)
}

// MutationFunc adapts a function to MutationHandler.
type MutationFunc func(state *reactive.Object, payload any)

// Mutate calls f.
func (f MutationFunc) Mutate(state *reactive.Object, payload any) { f(state, payload) }

// ActionHandler performs side effects and commits mutations. The returned
// value may be a *Future, which the dispatcher waits on; any other value is
// the action's result. A non-nil error rejects the dispatch.
type ActionHandler interface {
	Act(ctx context.Context, ac *ActionContext, payload any) (any, error)
}

// ActionFunc adapts a function to ActionHandler.
type ActionFunc func(ctx context.Context, ac *ActionContext, payload any) (any, error)

// Act calls f.
func (f ActionFunc) Act(ctx context.Context, ac *ActionContext, payload any) (any, error) {
	return f(ctx, ac, payload)
}

// GetterFunc derives a value from the sub-state of the module that
// registered it. Other getters and the root state are reachable through
// view; anything read is tracked, so the result is cached until one of
// those reads changes.
type GetterFunc func(state *reactive.Object, view GetterView) any

// Module describes one node of the store: default sub-state plus handlers,
// and child modules mounted under their keys. The store never writes to a
// Module.
type Module struct {
	// State is the default sub-state, installed only when the module's key
	// is absent from its parent. For the root module it is the initial tree.
	State map[string]any

	Mutations map[string]MutationHandler
	Actions   map[string]ActionHandler
	Getters   map[string]GetterFunc
	Modules   map[string]*Module
}

// Fragment carries replacement logic for HotUpdate. A non-nil map replaces
// the corresponding map of the root module. Modules merge by key: a module
// given under an existing key replaces that descriptor whole.
type Fragment struct {
	Mutations map[string]MutationHandler
	Actions   map[string]ActionHandler
	Getters   map[string]GetterFunc
	Modules   map[string]*Module
}

// HasGetters reports whether the fragment supplies getters at any depth.
func (f Fragment) HasGetters() bool {
	if len(f.Getters) > 0 {
		return true
	}
	for _, m := range f.Modules {
		if moduleHasGetters(m) {
			return true
		}
	}
	return false
}

func moduleHasGetters(m *Module) bool {
	if m == nil {
		return false
	}
	if len(m.Getters) > 0 {
		return true
	}
	for _, child := range m.Modules {
		if moduleHasGetters(child) {
			return true
		}
	}
	return false
}

// cloneModule returns a shallow copy with its own Modules map, so merges
// never write into caller-owned descriptors.
func cloneModule(m *Module) *Module {
	if m == nil {
		return &Module{}
	}
	c := *m
	c.Modules = maps.Clone(m.Modules)
	return &c
}

// mergeFragment returns root with the fragment applied.
func mergeFragment(root *Module, f Fragment) *Module {
	out := cloneModule(root)
	if f.Mutations != nil {
		out.Mutations = f.Mutations
	}
	if f.Actions != nil {
		out.Actions = f.Actions
	}
	if f.Getters != nil {
		out.Getters = f.Getters
	}
	mergeChildren(out, f.Modules)
	return out
}

// mergeChildren sets update modules into target by key, last write wins.
// Live sub-states are untouched; compose only installs absent keys.
func mergeChildren(target *Module, updates map[string]*Module) {
	if len(updates) == 0 {
		return
	}
	if target.Modules == nil {
		target.Modules = make(map[string]*Module, len(updates))
	}
	for key, upd := range updates {
		if upd == nil {
			continue
		}
		target.Modules[key] = upd
	}
}
