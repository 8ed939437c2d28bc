package engine

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/reactive"
)

const stateKey = "state"

// holder wraps the state tree under a single observable key so that
// replacing the whole tree is itself a tracked write. Getters are computed
// over that key, and the strict watcher observes it deeply.
type holder struct {
	obj     *reactive.Object
	getters map[string]*reactive.Computed
	names   []string
	strict  *reactive.Watcher
}

func newHolder(g *reactive.Graph, state *reactive.Object, defs []getterDef) *holder {
	h := &holder{
		obj:     reactive.NewObject(g, nil),
		getters: make(map[string]*reactive.Computed, len(defs)),
		names:   make([]string, 0, len(defs)),
	}
	h.obj.Set(stateKey, state)
	for _, def := range defs {
		h.getters[def.name] = reactive.NewComputed(g, h.evaluator(def))
		h.names = append(h.names, def.name)
	}
	slices.Sort(h.names)
	return h
}

func (h *holder) evaluator(def getterDef) func() any {
	return func() any {
		root, _ := h.obj.Get(stateKey).(*reactive.Object)
		sub := resolvePath(root, def.path)
		if sub == nil {
			return nil
		}
		return def.fn(sub, GetterView{h: h})
	}
}

// release detaches every getter and the strict watcher.
func (h *holder) release() {
	if h.strict != nil {
		h.strict.Stop()
	}
	for _, c := range h.getters {
		c.Dispose()
	}
}

// GetterView is handed to getter functions to read other getters and the
// root state. Reads through it are tracked like direct state reads.
type GetterView struct {
	h *holder
}

// Get returns the value of another getter, or nil if it does not exist.
func (v GetterView) Get(name string) any {
	if c, ok := v.h.getters[name]; ok {
		return c.Get()
	}
	return nil
}

// Int returns another getter's value as an int.
func (v GetterView) Int(name string) int {
	n, _ := reactive.ToInt(v.Get(name))
	return n
}

// RootState returns the root of the state tree.
func (v GetterView) RootState() *reactive.Object {
	root, _ := v.h.obj.Get(stateKey).(*reactive.Object)
	return root
}

// Getter returns the cached value of the named getter, re-evaluating it
// only if something it read has changed. An unknown name is reported and
// yields nil.
func (s *Store) Getter(name string) any {
	defer s.flushDiagnostics()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getterLocked(name)
}

func (s *Store) getterLocked(name string) any {
	c, ok := s.holder.getters[name]
	if !ok {
		s.reportLocked(context.Background(), slog.LevelError, &RuntimeError{
			Code:    ErrCodeUnknownGetter,
			Message: "unknown getter type",
			Type:    name,
		})
		return nil
	}
	return c.Get()
}

// GetterNames lists the getter table in lexical order.
func (s *Store) GetterNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.holder.names)
}

// subState resolves a module path against the live tree. The caller holds
// s.mu.
func (s *Store) subState(path ir.Path) *reactive.Object {
	return resolvePath(s.rootState(), path)
}
