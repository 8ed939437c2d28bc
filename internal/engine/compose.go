package engine

import (
	"context"
	"log/slog"
	"slices"

	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/reactive"
)

// getterDef is one entry of the getter table.
type getterDef struct {
	name string
	path ir.Path
	fn   GetterFunc
}

// composition collects the output of one walk over the module tree.
type composition struct {
	mutations *registry[boundMutation]
	actions   *registry[boundAction]

	// collectGetters is false on hot updates that keep the current getters.
	collectGetters bool
	getters        []getterDef
	seenGetters    map[string]ir.Path

	// installs are default sub-states for absent keys, applied only after
	// the whole walk succeeds.
	installs []install
	mounted  map[string]*reactive.Object
}

type install struct {
	parent *reactive.Object
	key    string
	obj    *reactive.Object
}

func newComposition(collectGetters bool) *composition {
	return &composition{
		mutations:      newRegistry[boundMutation](),
		actions:        newRegistry[boundAction](),
		collectGetters: collectGetters,
		seenGetters:    make(map[string]ir.Path),
		mounted:        make(map[string]*reactive.Object),
	}
}

// compose walks the module tree rooted at m over state. Default sub-states
// are installed only under absent keys, so a hot update mounts new modules
// without clobbering live ones. Nothing is installed if any mount fails.
func (s *Store) compose(c *composition, state *reactive.Object, m *Module) error {
	if err := s.composeModule(c, state, nil, m); err != nil {
		return err
	}
	s.withCommit(func() {
		for _, in := range c.installs {
			in.parent.Set(in.key, in.obj)
		}
	})
	return nil
}

// resolve finds path in the live tree or under a sub-state queued earlier
// in the same walk.
func (c *composition) resolve(root *reactive.Object, path ir.Path) *reactive.Object {
	for i := len(path); i > 0; i-- {
		if obj, ok := c.mounted[path[:i].String()]; ok {
			return resolvePath(obj, path[i:])
		}
	}
	return resolvePath(root, path)
}

func (s *Store) composeModule(c *composition, root *reactive.Object, path ir.Path, m *Module) error {
	if m == nil {
		return newInvalidPathError(path.String(), "module descriptor is nil")
	}

	if !path.IsRoot() {
		parent := c.resolve(root, path.Parent())
		if parent == nil {
			return newInvalidPathError(path.String(), "parent state does not resolve to an object")
		}
		key := path.Last()
		if !parent.Has(key) {
			obj := reactive.NewObject(s.g, m.State)
			c.installs = append(c.installs, install{parent: parent, key: key, obj: obj})
			c.mounted[path.String()] = obj
		}
	}

	for _, name := range sortedKeys(m.Mutations) {
		c.mutations.add(name, boundMutation{path: path, handler: m.Mutations[name]})
	}
	for _, name := range sortedKeys(m.Actions) {
		c.actions.add(name, boundAction{path: path, handler: m.Actions[name]})
	}
	if c.collectGetters {
		for _, name := range sortedKeys(m.Getters) {
			if first, dup := c.seenGetters[name]; dup {
				s.reportLocked(context.Background(), slog.LevelWarn, &RuntimeError{
					Code:    ErrCodeDuplicateGetter,
					Message: "duplicate getter ignored, first registration at " + first.String() + " wins",
					Type:    name,
					Path:    path.String(),
				})
				continue
			}
			c.seenGetters[name] = path
			c.getters = append(c.getters, getterDef{name: name, path: path, fn: m.Getters[name]})
		}
	}

	for _, key := range sortedKeys(m.Modules) {
		if err := s.composeModule(c, root, path.Child(key), m.Modules[key]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
