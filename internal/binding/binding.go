// Package binding maps store state, getters, mutations and actions onto
// plain Go functions, so callers such as the CLI or a view layer can hold
// named accessors instead of the store itself.
//
// Every Map function takes alias → target pairs; Names builds the identity
// map for the common case where aliases equal targets.
package binding

import (
	"context"
	"fmt"
	"slices"

	"github.com/mitchellh/mapstructure"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/reactive"
)

// Names maps every name to itself.
func Names(names ...string) map[string]string {
	out := make(map[string]string, len(names))
	for _, n := range names {
		out[n] = n
	}
	return out
}

// StateFunc derives a value from the root state. Getters are reachable
// through get.
type StateFunc func(state *reactive.Object, get func(name string) any) any

// MapState returns accessors for state paths such as "counter/count".
// Each call reads under the store lock and returns a plain copy; a missing
// path yields nil.
func MapState(s *engine.Store, paths map[string]string) map[string]func() any {
	out := make(map[string]func() any, len(paths))
	for alias, path := range paths {
		p := ir.ParsePath(path)
		out[alias] = func() any {
			var v any
			s.Read(func(root *reactive.Object) {
				v = reactive.Plain(lookup(root, p))
			})
			return v
		}
	}
	return out
}

// MapStateFunc returns accessors computed by fn from the root state. fn
// runs without the store lock so it may read getters; call these accessors
// from the goroutine that commits.
func MapStateFunc(s *engine.Store, fns map[string]StateFunc) map[string]func() any {
	out := make(map[string]func() any, len(fns))
	for alias, fn := range fns {
		fn := fn
		out[alias] = func() any {
			return reactive.Plain(fn(s.State(), s.Getter))
		}
	}
	return out
}

// MapGetters returns accessors for getters. Calling one whose getter is not
// registered logs an error and yields nil.
func MapGetters(s *engine.Store, getters map[string]string) map[string]func() any {
	out := make(map[string]func() any, len(getters))
	for alias, name := range getters {
		alias, name := alias, name
		out[alias] = func() any {
			if !slices.Contains(s.GetterNames(), name) {
				s.Logger().Error("unknown getter", "getter", name, "alias", alias)
				return nil
			}
			return s.Getter(name)
		}
	}
	return out
}

// MapMutations returns functions that commit the named mutations.
func MapMutations(s *engine.Store, mutations map[string]string) map[string]func(payload any) {
	out := make(map[string]func(payload any), len(mutations))
	for alias, typ := range mutations {
		typ := typ
		out[alias] = func(payload any) {
			s.Commit(typ, payload)
		}
	}
	return out
}

// MapActions returns functions that dispatch the named actions.
func MapActions(s *engine.Store, actions map[string]string) map[string]func(ctx context.Context, payload any) *engine.Future {
	out := make(map[string]func(ctx context.Context, payload any) *engine.Future, len(actions))
	for alias, typ := range actions {
		typ := typ
		out[alias] = func(ctx context.Context, payload any) *engine.Future {
			return s.Dispatch(ctx, typ, payload)
		}
	}
	return out
}

// Decode copies the state subtree at path into out, matching fields by
// their json tags. The copy is taken under the store lock.
func Decode(s *engine.Store, path string, out any) error {
	p := ir.ParsePath(path)
	var (
		v     any
		found bool
	)
	s.Read(func(root *reactive.Object) {
		raw := lookup(root, p)
		found = raw != nil
		v = reactive.Plain(raw)
	})
	if !found {
		return fmt.Errorf("decode %s: no state at path", p)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("decode %s: %w", p, err)
	}
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", p, err)
	}
	return nil
}

// lookup walks path from root; the last segment may hold any value.
func lookup(root *reactive.Object, path ir.Path) any {
	var cur any = root
	for _, key := range path {
		obj, ok := cur.(*reactive.Object)
		if !ok || obj == nil {
			return nil
		}
		cur = obj.Get(key)
	}
	if obj, ok := cur.(*reactive.Object); ok && obj == nil {
		return nil
	}
	return cur
}
