package engine

import "github.com/roach88/vex/internal/reactive"

// enableStrict installs a deep synchronous watcher over h's tree. It panics
// from inside the offending write whenever the store is not committing.
func (s *Store) enableStrict(h *holder) {
	h.strict = reactive.Watch(s.g,
		func() any { return h.obj.Get(stateKey) },
		func(_, _ any) {
			if !s.committing {
				panic(newStrictViolation())
			}
		},
		reactive.WatchOptions{Deep: true},
	)
}
