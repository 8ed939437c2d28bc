package engine

// HotUpdate swaps in new handlers while keeping the live state tree.
//
// Mutation and action registries are rebuilt from the merged descriptor.
// Modules new to the tree get their default state; existing sub-states are
// left as they are. When the fragment carries getters at any depth, the
// getter table is rebuilt from the whole merged tree and the previous
// getters are invalidated and released.
//
// A fragment that fails to compose leaves the store as it was. An empty
// fragment changes nothing observable.
func (s *Store) HotUpdate(f Fragment) error {
	defer s.flushDiagnostics()
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := mergeFragment(s.root, f)
	rebuildGetters := f.HasGetters()

	c := newComposition(rebuildGetters)
	if err := s.compose(c, s.rootState(), merged); err != nil {
		return err
	}
	s.root = merged
	s.mutations = c.mutations
	s.actions = c.actions

	if rebuildGetters {
		old := s.holder
		next := newHolder(s.g, s.rootState(), c.getters)
		if s.strict {
			s.enableStrict(next)
		}
		s.withCommit(func() {
			// Clearing the old tree reference invalidates every cached
			// getter that still points at it.
			old.obj.Set(stateKey, nil)
		})
		s.holder = next
		old.release()
	}

	s.logger.Info("hot update applied",
		"mutations", len(c.mutations.entries),
		"actions", len(c.actions.entries),
		"getters_rebuilt", rebuildGetters,
	)
	return nil
}
