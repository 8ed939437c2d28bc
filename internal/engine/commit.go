package engine

import (
	"context"
	"log/slog"

	"github.com/roach88/vex/internal/reactive"
)

// Mutation describes one commit.
type Mutation struct {
	Type    string
	Payload any

	// Silent suppresses subscriber notification.
	Silent bool

	// Flow is the flow token of the dispatch that committed, or "".
	Flow string

	// Seq is stamped by the store when the mutation is applied. A mutation
	// that already carries a Seq (a replayed journal entry) keeps it and
	// the clock does not advance.
	Seq int64
}

// Commit applies the mutation handlers registered under typ.
func (s *Store) Commit(typ string, payload any) {
	s.CommitMutation(Mutation{Type: typ, Payload: payload})
}

// CommitMutation applies every handler registered under m.Type, in
// registration order, then notifies subscribers unless m.Silent. An
// unknown type is reported and has no effect.
//
// Subscriber panics propagate to the caller. A panicking mutation handler
// leaves the store out of the committing phase and unlocked.
func (s *Store) CommitMutation(m Mutation) {
	applied, root, subs, ok := s.apply(m)
	s.flushDiagnostics()
	if !ok || applied.Silent {
		return
	}
	for _, sub := range subs {
		sub.OnMutation(applied, root)
	}
}

// apply runs the handlers under the store lock and returns what the
// subscriber fan-out needs once the lock is released.
func (s *Store) apply(m Mutation) (Mutation, *reactive.Object, []Subscriber, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.mutations.get(m.Type)
	if len(entries) == 0 {
		s.reportLocked(context.Background(), slog.LevelError, &RuntimeError{
			Code:      ErrCodeUnknownMutation,
			Message:   "unknown mutation type",
			Type:      m.Type,
			FlowToken: m.Flow,
		})
		return m, nil, nil, false
	}

	if m.Seq == 0 {
		m.Seq = s.clock.Next()
	}
	s.withCommit(func() {
		for _, e := range entries {
			sub := s.subState(e.path)
			if sub == nil {
				s.reportLocked(context.Background(), slog.LevelError, &RuntimeError{
					Code:      ErrCodeMissingModuleState,
					Message:   "module state missing, mutation handler skipped",
					Type:      m.Type,
					Path:      e.path.String(),
					FlowToken: m.Flow,
				})
				continue
			}
			e.handler.Mutate(sub, m.Payload)
		}
	})
	s.logger.Debug("mutation committed", "type", m.Type, "seq", m.Seq, "flow", m.Flow)

	return m, s.rootState(), s.subs.snapshot(), true
}
