package plugin

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/store"
)

// RehydrateResult reports what Rehydrate restored.
type RehydrateResult struct {
	// SnapshotSeq is the seq of the snapshot restored, or 0 if none.
	SnapshotSeq int64

	// Replayed is the number of journal entries re-committed after it.
	Replayed int

	// LastSeq is the seq of the last journal entry applied.
	LastSeq int64

	// StateHash is the hash of the restored state.
	StateHash string

	// HashMatches reports whether StateHash equals the hash recorded with
	// the last applied entry (or snapshot).
	HashMatches bool
}

// Rehydrate restores s from db: the latest snapshot through ReplaceState,
// then every later entry re-committed silently so nothing is journaled
// twice. With a non-nil limiter each re-commit waits for a token.
//
// Mutation handlers must be deterministic for the restored hash to match.
// A mismatch is logged and reported, not returned as an error.
func Rehydrate(ctx context.Context, s *engine.Store, db *store.Store, limiter *rate.Limiter) (RehydrateResult, error) {
	var res RehydrateResult
	expected := ""

	snap, ok, err := db.LatestSnapshot(ctx)
	if err != nil {
		return res, fmt.Errorf("rehydrate: %w", err)
	}
	if ok {
		state, _ := ir.ToPlain(snap.State).(map[string]any)
		s.ReplaceState(state)
		res.SnapshotSeq = snap.Seq
		res.LastSeq = snap.Seq
		expected = snap.StateHash
	}

	entries, err := db.ReadMutations(ctx, res.SnapshotSeq)
	if err != nil {
		return res, fmt.Errorf("rehydrate: %w", err)
	}
	for _, e := range entries {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return res, fmt.Errorf("rehydrate at seq %d: %w", e.Seq, err)
			}
		} else if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("rehydrate at seq %d: %w", e.Seq, err)
		}
		s.CommitMutation(engine.Mutation{
			Type:    e.Type,
			Payload: ir.ToPlain(e.Payload),
			Silent:  true,
			Flow:    e.FlowToken,
			Seq:     e.Seq,
		})
		res.Replayed++
		res.LastSeq = e.Seq
		expected = e.StateHash
	}

	res.StateHash, err = ir.StateHash(plainState(s))
	if err != nil {
		return res, fmt.Errorf("rehydrate: %w", err)
	}
	res.HashMatches = expected == "" || expected == res.StateHash
	if !res.HashMatches {
		s.Logger().Warn("rehydrated state hash differs from journal",
			"seq", res.LastSeq, "expected", expected, "actual", res.StateHash)
	}
	s.Logger().Info("store rehydrated",
		"snapshot_seq", res.SnapshotSeq, "replayed", res.Replayed, "seq", res.LastSeq)
	return res, nil
}

// ResumeClock returns a clock that continues after the last seq in db, so
// new commits sort after everything already journaled.
func ResumeClock(ctx context.Context, db *store.Store) (*engine.Clock, error) {
	last, err := db.GetLastSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("resume clock: %w", err)
	}
	return engine.NewClockAt(last), nil
}
