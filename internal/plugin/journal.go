package plugin

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/store"
)

// JournalOptions configures the Journal plugin.
type JournalOptions struct {
	// SnapshotEvery writes a full-state snapshot after every N journaled
	// mutations. Zero disables snapshots.
	SnapshotEvery int64
}

// Journal records every non-silent commit in db, with the hash of the
// state right after it. Write failures are logged and do not affect the
// commit.
//
// The state is read after the store lock is released, so under concurrent
// commits the recorded hash may already include a later mutation.
func Journal(db *store.Store, opts JournalOptions) engine.Plugin {
	return func(s *engine.Store) {
		j := &journal{db: db, store: s, opts: opts}
		s.Subscribe(j.record)
	}
}

type journal struct {
	db    *store.Store
	store *engine.Store
	opts  JournalOptions
	count atomic.Int64
}

func (j *journal) record(m engine.Mutation, _ *reactive.Object) {
	ctx := context.Background()
	logger := j.store.Logger()

	state := plainState(j.store)
	e, err := journalEntry(m, state)
	if err != nil {
		logger.Error("journal entry rejected", "type", m.Type, "seq", m.Seq, "error", err)
		return
	}
	if err := j.db.WriteMutation(ctx, e); err != nil {
		logger.Error("journal write failed", "type", m.Type, "seq", m.Seq, "error", err)
		return
	}

	n := j.count.Add(1)
	if j.opts.SnapshotEvery > 0 && n%j.opts.SnapshotEvery == 0 {
		if err := writeSnapshot(ctx, j.db, m.Seq, state); err != nil {
			logger.Error("journal snapshot failed", "seq", m.Seq, "error", err)
		}
	}
}

func journalEntry(m engine.Mutation, state map[string]any) (ir.JournalEntry, error) {
	payload, err := ir.FromPlain(reactive.Plain(m.Payload))
	if err != nil {
		return ir.JournalEntry{}, fmt.Errorf("payload: %w", err)
	}
	id, err := ir.MutationID(m.Type, payload, m.Flow, m.Seq)
	if err != nil {
		return ir.JournalEntry{}, err
	}
	hash, err := ir.StateHash(state)
	if err != nil {
		return ir.JournalEntry{}, fmt.Errorf("state hash: %w", err)
	}
	return ir.JournalEntry{
		ID:        id,
		Seq:       m.Seq,
		Type:      m.Type,
		Payload:   payload,
		FlowToken: m.Flow,
		Silent:    m.Silent,
		StateHash: hash,
	}, nil
}

// Snapshot writes the store's current state to db under seq.
func Snapshot(ctx context.Context, s *engine.Store, db *store.Store, seq int64) error {
	return writeSnapshot(ctx, db, seq, plainState(s))
}

func writeSnapshot(ctx context.Context, db *store.Store, seq int64, state map[string]any) error {
	obj, err := ir.ObjectFromPlain(state)
	if err != nil {
		return fmt.Errorf("snapshot state: %w", err)
	}
	hash, err := ir.StateHash(state)
	if err != nil {
		return fmt.Errorf("snapshot hash: %w", err)
	}
	return db.WriteSnapshot(ctx, ir.Snapshot{Seq: seq, State: obj, StateHash: hash})
}

// plainState copies the whole tree under the store lock.
func plainState(s *engine.Store) map[string]any {
	var state map[string]any
	s.Read(func(root *reactive.Object) {
		if root != nil {
			state = root.Plain()
		}
	})
	if state == nil {
		state = map[string]any{}
	}
	return state
}
