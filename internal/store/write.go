package store

import (
	"context"
	"fmt"

	"github.com/roach88/vex/internal/ir"
)

// WriteMutation appends a journal entry.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - rewriting an entry is
// silently ignored. Other constraint violations still return errors.
func (s *Store) WriteMutation(ctx context.Context, e ir.JournalEntry) error {
	payload, err := marshalValue(e.Payload)
	if err != nil {
		return fmt.Errorf("write mutation: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mutations
		(id, seq, type, payload, flow_token, silent, state_hash, engine_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Seq,
		e.Type,
		payload,
		e.FlowToken,
		e.Silent,
		e.StateHash,
		ir.EngineVersion,
		ir.IRVersion,
	)
	if err != nil {
		return fmt.Errorf("write mutation: %w", err)
	}
	return nil
}

// WriteSnapshot records the full state after the mutation with snap.Seq.
// A second snapshot for the same seq is ignored.
func (s *Store) WriteSnapshot(ctx context.Context, snap ir.Snapshot) error {
	state, err := marshalValue(snap.State)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (seq, state, state_hash)
		VALUES (?, ?, ?)
		ON CONFLICT(seq) DO NOTHING
	`, snap.Seq, state, snap.StateHash)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
