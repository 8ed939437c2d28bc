package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/vex/internal/ir"
)

const selectMutation = `
	SELECT id, seq, type, payload, flow_token, silent, state_hash
	FROM mutations
`

// ReadMutations returns every entry with seq greater than afterSeq.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if nothing matches.
func (s *Store) ReadMutations(ctx context.Context, afterSeq int64) ([]ir.JournalEntry, error) {
	return s.queryMutations(ctx, selectMutation+`
		WHERE seq > ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, afterSeq)
}

// ReadFlow returns the entries committed within one flow, in seq order.
func (s *Store) ReadFlow(ctx context.Context, flowToken string) ([]ir.JournalEntry, error) {
	return s.queryMutations(ctx, selectMutation+`
		WHERE flow_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, flowToken)
}

// ReadMutation returns the entry with the given id.
func (s *Store) ReadMutation(ctx context.Context, id string) (ir.JournalEntry, error) {
	entries, err := s.queryMutations(ctx, selectMutation+`WHERE id = ?`, id)
	if err != nil {
		return ir.JournalEntry{}, err
	}
	if len(entries) == 0 {
		return ir.JournalEntry{}, fmt.Errorf("read mutation %s: %w", id, sql.ErrNoRows)
	}
	return entries[0], nil
}

func (s *Store) queryMutations(ctx context.Context, query string, args ...any) ([]ir.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}
	defer rows.Close()

	entries := []ir.JournalEntry{}
	for rows.Next() {
		var (
			e       ir.JournalEntry
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Seq, &e.Type, &payload, &e.FlowToken, &e.Silent, &e.StateHash); err != nil {
			return nil, fmt.Errorf("scan mutation: %w", err)
		}
		if e.Payload, err = unmarshalValue(payload); err != nil {
			return nil, fmt.Errorf("mutation %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mutations: %w", err)
	}
	return entries, nil
}

// LatestSnapshot returns the snapshot with the highest seq. ok is false
// when the journal has none.
func (s *Store) LatestSnapshot(ctx context.Context) (snap ir.Snapshot, ok bool, err error) {
	var state string
	err = s.db.QueryRowContext(ctx, `
		SELECT seq, state, state_hash FROM snapshots
		ORDER BY seq DESC
		LIMIT 1
	`).Scan(&snap.Seq, &state, &snap.StateHash)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.Snapshot{}, false, nil
	}
	if err != nil {
		return ir.Snapshot{}, false, fmt.Errorf("latest snapshot: %w", err)
	}
	if snap.State, err = unmarshalObject(state); err != nil {
		return ir.Snapshot{}, false, fmt.Errorf("latest snapshot: %w", err)
	}
	return snap, true, nil
}

// GetLastSeq returns the highest seq in the journal, or 0.
// Used to resume the logical clock from the correct position.
func (s *Store) GetLastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(
			(SELECT COALESCE(MAX(seq), 0) FROM mutations),
			(SELECT COALESCE(MAX(seq), 0) FROM snapshots)
		)
	`).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return maxSeq, nil
}

// ListFlowTokens returns all distinct non-empty flow tokens, ordered
// alphabetically.
func (s *Store) ListFlowTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT flow_token FROM mutations
		WHERE flow_token != ''
		ORDER BY flow_token
	`)
	if err != nil {
		return nil, fmt.Errorf("list flow tokens: %w", err)
	}
	defer rows.Close()

	tokens := []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scan flow token: %w", err)
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flow tokens: %w", err)
	}
	return tokens, nil
}

// CountMutations returns the number of journal entries.
func (s *Store) CountMutations(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mutations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count mutations: %w", err)
	}
	return n, nil
}
