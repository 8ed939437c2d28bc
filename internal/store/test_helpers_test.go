package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/vex/internal/ir"
)

// createTestStore opens a journal in a temp directory that is closed on cleanup.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// entry builds a journal entry with a content-addressed id.
func entry(t *testing.T, seq int64, typ string, payload ir.IRValue, flow string) ir.JournalEntry {
	t.Helper()
	id, err := ir.MutationID(typ, payload, flow, seq)
	if err != nil {
		t.Fatalf("MutationID failed: %v", err)
	}
	return ir.JournalEntry{
		ID:        id,
		Seq:       seq,
		Type:      typ,
		Payload:   payload,
		FlowToken: flow,
		StateHash: "hash-" + typ,
	}
}

func mustWrite(t *testing.T, st *Store, entries ...ir.JournalEntry) {
	t.Helper()
	for _, e := range entries {
		if err := st.WriteMutation(context.Background(), e); err != nil {
			t.Fatalf("WriteMutation(%d) failed: %v", e.Seq, err)
		}
	}
}
