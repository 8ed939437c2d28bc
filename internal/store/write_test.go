package store

import (
	"context"
	"testing"

	"github.com/roach88/vex/internal/ir"
)

func TestWriteMutationIdempotent(t *testing.T) {
	st := createTestStore(t)
	e := entry(t, 1, "increment", ir.IRInt(2), "flow-1")

	mustWrite(t, st, e, e)

	n, err := st.CountMutations(context.Background())
	if err != nil {
		t.Fatalf("CountMutations failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountMutations = %d, want 1", n)
	}
}

func TestWriteMutationStoresCanonicalPayload(t *testing.T) {
	st := createTestStore(t)
	payload := ir.IRObject{"z": ir.IRInt(1), "a": ir.IRString("x")}
	mustWrite(t, st, entry(t, 1, "todos/add", payload, ""))

	var raw string
	if err := st.db.QueryRow(`SELECT payload FROM mutations`).Scan(&raw); err != nil {
		t.Fatalf("select payload: %v", err)
	}
	if raw != `{"a":"x","z":1}` {
		t.Errorf("payload = %s, want canonical key order", raw)
	}
}

func TestWriteMutationRecordsVersions(t *testing.T) {
	st := createTestStore(t)
	mustWrite(t, st, entry(t, 1, "increment", nil, ""))

	var engineVersion, irVersion string
	err := st.db.QueryRow(`SELECT engine_version, ir_version FROM mutations`).Scan(&engineVersion, &irVersion)
	if err != nil {
		t.Fatalf("select versions: %v", err)
	}
	if engineVersion != ir.EngineVersion || irVersion != ir.IRVersion {
		t.Errorf("versions = %s/%s, want %s/%s", engineVersion, irVersion, ir.EngineVersion, ir.IRVersion)
	}
}

func TestWriteSnapshotIgnoresDuplicateSeq(t *testing.T) {
	st := createTestStore(t)
	ctx := context.Background()

	first := ir.Snapshot{Seq: 5, State: ir.IRObject{"count": ir.IRInt(5)}, StateHash: "h1"}
	second := ir.Snapshot{Seq: 5, State: ir.IRObject{"count": ir.IRInt(9)}, StateHash: "h2"}
	if err := st.WriteSnapshot(ctx, first); err != nil {
		t.Fatalf("WriteSnapshot failed: %v", err)
	}
	if err := st.WriteSnapshot(ctx, second); err != nil {
		t.Fatalf("WriteSnapshot duplicate failed: %v", err)
	}

	snap, ok, err := st.LatestSnapshot(ctx)
	if err != nil || !ok {
		t.Fatalf("LatestSnapshot = %v, %v", ok, err)
	}
	if snap.StateHash != "h1" {
		t.Errorf("StateHash = %s, want h1", snap.StateHash)
	}
}
