package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// journaled runs the counter scenario into a fresh database.
func journaled(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := writeFile(t, dir, "counter.yaml", counterScenario)
	db := filepath.Join(dir, "vex.db")
	_, err := execute(t, append([]string{"run", path, "--db", db}, extra...)...)
	require.NoError(t, err)
	return db
}

func TestReplayRestoresState(t *testing.T) {
	db := journaled(t)

	out, err := execute(t, "replay", "--db", db, "--modules", "counter")
	require.NoError(t, err)
	assert.Contains(t, out, "replayed:     3")
	assert.Contains(t, out, "last seq:     3")
	assert.Contains(t, out, "state: map[counter:map[count:5]]")
	assert.Contains(t, out, "✓ state hash matches journal")
}

func TestReplayPath(t *testing.T) {
	db := journaled(t)

	out, err := execute(t, "replay", "--db", db, "--modules", "counter", "--path", "counter")
	require.NoError(t, err)
	assert.Contains(t, out, "state: map[count:5]")

	_, err = execute(t, "replay", "--db", db, "--modules", "counter", "--path", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid --path")
}

func TestReplayFromSnapshot(t *testing.T) {
	db := journaled(t, "--snapshot-every", "2")

	out, err := execute(t, "replay", "--db", db, "--modules", "counter", "--format", "json")
	require.NoError(t, err)
	status, data := decodeResponse(t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, float64(2), data["snapshot_seq"])
	assert.Equal(t, float64(1), data["replayed"])
	assert.Equal(t, true, data["hash_matches"])
}

func TestReplayWritesSnapshot(t *testing.T) {
	db := journaled(t)

	out, err := execute(t, "replay", "--db", db, "--modules", "counter", "--snapshot", "--rate", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "snapshot written at seq 3")

	out, err = execute(t, "replay", "--db", db, "--modules", "counter", "--format", "json")
	require.NoError(t, err)
	_, data := decodeResponse(t, out)
	assert.Equal(t, float64(3), data["snapshot_seq"])
	assert.Equal(t, float64(0), data["replayed"])
	assert.Equal(t, map[string]any{"counter": map[string]any{"count": float64(5)}}, data["state"])
}

func TestReplayHashMismatch(t *testing.T) {
	db := journaled(t)

	// Extra modules change the state tree, so the hashes cannot match.
	out, err := execute(t, "replay", "--db", db, "--modules", "counter,todos")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ state hash differs from journal")
}

func TestReplayManifest(t *testing.T) {
	db := journaled(t)
	manifest := writeFile(t, t.TempDir(), "modules.cue", "modules: counter: {}\n")

	_, err := execute(t, "replay", "--db", db, "--manifest", manifest)
	require.NoError(t, err)
}

func TestReplayErrors(t *testing.T) {
	_, err := execute(t, "replay", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")

	db := journaled(t)
	_, err = execute(t, "replay", "--db", db, "--modules", "ghost")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = execute(t, "replay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}
