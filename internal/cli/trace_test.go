package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceAll(t *testing.T) {
	db := journaled(t)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "[1] increment\n")
	assert.Contains(t, out, "[2] increment (flow cli-flow)")
	assert.Contains(t, out, "[3] increment 3\n")
	assert.Contains(t, out, "3 mutation(s), seq 1..3")
	assert.Contains(t, out, "flows: [cli-flow]")
}

func TestTraceFlow(t *testing.T) {
	db := journaled(t)

	out, err := execute(t, "trace", "--db", db, "--flow", "cli-flow", "--format", "json")
	require.NoError(t, err)
	status, data := decodeResponse(t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, "cli-flow", data["flow_token"])
	timeline := data["timeline"].([]any)
	require.Len(t, timeline, 1)
	entry := timeline[0].(map[string]any)
	assert.Equal(t, float64(2), entry["seq"])
	assert.NotEmpty(t, entry["id"])
	assert.NotEmpty(t, entry["state_hash"])
}

func TestTraceFilters(t *testing.T) {
	db := filepath.Join(t.TempDir(), "vex.db")
	invokeJSON(t, "addTodo", "--db", db, "--args", `"a"`)
	invokeJSON(t, "increment", "--db", db)
	invokeJSON(t, "addTodo", "--db", db, "--args", `"b"`)

	out, err := execute(t, "trace", "--db", db, "--type", "addTodo", "--format", "json")
	require.NoError(t, err)
	_, data := decodeResponse(t, out)
	stats := data["stats"].(map[string]any)
	assert.Equal(t, float64(2), stats["mutations"])
	assert.Equal(t, map[string]any{"addTodo": float64(2)}, stats["by_type"])
	assert.Len(t, data["flows"], 3)

	out, err = execute(t, "trace", "--db", db, "--after", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "1 mutation(s), seq 3..3")
}

func TestTraceErrors(t *testing.T) {
	db := journaled(t)

	_, err := execute(t, "trace", "--db", db, "--flow", "missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = execute(t, "trace", "--db", filepath.Join(t.TempDir(), "none.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
