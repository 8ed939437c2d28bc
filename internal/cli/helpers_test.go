package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const counterScenario = `name: counter
description: counter via commits and dispatch
modules:
  counter: {}
flow_token: cli-flow
steps:
  - commit: increment
  - dispatch: increment
  - commit: increment
    payload: 3
assertions:
  - type: state_equals
    path: counter/count
    value: 5
  - type: trace_count
    kind: mutation
    name: increment
    count: 3
`

const failingScenario = `name: failing
description: wrong expectation
modules:
  counter: {}
steps:
  - commit: increment
assertions:
  - type: state_equals
    path: counter/count
    value: 7
`

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeContext(t, context.Background(), args...)
}

func executeContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// decodeResponse parses a JSON CLI response.
func decodeResponse(t *testing.T, out string) (status string, data map[string]any) {
	t.Helper()
	var resp struct {
		Status string         `json:"status"`
		Data   map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	return resp.Status, resp.Data
}
