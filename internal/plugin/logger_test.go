package plugin

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/testutil"
)

func TestLoggerLogsActionsAndMutations(t *testing.T) {
	ctx := context.Background()
	rec, logger := testutil.NewLogRecorder()
	s, _ := newStore(t, engine.WithPlugins(Logger(logger)))

	_, err := s.Dispatch(ctx, "bump", 3).Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"action", "mutation"}, rec.Messages(slog.LevelInfo))

	entries := rec.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "bump", entries[0].Attrs["type"])
	assert.Equal(t, "increment", entries[1].Attrs["type"])
	assert.Equal(t, "flow-1", entries[1].Attrs["flow"])
}

func TestLoggerDefaultsToStoreLogger(t *testing.T) {
	s, rec := newStore(t, engine.WithPlugins(Logger(nil)))

	s.Commit("increment", nil)

	assert.Contains(t, rec.Messages(slog.LevelInfo), "mutation")
}
