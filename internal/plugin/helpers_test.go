package plugin

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/store"
	"github.com/roach88/vex/internal/testutil"
)

func counter() *engine.Module {
	return &engine.Module{
		State: map[string]any{"count": 0},
		Mutations: map[string]engine.MutationHandler{
			"increment": engine.MutationFunc(func(state *reactive.Object, payload any) {
				by := 1
				if n, ok := reactive.ToInt(payload); ok {
					by = n
				}
				state.Set("count", state.Int("count")+by)
			}),
		},
		Actions: map[string]engine.ActionHandler{
			"bump": engine.ActionFunc(func(_ context.Context, ac *engine.ActionContext, payload any) (any, error) {
				ac.Commit("increment", payload)
				return nil, nil
			}),
		},
	}
}

func openJournal(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newStore(t *testing.T, opts ...engine.Option) (*engine.Store, *testutil.LogRecorder) {
	t.Helper()
	rec, logger := testutil.NewLogRecorder()
	base := []engine.Option{
		engine.WithLogger(logger),
		engine.WithFlowGenerator(testutil.NewSequenceFlowGenerator("flow")),
	}
	s, err := engine.New(counter(), append(base, opts...)...)
	require.NoError(t, err)
	return s, rec
}

func count(s *engine.Store) int {
	var n int
	s.Read(func(root *reactive.Object) { n = root.Int("count") })
	return n
}
