package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/testutil"
)

func newStore(t *testing.T, cfg Config) *engine.Store {
	t.Helper()
	root, err := BuildConfig(cfg)
	require.NoError(t, err)
	_, logger := testutil.NewLogRecorder()
	s, err := engine.New(root, engine.WithLogger(logger), engine.WithStrict(true),
		engine.WithActionErrors(engine.PropagateActionErrors))
	require.NoError(t, err)
	return s
}

func plain(s *engine.Store, key string) map[string]any {
	var out map[string]any
	s.Read(func(root *reactive.Object) { out = root.Object(key).Plain() })
	return out
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"audit", "counter", "todos"}, Names())
}

func TestBuildUnknownModule(t *testing.T) {
	_, err := Build("counter", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown module "nope"`)
}

func TestBuildRejectsUnknownOption(t *testing.T) {
	_, err := BuildConfig(Config{"counter": {"stride": 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `module "counter" options`)
}

func TestCounter(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, Config{"counter": {"step": "2"}})

	s.Commit("increment", nil)
	assert.Equal(t, 2, plain(s, "counter")["count"])
	s.Commit("increment", 5)
	assert.Equal(t, 7, plain(s, "counter")["count"])
	assert.Equal(t, 14, s.Getter("doubleCount"))
	assert.Equal(t, "odd", s.Getter("parity"))

	odd, err := s.Dispatch(ctx, "incrementIfOdd", nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, odd)
	assert.Equal(t, 9, plain(s, "counter")["count"])

	s.Commit("increment", 1)
	odd, err = s.Dispatch(ctx, "incrementIfOdd", nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, false, odd)
	assert.Equal(t, 10, plain(s, "counter")["count"])

	s.Commit("decrement", nil)
	assert.Equal(t, 8, plain(s, "counter")["count"])
	s.Commit("reset", nil)
	assert.Equal(t, 0, plain(s, "counter")["count"])
}

func TestCounterIncrementAsync(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s := newStore(t, Config{"counter": nil})

	_, err := s.Dispatch(ctx, "incrementAsync", 5).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, plain(s, "counter")["count"])
}

func TestTodos(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, Config{"todos": nil})

	text, err := s.Dispatch(ctx, "addTodo", "  write tests ").Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "write tests", text)
	s.Commit("addTodo", map[string]any{"text": "ship"})
	s.Commit("addTodo", "review")

	assert.Equal(t, 3, s.Getter("remaining"))
	s.Commit("toggleTodo", 1)
	s.Commit("toggleTodo", 3)
	assert.Equal(t, 1, s.Getter("remaining"))
	assert.Equal(t, 2, s.Getter("doneCount"))
	assert.Equal(t, false, s.Getter("allDone"))

	s.Commit("setFilter", FilterActive)
	assert.Equal(t, []any{
		map[string]any{"id": 2, "text": "ship", "done": false},
	}, s.Getter("visible"))

	s.Commit("setFilter", "bogus")
	assert.Equal(t, FilterActive, plain(s, "todos")["filter"])

	s.Commit("editTodo", map[string]any{"id": 2, "text": "ship it"})
	s.Commit("clearCompleted", nil)
	assert.Equal(t, []any{
		map[string]any{"id": 2, "text": "ship it", "done": false},
	}, plain(s, "todos")["items"])

	s.Commit("toggleAll", true)
	assert.Equal(t, true, s.Getter("allDone"))

	s.Commit("deleteTodo", 2)
	assert.Equal(t, []any{}, plain(s, "todos")["items"])
	assert.Equal(t, false, s.Getter("allDone"))
	assert.Equal(t, 4, plain(s, "todos")["nextId"])
}

func TestTodosRejectsBlank(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, Config{"todos": nil})

	_, err := s.Dispatch(ctx, "addTodo", "   ").Wait(ctx)
	require.ErrorIs(t, err, ErrEmptyTodo)
	assert.Equal(t, 0, s.Getter("remaining"))
}

func TestAuditListensAcrossModules(t *testing.T) {
	s := newStore(t, Config{"counter": nil, "todos": nil, "audit": {"limit": 3}})

	s.Commit("increment", nil)
	s.Commit("addTodo", "a")
	s.Commit("reset", nil)

	assert.Equal(t, 0, plain(s, "counter")["count"])
	assert.Equal(t, []any{}, plain(s, "todos")["items"])
	assert.Equal(t, 3, s.Getter("entryCount"))
	assert.Equal(t, "reset", s.Getter("lastEntry"))

	s.Commit("decrement", nil)
	entries := plain(s, "audit")["entries"].([]any)
	require.Len(t, entries, 3)
	assert.Equal(t, "addTodo", entries[0].(map[string]any)["type"])
}

func TestFragmentMountsNewModule(t *testing.T) {
	s := newStore(t, Config{"counter": nil})
	s.Commit("increment", nil)

	frag, err := Fragment(Config{"counter": {"step": 10}, "todos": nil})
	require.NoError(t, err)
	require.NoError(t, s.HotUpdate(frag))

	assert.Equal(t, 1, plain(s, "counter")["count"], "existing state kept")
	s.Commit("increment", nil)
	assert.Equal(t, 11, plain(s, "counter")["count"])
	assert.Equal(t, FilterAll, plain(s, "todos")["filter"])
	assert.Contains(t, s.GetterNames(), "remaining")
}
