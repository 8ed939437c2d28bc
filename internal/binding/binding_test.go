package binding

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vex/internal/catalog"
	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/testutil"
)

func newStore(t *testing.T) (*engine.Store, *testutil.LogRecorder) {
	t.Helper()
	root, err := catalog.Build("counter", "todos")
	require.NoError(t, err)
	rec, logger := testutil.NewLogRecorder()
	s, err := engine.New(root, engine.WithLogger(logger))
	require.NoError(t, err)
	return s, rec
}

func TestNames(t *testing.T) {
	assert.Equal(t, map[string]string{"a": "a", "b": "b"}, Names("a", "b"))
}

func TestMapState(t *testing.T) {
	s, _ := newStore(t)
	state := MapState(s, map[string]string{
		"count":   "counter/count",
		"filter":  "todos/filter",
		"counter": "counter",
		"missing": "nope/deeper",
	})

	s.Commit("increment", 4)
	assert.Equal(t, 4, state["count"]())
	assert.Equal(t, "all", state["filter"]())
	assert.Equal(t, map[string]any{"count": 4}, state["counter"]())
	assert.Nil(t, state["missing"]())
}

func TestMapStateFunc(t *testing.T) {
	s, _ := newStore(t)
	state := MapStateFunc(s, map[string]StateFunc{
		"summary": func(root *reactive.Object, get func(string) any) any {
			return map[string]any{
				"count":  root.Object("counter").Int("count"),
				"double": get("doubleCount"),
			}
		},
	})

	s.Commit("increment", 2)
	assert.Equal(t, map[string]any{"count": 2, "double": 4}, state["summary"]())
}

func TestMapGetters(t *testing.T) {
	s, rec := newStore(t)
	getters := MapGetters(s, map[string]string{
		"double": "doubleCount",
		"ghost":  "notAGetter",
	})

	s.Commit("increment", nil)
	assert.Equal(t, 2, getters["double"]())
	assert.Nil(t, getters["ghost"]())
	assert.Contains(t, rec.Messages(slog.LevelError), "unknown getter")
}

func TestMapMutationsAndActions(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	mutations := MapMutations(s, map[string]string{"add": "addTodo", "inc": "increment"})
	actions := MapActions(s, Names("incrementIfOdd", "addTodo"))

	mutations["inc"](nil)
	mutations["add"]("first")

	odd, err := actions["incrementIfOdd"](ctx, nil).Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, odd)

	_, err = actions["addTodo"](ctx, "second").Wait(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Getter("remaining"))
	assert.Equal(t, 4, s.Getter("doubleCount"))
}

type todo struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type todosView struct {
	Items  []todo `json:"items"`
	NextID int    `json:"nextId"`
	Filter string `json:"filter"`
}

func TestDecode(t *testing.T) {
	s, _ := newStore(t)
	s.Commit("addTodo", "write docs")
	s.Commit("toggleTodo", 1)

	var view todosView
	require.NoError(t, Decode(s, "todos", &view))
	assert.Equal(t, todosView{
		Items:  []todo{{ID: 1, Text: "write docs", Done: true}},
		NextID: 2,
		Filter: "all",
	}, view)

	var count int
	require.NoError(t, Decode(s, "counter/count", &count))
	assert.Zero(t, count)
}

func TestDecodeMissingPath(t *testing.T) {
	s, _ := newStore(t)
	var out map[string]any
	err := Decode(s, "nope", &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no state at path")
}
