package engine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vex/internal/reactive"
)

func actionReturning(v any) ActionFunc {
	return func(context.Context, *ActionContext, any) (any, error) { return v, nil }
}

func TestDispatch_SingleHandlerResult(t *testing.T) {
	root := counterModule(0)
	root.Actions = map[string]ActionHandler{
		"incrementTwice": ActionFunc(func(_ context.Context, ac *ActionContext, _ any) (any, error) {
			ac.Commit("increment", nil)
			ac.Commit("increment", nil)
			return ac.State().Int("count"), nil
		}),
	}
	s, _, _ := newTestStore(t, root)

	v, err := wait(t, s.Dispatch(context.Background(), "incrementTwice", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, s.State().Int("count"))
}

func TestDispatch_AwaitsReturnedFuture(t *testing.T) {
	root := counterModule(0)
	root.Actions = map[string]ActionHandler{
		"incrementAsync": ActionFunc(func(_ context.Context, ac *ActionContext, payload any) (any, error) {
			return Go(func() (any, error) {
				ac.Commit("increment", payload)
				return "done", nil
			}), nil
		}),
	}
	s, _, _ := newTestStore(t, root)

	v, err := wait(t, s.Dispatch(context.Background(), "incrementAsync", 3))
	require.NoError(t, err)
	assert.Equal(t, "done", v)
	s.Read(func(state *reactive.Object) { assert.Equal(t, 3, state.Int("count")) })
}

func TestDispatch_FanOutWaitsForAll(t *testing.T) {
	release := make(chan struct{})
	root := &Module{Modules: map[string]*Module{
		"a": {Actions: map[string]ActionHandler{"load": actionReturning(1)}},
		"b": {Actions: map[string]ActionHandler{"load": ActionFunc(func(context.Context, *ActionContext, any) (any, error) {
			return Go(func() (any, error) {
				<-release
				return 2, nil
			}), nil
		})}},
	}}
	s, _, _ := newTestStore(t, root)

	f := s.Dispatch(context.Background(), "load", nil)
	assert.False(t, f.Settled(), "one handler is still pending")

	close(release)
	v, err := wait(t, f)
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, v)
}

func TestDispatch_UnknownActionResolvesNil(t *testing.T) {
	s, diag, rec := newTestStore(t, counterModule(0))

	f := s.Dispatch(context.Background(), "nope", nil)
	require.True(t, f.Settled())
	v, err := wait(t, f)
	assert.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, []RuntimeErrorCode{ErrCodeUnknownAction}, diag.codes())
	assert.Len(t, rec.Find(string(ErrCodeUnknownAction)), 1)
}

var errBackend = errors.New("backend unavailable")

func failingModule() *Module {
	return &Module{Actions: map[string]ActionHandler{
		"fail": ActionFunc(func(context.Context, *ActionContext, any) (any, error) {
			return nil, errBackend
		}),
		"failLater": ActionFunc(func(context.Context, *ActionContext, any) (any, error) {
			return Go(func() (any, error) { return nil, errBackend }), nil
		}),
	}}
}

func TestDispatch_FailureIsLoggedNotPropagated(t *testing.T) {
	s, diag, rec := newTestStore(t, failingModule())

	for _, name := range []string{"fail", "failLater"} {
		v, err := wait(t, s.Dispatch(context.Background(), name, nil))
		assert.NoError(t, err, name)
		assert.Nil(t, v, name)
	}
	assert.Equal(t, []RuntimeErrorCode{ErrCodeActionFailed, ErrCodeActionFailed}, diag.codes())

	entries := rec.Find(string(ErrCodeActionFailed))
	require.Len(t, entries, 2)
	assert.Equal(t, "fail", entries[0].Attrs["type"])
}

func TestDispatch_PropagateActionErrors(t *testing.T) {
	s, _, _ := newTestStore(t, failingModule(), WithActionErrors(PropagateActionErrors))

	for _, name := range []string{"fail", "failLater"} {
		_, err := wait(t, s.Dispatch(context.Background(), name, nil))
		require.Error(t, err, name)
		assert.ErrorIs(t, err, errBackend)

		var re *RuntimeError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, ErrCodeActionFailed, re.Code)
		assert.Equal(t, name, re.Type)
	}
}

func TestDispatch_FanOutRejectionStillWaitsForAll(t *testing.T) {
	root := &Module{Modules: map[string]*Module{
		"a": {Actions: map[string]ActionHandler{"sync": ActionFunc(func(context.Context, *ActionContext, any) (any, error) {
			return nil, errBackend
		})}},
		"b": {Actions: map[string]ActionHandler{"sync": actionReturning("ok")}},
	}}
	s, _, _ := newTestStore(t, root, WithActionErrors(PropagateActionErrors))

	_, err := wait(t, s.Dispatch(context.Background(), "sync", nil))
	assert.ErrorIs(t, err, errBackend)
}

func TestDispatch_FanOutFailureKeepsOtherResults(t *testing.T) {
	root := &Module{Modules: map[string]*Module{
		"a": {Actions: map[string]ActionHandler{"sync": ActionFunc(func(context.Context, *ActionContext, any) (any, error) {
			return nil, errBackend
		})}},
		"b": {Actions: map[string]ActionHandler{"sync": actionReturning("ok")}},
		"c": {Actions: map[string]ActionHandler{"sync": ActionFunc(func(context.Context, *ActionContext, any) (any, error) {
			return Go(func() (any, error) { return nil, errBackend }), nil
		})}},
	}}
	s, diag, rec := newTestStore(t, root)

	v, err := wait(t, s.Dispatch(context.Background(), "sync", nil))
	require.NoError(t, err)
	assert.Equal(t, []any{nil, "ok", nil}, v)
	assert.Equal(t, []RuntimeErrorCode{ErrCodeActionFailed, ErrCodeActionFailed}, diag.codes())
	assert.Len(t, rec.Find(string(ErrCodeActionFailed)), 2, "one log line per failed handler")
}

func TestDispatch_FlowPropagation(t *testing.T) {
	root := counterModule(0)
	root.Actions = map[string]ActionHandler{
		"outer": ActionFunc(func(ctx context.Context, ac *ActionContext, _ any) (any, error) {
			ac.Commit("increment", nil)
			return ac.Dispatch(ctx, "inner", nil), nil
		}),
		"inner": ActionFunc(func(_ context.Context, ac *ActionContext, _ any) (any, error) {
			ac.Commit("increment", nil)
			return ac.Flow(), nil
		}),
	}
	s, _, _ := newTestStore(t, root)

	var flows []string
	s.Subscribe(func(m Mutation, _ *reactive.Object) { flows = append(flows, m.Flow) })
	var actionFlows []string
	s.SubscribeAction(func(a Action, _ *reactive.Object) { actionFlows = append(actionFlows, a.Flow) })

	v, err := wait(t, s.Dispatch(context.Background(), "outer", nil))
	require.NoError(t, err)
	assert.Equal(t, "flow-1", v)
	assert.Equal(t, []string{"flow-1", "flow-1"}, flows)
	assert.Equal(t, []string{"flow-1", "flow-1"}, actionFlows)

	_, err = wait(t, s.Dispatch(WithFlow(context.Background(), "request-7"), "inner", nil))
	require.NoError(t, err)
	assert.Equal(t, "request-7", flows[2])

	s.Commit("increment", nil)
	assert.Equal(t, "", flows[3], "direct commits carry no flow")
}

func TestDispatch_ActionSubscribersSeeActionBeforeHandlers(t *testing.T) {
	root := counterModule(0)
	var order []string
	root.Actions = map[string]ActionHandler{
		"go": ActionFunc(func(context.Context, *ActionContext, any) (any, error) {
			order = append(order, "handler")
			return nil, nil
		}),
	}
	s, _, _ := newTestStore(t, root)
	unsubscribe := s.SubscribeAction(func(a Action, _ *reactive.Object) {
		order = append(order, "subscriber:"+a.Type)
	})

	_, _ = wait(t, s.Dispatch(context.Background(), "go", nil))
	unsubscribe()
	_, _ = wait(t, s.Dispatch(context.Background(), "go", nil))

	assert.Equal(t, []string{"subscriber:go", "handler", "handler"}, order)
}

func TestDispatch_ActionContextScopedToModule(t *testing.T) {
	var sub, root *reactive.Object
	var path string
	mod := &Module{Modules: map[string]*Module{
		"cart": {
			State: map[string]any{"items": 2},
			Actions: map[string]ActionHandler{"inspect": ActionFunc(func(_ context.Context, ac *ActionContext, _ any) (any, error) {
				sub = ac.State()
				root = ac.RootState()
				path = ac.Path().String()
				return ac.Getter("itemCount"), nil
			})},
			Getters: map[string]GetterFunc{"itemCount": func(state *reactive.Object, _ GetterView) any {
				return state.Int("items")
			}},
		},
	}}
	s, _, _ := newTestStore(t, mod)

	v, err := wait(t, s.Dispatch(context.Background(), "inspect", nil))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, "cart", path)
	assert.Same(t, s.State().Object("cart"), sub)
	assert.Same(t, s.State(), root)
}

func TestDispatch_ConcurrentAsyncCommitsSerialize(t *testing.T) {
	root := counterModule(0)
	root.Actions = map[string]ActionHandler{
		"incrementAsync": ActionFunc(func(_ context.Context, ac *ActionContext, _ any) (any, error) {
			return Go(func() (any, error) {
				ac.Commit("increment", nil)
				return nil, nil
			}), nil
		}),
	}
	s, err := New(root)
	require.NoError(t, err)

	const n = 100
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = wait(t, s.Dispatch(context.Background(), "incrementAsync", nil))
		}()
	}
	wg.Wait()

	s.Read(func(state *reactive.Object) { assert.Equal(t, n, state.Int("count")) })
}

func TestDispatch_ConcurrentWithGetterReads(t *testing.T) {
	root := counterModule(0)
	root.Actions = map[string]ActionHandler{
		"inc": ActionFunc(func(_ context.Context, ac *ActionContext, _ any) (any, error) {
			ac.Commit("increment", nil)
			return nil, nil
		}),
	}
	s, err := New(root)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		s.SubscribeAction(func(Action, *reactive.Object) {})
	}

	const n = 200
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			_, _ = wait(t, s.Dispatch(context.Background(), "inc", nil))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.Getter("doubleCount")
		}
	}()
	wg.Wait()

	assert.Equal(t, 2*n, s.Getter("doubleCount"))
}
