package catalog

import (
	"context"
	"time"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/reactive"
)

// CounterOptions configures Counter.
type CounterOptions struct {
	// Step is added by increment when the payload carries no amount.
	// Zero means 1.
	Step int `mapstructure:"step"`
}

// Counter is a module holding {count}.
//
// Mutations: increment (payload: amount), decrement, reset.
// Actions: increment, decrement, incrementIfOdd, incrementAsync (payload:
// delay in milliseconds).
// Getters: doubleCount, parity.
func Counter(opts CounterOptions) *engine.Module {
	step := opts.Step
	if step == 0 {
		step = 1
	}
	return &engine.Module{
		State: map[string]any{"count": 0},
		Mutations: map[string]engine.MutationHandler{
			"increment": engine.MutationFunc(func(state *reactive.Object, payload any) {
				by := step
				if n, ok := reactive.ToInt(payload); ok {
					by = n
				}
				state.Set("count", state.Int("count")+by)
			}),
			"decrement": engine.MutationFunc(func(state *reactive.Object, _ any) {
				state.Set("count", state.Int("count")-step)
			}),
			"reset": engine.MutationFunc(func(state *reactive.Object, _ any) {
				state.Set("count", 0)
			}),
		},
		Actions: map[string]engine.ActionHandler{
			"increment":      commitAction("increment"),
			"decrement":      commitAction("decrement"),
			"incrementIfOdd": engine.ActionFunc(incrementIfOdd),
			"incrementAsync": engine.ActionFunc(incrementAsync),
		},
		Getters: map[string]engine.GetterFunc{
			"doubleCount": func(state *reactive.Object, _ engine.GetterView) any {
				return state.Int("count") * 2
			},
			"parity": func(state *reactive.Object, _ engine.GetterView) any {
				if state.Int("count")%2 == 0 {
					return "even"
				}
				return "odd"
			},
		},
	}
}

// commitAction is an action that only commits the mutation of the same
// payload.
func commitAction(mutation string) engine.ActionFunc {
	return func(_ context.Context, ac *engine.ActionContext, payload any) (any, error) {
		ac.Commit(mutation, payload)
		return nil, nil
	}
}

func incrementIfOdd(_ context.Context, ac *engine.ActionContext, _ any) (any, error) {
	var odd bool
	ac.Read(func(state *reactive.Object) {
		odd = state.Int("count")%2 != 0
	})
	if odd {
		ac.Commit("increment", nil)
	}
	return odd, nil
}

func incrementAsync(ctx context.Context, ac *engine.ActionContext, payload any) (any, error) {
	delay, _ := reactive.ToInt(payload)
	return engine.Go(func() (any, error) {
		if delay > 0 {
			t := time.NewTimer(time.Duration(delay) * time.Millisecond)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-t.C:
			}
		}
		ac.Commit("increment", nil)
		return nil, nil
	}), nil
}
