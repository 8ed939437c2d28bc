package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/testutil"
)

func increment() MutationFunc {
	return func(state *reactive.Object, payload any) {
		by := 1
		if n, ok := reactive.ToInt(payload); ok {
			by = n
		}
		state.Set("count", state.Int("count")+by)
	}
}

func doubleCount(state *reactive.Object, _ GetterView) any {
	return state.Int("count") * 2
}

func counterModule(count int) *Module {
	return &Module{
		State:     map[string]any{"count": count},
		Mutations: map[string]MutationHandler{"increment": increment()},
		Getters:   map[string]GetterFunc{"doubleCount": doubleCount},
	}
}

// diagnostics collects every reported RuntimeError.
type diagnostics struct {
	mu   sync.Mutex
	errs []*RuntimeError
}

func (d *diagnostics) record(err *RuntimeError) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs = append(d.errs, err)
}

func (d *diagnostics) codes() []RuntimeErrorCode {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]RuntimeErrorCode, len(d.errs))
	for i, e := range d.errs {
		out[i] = e.Code
	}
	return out
}

func newTestStore(t *testing.T, root *Module, opts ...Option) (*Store, *diagnostics, *testutil.LogRecorder) {
	t.Helper()
	rec, logger := testutil.NewLogRecorder()
	diag := &diagnostics{}
	base := []Option{
		WithLogger(logger),
		WithDiagnostics(diag.record),
		WithClock(testutil.NewDeterministicClock()),
		WithFlowGenerator(testutil.NewSequenceFlowGenerator("flow")),
	}
	s, err := New(root, append(base, opts...)...)
	require.NoError(t, err)
	return s, diag, rec
}

func wait(t *testing.T, f *Future) (any, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	return f.Wait(ctx)
}

// recoverError runs fn and returns the error it panicked with, if any.
func recoverError(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err, _ = r.(error)
		}
	}()
	fn()
	return nil
}
