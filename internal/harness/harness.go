package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/roach88/vex/internal/catalog"
	"github.com/roach88/vex/internal/compiler"
	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/reactive"
	"github.com/roach88/vex/internal/testutil"
)

const defaultStepTimeout = 10 * time.Second

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	logger      *slog.Logger
	plugins     []engine.Plugin
	stepTimeout time.Duration
	clock       engine.SeqClock
	onStore     func(*engine.Store)
}

// WithLogger sets the store's logger. Default: logs are discarded.
func WithLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPlugins installs extra plugins after the trace recorder, such as the
// journal.
func WithPlugins(plugins ...engine.Plugin) RunOption {
	return func(c *runConfig) {
		c.plugins = append(c.plugins, plugins...)
	}
}

// WithStepTimeout bounds how long a dispatch step may take to settle.
// Default: 10s.
func WithStepTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		if d > 0 {
			c.stepTimeout = d
		}
	}
}

// WithClock replaces the deterministic clock starting at 0, e.g. with one
// resumed from a journal. Trace seqs come from this clock.
func WithClock(clock engine.SeqClock) RunOption {
	return func(c *runConfig) {
		c.clock = clock
	}
}

// WithStore hands the store to fn once every step has run, so callers can
// keep using it (e.g. to hot reload).
func WithStore(fn func(*engine.Store)) RunOption {
	return func(c *runConfig) {
		c.onStore = fn
	}
}

// harness executes one scenario against one store.
type harness struct {
	store   *engine.Store
	clock   engine.SeqClock
	timeout time.Duration

	mu     sync.Mutex
	result *Result
}

// Run executes a scenario and returns the result.
//
// Each run builds a fresh store from the scenario's modules. Step
// expectation failures and assertion failures are reported in the result;
// an error is returned only when the scenario cannot run at all.
func Run(scenario *Scenario, opts ...RunOption) (*Result, error) {
	cfg := runConfig{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		stepTimeout: defaultStepTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	root, err := catalog.BuildConfig(scenario.Modules)
	if err != nil {
		return nil, fmt.Errorf("build modules: %w", err)
	}
	if scenario.StateFile != "" {
		state, err := LoadState(scenario)
		if err != nil {
			return nil, err
		}
		root.State = state
	}

	var flowGen engine.FlowTokenGenerator = testutil.NewSequenceFlowGenerator("flow")
	if scenario.FlowToken != "" {
		flowGen = testutil.NewFixedFlowGenerator(scenario.FlowToken)
	}

	if cfg.clock == nil {
		cfg.clock = testutil.NewDeterministicClock()
	}
	h := &harness{
		clock:   cfg.clock,
		timeout: cfg.stepTimeout,
		result:  NewResult(),
	}
	plugins := append([]engine.Plugin{h.record}, cfg.plugins...)
	st, err := engine.New(root,
		engine.WithStrict(scenario.Strict),
		engine.WithLogger(cfg.logger),
		engine.WithClock(h.clock),
		engine.WithFlowGenerator(flowGen),
		engine.WithActionErrors(engine.PropagateActionErrors),
		engine.WithDiagnostics(h.diagnostic),
		engine.WithPlugins(plugins...),
	)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	h.store = st

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if msg := h.execute(ctx, i, step); msg != "" {
			h.fail(msg)
		}
		cfg.logger.Debug("step completed", "step", i, "kind", step.kind(), "seq", h.clock.Current())
	}

	st.Read(func(state *reactive.Object) {
		h.result.State = state.Plain()
	})

	actx := &AssertionContext{Getter: h.getter}
	for _, msg := range EvaluateAssertions(h.snapshot(), scenario.Assertions, actx) {
		h.fail(msg)
	}

	if cfg.onStore != nil {
		cfg.onStore(st)
	}
	return h.snapshot(), nil
}

// LoadState compiles the scenario's state file and checks that every
// module can mount on it.
func LoadState(scenario *Scenario) (map[string]any, error) {
	state, err := compiler.CompileStateFile(scenario.StateFile)
	if err != nil {
		return nil, fmt.Errorf("state file: %w", err)
	}
	mounts := make([]ir.Path, 0, len(scenario.Modules))
	for name := range scenario.Modules {
		mounts = append(mounts, ir.Path{name})
	}
	if errs := compiler.ValidateState(state, mounts); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return nil, fmt.Errorf("state file %s: %s", scenario.StateFile, strings.Join(msgs, "; "))
	}
	return state, nil
}

// execute runs one step and returns a failure message, or "".
func (h *harness) execute(ctx context.Context, i int, step Step) (msg string) {
	defer func() {
		if r := recover(); r != nil {
			msg = fmt.Sprintf("steps[%d]: %s panicked: %v", i, step.kind(), r)
		}
	}()

	switch {
	case step.Commit != "":
		h.store.CommitMutation(engine.Mutation{Type: step.Commit, Payload: step.Payload, Silent: step.Silent})
	case step.Dispatch != "":
		return h.dispatch(ctx, i, step)
	case step.ReplaceState != nil:
		h.store.ReplaceState(step.ReplaceState)
	case step.HotUpdate != nil:
		frag, err := catalog.Fragment(step.HotUpdate)
		if err != nil {
			return fmt.Sprintf("steps[%d]: hot_update: %v", i, err)
		}
		if err := h.store.HotUpdate(frag); err != nil {
			return fmt.Sprintf("steps[%d]: hot_update: %v", i, err)
		}
	}
	return ""
}

func (h *harness) dispatch(ctx context.Context, i int, step Step) string {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	value, err := h.store.Dispatch(ctx, step.Dispatch, step.Payload).Wait(ctx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return fmt.Sprintf("steps[%d]: dispatch %s did not settle within %s", i, step.Dispatch, h.timeout)
	}

	expect := step.Expect
	switch {
	case expect != nil && expect.Error != "":
		if err == nil {
			return fmt.Sprintf("steps[%d]: dispatch %s: expected error containing %q, got success", i, step.Dispatch, expect.Error)
		}
		if !strings.Contains(err.Error(), expect.Error) {
			return fmt.Sprintf("steps[%d]: dispatch %s: expected error containing %q, got %q", i, step.Dispatch, expect.Error, err.Error())
		}
	case err != nil:
		return fmt.Sprintf("steps[%d]: dispatch %s failed: %v", i, step.Dispatch, err)
	case expect != nil && expect.Result != nil:
		if !valuesEqual(value, expect.Result) {
			return fmt.Sprintf("steps[%d]: dispatch %s: result = %v, want %v", i, step.Dispatch, reactive.Plain(value), expect.Result)
		}
	}
	return ""
}

// record is the plugin that builds the trace.
func (h *harness) record(s *engine.Store) {
	s.SubscribeAction(func(a engine.Action, _ *reactive.Object) {
		h.trace(TraceEvent{
			Kind:    KindAction,
			Type:    a.Type,
			Payload: reactive.Plain(a.Payload),
			Flow:    a.Flow,
			Seq:     h.clock.Current(),
		})
	})
	s.Subscribe(func(m engine.Mutation, _ *reactive.Object) {
		h.trace(TraceEvent{
			Kind:    KindMutation,
			Type:    m.Type,
			Payload: reactive.Plain(m.Payload),
			Flow:    m.Flow,
			Seq:     m.Seq,
		})
	})
}

func (h *harness) trace(ev TraceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result.Trace = append(h.result.Trace, ev)
}

func (h *harness) diagnostic(err *engine.RuntimeError) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result.Diagnostics = append(h.result.Diagnostics, string(err.Code))
}

func (h *harness) fail(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result.AddError(msg)
}

func (h *harness) getter(name string) (any, bool) {
	for _, n := range h.store.GetterNames() {
		if n == name {
			return h.store.Getter(name), true
		}
	}
	return nil, false
}

// snapshot copies the result so late async commits cannot race callers.
func (h *harness) snapshot() *Result {
	h.mu.Lock()
	defer h.mu.Unlock()
	r := *h.result
	r.Trace = append([]TraceEvent{}, h.result.Trace...)
	r.Errors = append([]string{}, h.result.Errors...)
	r.Diagnostics = append([]string(nil), h.result.Diagnostics...)
	return &r
}
