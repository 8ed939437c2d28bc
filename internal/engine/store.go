package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/vex/internal/reactive"
)

// Store is a module-composed, mutation-gated state container.
type Store struct {
	mu sync.Mutex

	g      *reactive.Graph
	holder *holder
	root   *Module // retained, merged descriptor for hot updates

	mutations *registry[boundMutation]
	actions   *registry[boundAction]

	subs       subscriberList[Subscriber]
	actionSubs subscriberList[ActionSubscriber]

	committing bool
	strict     bool

	plugins      []Plugin
	logger       *slog.Logger
	clock        SeqClock
	flowGen      FlowTokenGenerator
	actionErrors ActionErrorPolicy
	diagnostics  func(*RuntimeError)
	pending      []*RuntimeError // reported under mu, delivered after unlock
}

// New composes root into a store. A nil root yields an empty store.
//
// The root module's State is the initial tree; child modules install their
// defaults under their keys. A malformed module tree is returned as a
// configuration error. Plugins run last, in order.
func New(root *Module, opts ...Option) (*Store, error) {
	s := &Store{
		g:       reactive.NewGraph(),
		root:    cloneModule(root),
		logger:  slog.Default(),
		clock:   NewClock(),
		flowGen: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(s)
	}

	state := reactive.NewObject(s.g, s.root.State)
	c := newComposition(true)
	if err := s.compose(c, state, s.root); err != nil {
		return nil, err
	}
	s.mutations = c.mutations
	s.actions = c.actions
	s.holder = newHolder(s.g, state, c.getters)
	if s.strict {
		s.enableStrict(s.holder)
	}
	s.flushDiagnostics()

	for _, plugin := range s.plugins {
		plugin(s)
	}
	return s, nil
}

// State returns the root of the live state tree.
//
// The tree is not goroutine-safe. Use Read from goroutines other than the
// one committing.
func (s *Store) State() *reactive.Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rootState()
}

// rootState returns the root without registering a dependency. The caller
// holds s.mu.
func (s *Store) rootState() *reactive.Object {
	var root *reactive.Object
	s.g.Untracked(func() {
		root, _ = s.holder.obj.Get(stateKey).(*reactive.Object)
	})
	return root
}

// SetState always fails: the root is replaced only through ReplaceState.
func (s *Store) SetState(any) error {
	err := &RuntimeError{
		Code:    ErrCodeDirectStateWrite,
		Message: "use ReplaceState to explicitly replace store state",
	}
	s.logger.Error("direct state write rejected", "error", err)
	return err
}

// ReplaceState swaps the whole tree for state inside the committing phase.
// Subscribers are not notified. Handlers whose module subtree is missing
// from the new tree are skipped with a diagnostic until it reappears.
func (s *Store) ReplaceState(state map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := reactive.NewObject(s.g, state)
	s.withCommit(func() {
		s.holder.obj.Set(stateKey, next)
	})
	s.logger.Debug("state replaced", "keys", len(state))
}

// Read runs fn with the root state while holding the store lock.
func (s *Store) Read(fn func(state *reactive.Object)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rootState())
}

// Strict reports whether strict mode is enabled.
func (s *Store) Strict() bool {
	return s.strict
}

// Logger returns the store's logger, for plugins that log alongside it.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// MutationNames lists registered mutation names in lexical order.
func (s *Store) MutationNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations.names()
}

// ActionNames lists registered action names in lexical order.
func (s *Store) ActionNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.actions.names()
}

// withCommit runs fn in the committing phase. The previous phase is
// restored even if fn panics.
func (s *Store) withCommit(fn func()) {
	prev := s.committing
	s.committing = true
	defer func() { s.committing = prev }()
	fn()
}

// report logs a diagnostic and forwards it to the diagnostics handler.
// Callers holding s.mu use reportLocked.
func (s *Store) report(ctx context.Context, level slog.Level, err *RuntimeError) {
	s.logDiagnostic(ctx, level, err)
	if s.diagnostics != nil {
		s.diagnostics(err)
	}
}

// reportLocked logs a diagnostic and queues it for the diagnostics handler
// until flushDiagnostics runs outside the lock.
func (s *Store) reportLocked(ctx context.Context, level slog.Level, err *RuntimeError) {
	s.logDiagnostic(ctx, level, err)
	if s.diagnostics != nil {
		s.pending = append(s.pending, err)
	}
}

// flushDiagnostics delivers queued diagnostics. The caller must not hold
// s.mu.
func (s *Store) flushDiagnostics() {
	if s.diagnostics == nil {
		return
	}
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, err := range pending {
		s.diagnostics(err)
	}
}

func (s *Store) logDiagnostic(ctx context.Context, level slog.Level, err *RuntimeError) {
	attrs := []any{"code", string(err.Code)}
	if err.Type != "" {
		attrs = append(attrs, "type", err.Type)
	}
	if err.Path != "" {
		attrs = append(attrs, "path", err.Path)
	}
	if err.FlowToken != "" {
		attrs = append(attrs, "flow", err.FlowToken)
	}
	if err.Err != nil {
		attrs = append(attrs, "error", err.Err)
	}
	s.logger.Log(ctx, level, err.Message, attrs...)
}
