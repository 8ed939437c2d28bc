package engine

import "log/slog"

// Option configures a Store.
type Option func(*Store)

// Plugin is called once with the constructed store, in the order given.
// Plugins typically subscribe to mutations or actions.
type Plugin func(*Store)

// ActionErrorPolicy decides what a dispatch's Future reports when an
// action handler fails.
type ActionErrorPolicy int

const (
	// LogActionErrors logs the failure and resolves the Future with nil.
	LogActionErrors ActionErrorPolicy = iota

	// PropagateActionErrors logs the failure and rejects the Future with
	// the RuntimeError wrapping it.
	PropagateActionErrors
)

// WithStrict enables strict mode: any state change outside a mutation
// handler panics.
func WithStrict(strict bool) Option {
	return func(s *Store) {
		s.strict = strict
	}
}

// WithPlugins appends plugins, run at the end of New.
func WithPlugins(plugins ...Plugin) Option {
	return func(s *Store) {
		s.plugins = append(s.plugins, plugins...)
	}
}

// WithLogger sets the logger used for diagnostics. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock that stamps Mutation.Seq.
func WithClock(clock SeqClock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithFlowGenerator sets the generator for top-level dispatch flow tokens.
func WithFlowGenerator(gen FlowTokenGenerator) Option {
	return func(s *Store) {
		if gen != nil {
			s.flowGen = gen
		}
	}
}

// WithActionErrors sets the action failure policy. Default: LogActionErrors.
func WithActionErrors(policy ActionErrorPolicy) Option {
	return func(s *Store) {
		s.actionErrors = policy
	}
}

// WithDiagnostics registers a handler that receives every reported
// diagnostic in addition to the log line. It runs after the store lock is
// released, so it may commit or read getters.
func WithDiagnostics(fn func(*RuntimeError)) Option {
	return func(s *Store) {
		s.diagnostics = fn
	}
}
