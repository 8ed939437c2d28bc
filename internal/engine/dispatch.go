package engine

import (
	"context"
	"log/slog"
)

// Action describes one dispatch.
type Action struct {
	Type    string
	Payload any

	// Flow correlates the dispatch with the commits it causes. Empty means
	// take it from the context, or generate a new one.
	Flow string
}

// Dispatch runs the action handlers registered under typ.
func (s *Store) Dispatch(ctx context.Context, typ string, payload any) *Future {
	return s.DispatchAction(ctx, Action{Type: typ, Payload: payload})
}

// DispatchAction notifies action subscribers, then calls every handler
// registered under a.Type in registration order. With one handler the
// Future carries its result; with several it settles once all of them
// have, carrying a []any. An unknown type is reported and yields a Future
// resolved with nil.
//
// A failed handler is reported as ACTION_FAILED. Under LogActionErrors its
// result is nil and the Future still resolves; under PropagateActionErrors
// the Future rejects, joining every failure.
func (s *Store) DispatchAction(ctx context.Context, a Action) *Future {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.Flow == "" {
		a.Flow = FlowFromContext(ctx)
	}
	if a.Flow == "" {
		a.Flow = s.flowGen.Generate()
	}
	ctx = WithFlow(ctx, a.Flow)

	s.mu.Lock()
	entries := s.actions.get(a.Type)
	root := s.rootState()
	s.mu.Unlock()

	if len(entries) == 0 {
		s.report(ctx, slog.LevelError, &RuntimeError{
			Code:      ErrCodeUnknownAction,
			Message:   "unknown action type",
			Type:      a.Type,
			FlowToken: a.Flow,
		})
		return Resolved(nil)
	}

	for _, sub := range s.actionSubs.snapshot() {
		sub.OnAction(a, root)
	}
	s.logger.Debug("action dispatched", "type", a.Type, "flow", a.Flow, "handlers", len(entries))

	if len(entries) == 1 {
		return s.guard(ctx, a, s.invoke(ctx, entries[0], a))
	}
	// Each handler is guarded on its own so one failure does not discard
	// the other results.
	futures := make([]*Future, len(entries))
	for i, e := range entries {
		futures[i] = s.guard(ctx, a, s.invoke(ctx, e, a))
	}
	return All(futures...)
}

// invoke calls one handler and coerces its result into a Future.
func (s *Store) invoke(ctx context.Context, e boundAction, a Action) *Future {
	ac := &ActionContext{store: s, path: e.path, flow: a.Flow}
	res, err := e.handler.Act(ctx, ac, a.Payload)
	if err != nil {
		return Rejected(err)
	}
	if f, ok := res.(*Future); ok && f != nil {
		return f
	}
	return Resolved(res)
}

// guard applies the action error policy to f. Already settled futures are
// handled synchronously so synchronous failures are reported before
// Dispatch returns.
func (s *Store) guard(ctx context.Context, a Action, f *Future) *Future {
	if f.Settled() {
		return s.settleGuarded(ctx, a, f)
	}
	out := newFuture()
	go func() {
		<-f.done
		g := s.settleGuarded(ctx, a, f)
		out.settle(g.value, g.err)
	}()
	return out
}

func (s *Store) settleGuarded(ctx context.Context, a Action, f *Future) *Future {
	if f.err == nil {
		return f
	}
	err := &RuntimeError{
		Code:      ErrCodeActionFailed,
		Message:   "action failed",
		Type:      a.Type,
		FlowToken: a.Flow,
		Err:       f.err,
	}
	s.report(context.WithoutCancel(ctx), slog.LevelError, err)
	if s.actionErrors == PropagateActionErrors {
		return Rejected(err)
	}
	return Resolved(nil)
}
