package plugin

import (
	"log/slog"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/reactive"
)

// Logger logs every dispatch and every non-silent commit at info level.
// A nil logger falls back to the store's own.
func Logger(logger *slog.Logger) engine.Plugin {
	return func(s *engine.Store) {
		l := logger
		if l == nil {
			l = s.Logger()
		}
		s.SubscribeAction(func(a engine.Action, _ *reactive.Object) {
			l.Info("action", "type", a.Type, "flow", a.Flow, "payload", reactive.Plain(a.Payload))
		})
		s.Subscribe(func(m engine.Mutation, _ *reactive.Object) {
			l.Info("mutation", "type", m.Type, "seq", m.Seq, "flow", m.Flow, "payload", reactive.Plain(m.Payload))
		})
	}
}
