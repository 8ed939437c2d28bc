package plugin

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/reactive"
)

// Metrics exports store activity to reg:
//
//	vex_mutations_total{type}  non-silent commits
//	vex_actions_total{type}    dispatches of known actions
//	vex_last_seq               seq of the latest non-silent commit
//	vex_subscribers            current mutation subscriber count
//
// Collectors already registered on reg (by another store) are shared.
// Registration failures are logged and leave the store unmetered.
func Metrics(reg prometheus.Registerer) engine.Plugin {
	return func(s *engine.Store) {
		mutations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vex_mutations_total",
			Help: "Committed mutations by type.",
		}, []string{"type"}))
		if err != nil {
			s.Logger().Error("metrics registration failed", "metric", "vex_mutations_total", "error", err)
			return
		}
		actions, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vex_actions_total",
			Help: "Dispatched actions by type.",
		}, []string{"type"}))
		if err != nil {
			s.Logger().Error("metrics registration failed", "metric", "vex_actions_total", "error", err)
			return
		}
		lastSeq, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vex_last_seq",
			Help: "Seq of the latest committed mutation.",
		}))
		if err != nil {
			s.Logger().Error("metrics registration failed", "metric", "vex_last_seq", "error", err)
			return
		}
		_, err = register(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "vex_subscribers",
			Help: "Registered mutation subscribers.",
		}, func() float64 { return float64(s.SubscriberCount()) }))
		if err != nil {
			s.Logger().Error("metrics registration failed", "metric", "vex_subscribers", "error", err)
			return
		}

		s.SubscribeAction(func(a engine.Action, _ *reactive.Object) {
			actions.WithLabelValues(a.Type).Inc()
		})
		s.Subscribe(func(m engine.Mutation, _ *reactive.Object) {
			mutations.WithLabelValues(m.Type).Inc()
			lastSeq.Set(float64(m.Seq))
		})
	}
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
