// Package vex is a centralized state store whose state changes only
// through named mutations.
//
// A store is composed from a tree of modules. Each module contributes
// state, mutations (synchronous state changes), actions (which may be
// asynchronous and commit mutations) and getters (cached derived values).
// Subscribers see every committed mutation in order.
//
//	s, err := vex.New(&vex.Module{
//		State: map[string]any{"count": 0},
//		Mutations: map[string]vex.MutationHandler{
//			"increment": vex.MutationFunc(func(state *vex.Object, _ any) {
//				state.Set("count", state.Int("count")+1)
//			}),
//		},
//	})
//	s.Commit("increment", nil)
package vex

import (
	"github.com/roach88/vex/internal/binding"
	"github.com/roach88/vex/internal/engine"
	"github.com/roach88/vex/internal/plugin"
	"github.com/roach88/vex/internal/reactive"
)

type (
	Store    = engine.Store
	Module   = engine.Module
	Fragment = engine.Fragment

	Mutation        = engine.Mutation
	MutationHandler = engine.MutationHandler
	MutationFunc    = engine.MutationFunc
	Action          = engine.Action
	ActionHandler   = engine.ActionHandler
	ActionFunc      = engine.ActionFunc
	ActionContext   = engine.ActionContext
	GetterFunc      = engine.GetterFunc
	GetterView      = engine.GetterView
	Future          = engine.Future

	Subscriber           = engine.Subscriber
	SubscriberFunc       = engine.SubscriberFunc
	ActionSubscriber     = engine.ActionSubscriber
	ActionSubscriberFunc = engine.ActionSubscriberFunc

	Option             = engine.Option
	Plugin             = engine.Plugin
	ActionErrorPolicy  = engine.ActionErrorPolicy
	SeqClock           = engine.SeqClock
	FlowTokenGenerator = engine.FlowTokenGenerator

	RuntimeError     = engine.RuntimeError
	RuntimeErrorCode = engine.RuntimeErrorCode

	// Object is the observable state container handed to mutation
	// handlers and getters.
	Object = reactive.Object
	// Array is an observable list inside an Object.
	Array = reactive.Array

	StateFunc = binding.StateFunc
)

// Action error policies.
const (
	LogActionErrors       = engine.LogActionErrors
	PropagateActionErrors = engine.PropagateActionErrors
)

// New creates a store from root.
func New(root *Module, opts ...Option) (*Store, error) {
	return engine.New(root, opts...)
}

var (
	WithStrict        = engine.WithStrict
	WithPlugins       = engine.WithPlugins
	WithLogger        = engine.WithLogger
	WithClock         = engine.WithClock
	WithFlowGenerator = engine.WithFlowGenerator
	WithActionErrors  = engine.WithActionErrors
	WithDiagnostics   = engine.WithDiagnostics

	// Go runs fn in a goroutine and returns its Future. Actions return it
	// to commit asynchronously.
	Go       = engine.Go
	All      = engine.All
	Resolved = engine.Resolved
	Rejected = engine.Rejected

	IsStrictViolation = engine.IsStrictViolation
	IsConfigError     = engine.IsConfigError
	IsUnknownDispatch = engine.IsUnknownDispatch

	// LoggerPlugin logs every dispatch and commit.
	LoggerPlugin = plugin.Logger
	// MetricsPlugin exports store activity to a Prometheus registerer.
	MetricsPlugin = plugin.Metrics

	// Binding helpers hand out named accessors so view code never holds
	// the store itself.
	Names        = binding.Names
	MapState     = binding.MapState
	MapStateFunc = binding.MapStateFunc
	MapGetters   = binding.MapGetters
	MapMutations = binding.MapMutations
	MapActions   = binding.MapActions
	Decode       = binding.Decode
)
