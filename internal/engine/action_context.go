package engine

import (
	"context"

	"github.com/roach88/vex/internal/ir"
	"github.com/roach88/vex/internal/reactive"
)

// ActionContext is the capability an action handler receives. It is bound
// to the registering module's path and to the dispatch's flow.
type ActionContext struct {
	store *Store
	path  ir.Path
	flow  string
}

// Commit commits a mutation within the action's flow.
func (ac *ActionContext) Commit(typ string, payload any) {
	ac.CommitMutation(Mutation{Type: typ, Payload: payload})
}

// CommitMutation commits m, filling in the action's flow if m has none.
func (ac *ActionContext) CommitMutation(m Mutation) {
	if m.Flow == "" {
		m.Flow = ac.flow
	}
	ac.store.CommitMutation(m)
}

// Dispatch dispatches another action within the same flow.
func (ac *ActionContext) Dispatch(ctx context.Context, typ string, payload any) *Future {
	if ctx == nil {
		ctx = context.Background()
	}
	return ac.store.DispatchAction(WithFlow(ctx, ac.flow), Action{Type: typ, Payload: payload, Flow: ac.flow})
}

// State returns the module's sub-state. Handlers running on another
// goroutine read through Read instead.
func (ac *ActionContext) State() *reactive.Object {
	ac.store.mu.Lock()
	defer ac.store.mu.Unlock()
	return ac.store.subState(ac.path)
}

// RootState returns the root of the state tree.
func (ac *ActionContext) RootState() *reactive.Object {
	return ac.store.State()
}

// Read runs fn with the module's sub-state under the store lock.
func (ac *ActionContext) Read(fn func(state *reactive.Object)) {
	ac.store.Read(func(root *reactive.Object) {
		fn(resolvePath(root, ac.path))
	})
}

// Getter reads a getter through the store.
func (ac *ActionContext) Getter(name string) any {
	return ac.store.Getter(name)
}

// Flow returns the dispatch's flow token.
func (ac *ActionContext) Flow() string {
	return ac.flow
}

// Path returns the registering module's path.
func (ac *ActionContext) Path() ir.Path {
	return ac.path
}
