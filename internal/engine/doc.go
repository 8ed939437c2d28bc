// Package engine implements the vex store: a centralized, mutation-gated
// state container composed from a tree of modules.
//
// STATE FLOW:
//
// All sanctioned changes follow one path:
//
//	Dispatch -> action handler -> Commit -> mutation handler -> state -> subscribers
//
// Mutation handlers run synchronously, in registration order, while the
// store is in its committing phase. Action handlers may finish later on
// another goroutine and commit as they go.
//
// COMPOSITION:
//
// A Module bundles default state, mutations, actions, getters, and child
// modules. New walks the tree depth first: each module registers its own
// handlers (names in lexical order), then its children in lexical key
// order. Mutation and action names form one flat namespace; every module
// registering a name fires on each commit or dispatch of it. Getter names
// are unique; a duplicate is reported and the first registration wins.
//
// CONCURRENCY:
//
// Commits, ReplaceState, HotUpdate, Getter, and Read are serialized by a
// store mutex. The state tree itself is not goroutine-safe: code running
// off the committing goroutine reads state through Read. Mutation
// handlers must not call back into the store; the mutex is not reentrant.
//
// Subscribers run after the mutex is released, so they may commit again.
//
// STRICT MODE:
//
// With WithStrict(true) a deep synchronous watcher observes the whole tree
// and panics with a STRICT_VIOLATION RuntimeError if anything changes
// outside the committing phase.
package engine
