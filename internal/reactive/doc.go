// Package reactive implements the observable state substrate used by the
// store engine.
//
// A plain nested value (map[string]any, []any, scalars) is converted into a
// graph of observable containers. Reads performed while a computation is
// evaluating register a dependency; writes notify every computation that
// depends on the written location.
//
// Three kinds of participants exist:
//
//   - Object and Array: observable containers. Adding a key to an Object is
//     itself observable, so a computation that looked up a missing key is
//     re-run once the key appears.
//   - Computed: a lazily evaluated, cached derivation. It recomputes only
//     after one of the dependencies read during its last evaluation changed.
//   - Watcher: an eager observer that runs a callback synchronously inside
//     the write that triggered it. Deep watchers depend on every nested
//     container reachable from their value.
//
// All participants created for one Graph share a tracking stack. Graphs are
// independent of each other, so two stores in one process never observe each
// other's state.
//
// Thread-safety: a Graph and its containers are NOT safe for concurrent use.
// The engine serializes writes; callers reading from other goroutines must
// coordinate through the engine.
package reactive
