// Package plugin provides store plugins: structured logging, the SQLite
// journal, rehydration from it, and Prometheus metrics.
//
// Plugins run once at the end of engine.New and attach themselves through
// Subscribe and SubscribeAction. They never write state directly; Rehydrate
// goes through ReplaceState and silent commits like any other caller.
package plugin
