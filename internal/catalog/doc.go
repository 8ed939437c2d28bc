// Package catalog holds the demo modules the CLI and scenarios mount:
// counter, todos and audit.
//
// Handlers are Go code, so a scenario or manifest selects modules by name
// and passes options; it cannot define new logic.
package catalog
