// Package compiler loads state documents: initial or replacement state
// trees written in CUE, YAML, JSON, or TOML.
//
// Every format is normalized to plain Go values (string, int64, bool, nil,
// []any, map[string]any) so a tree loaded from any of them hashes the same.
// Fractional numbers are rejected, matching the journal's value model.
package compiler
