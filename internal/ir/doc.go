// Package ir provides the canonical value and addressing types shared by the
// store engine, the journal, and the tooling.
//
// This package contains type definitions and pure functions only. All other
// internal packages may import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Persisted values use the sealed IRValue set (null, string, int, bool,
//     array, object). There is no float type: a fractional number has no
//     single canonical encoding, so state that must be journaled or hashed
//     stores integers.
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only encoding
//     used for content-addressed identity.
//   - All JSON tags use snake_case.
package ir
