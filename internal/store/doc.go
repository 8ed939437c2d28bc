// Package store provides the SQLite mutation journal.
//
// The journal is append-only:
//   - mutations: one row per committed mutation, with its payload and the
//     hash of the state it produced
//   - snapshots: full state copies taken every N mutations, so rehydration
//     replays a bounded tail instead of the whole log
//
// # Critical Patterns
//
// Logical time:
//   - All ordering uses the seq INTEGER stamped by the store's clock,
//     never timestamps
//
// Deterministic query results:
//   - Queries order by seq ASC, id ASC COLLATE BINARY
//
// Idempotent writes:
//   - Mutation ids are content hashes (ir.MutationID); rewriting the same
//     record is a no-op
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
