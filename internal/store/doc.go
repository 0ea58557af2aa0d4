// Package store provides SQLite-backed durable storage for matches.
//
// Each match is one row. Its event log lives in the actions column as the
// JSON array the session produced; the store treats it as opaque and returns
// it byte for byte, in order.
//
// # Revisions
//
// Every write carries the session's logical revision. A write whose revision
// is not newer than the stored one is ignored, so snapshots retried or
// delivered out of order by the outbox can never overwrite newer state.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
