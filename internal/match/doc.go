// Package match provides the data model for a live volleyball match.
//
// This package contains types and pure helpers only. The event log, the
// state fold and the substitution planner all import match; match imports
// nothing internal. Keeping it at the bottom of the graph means every other
// package agrees on one definition of an event and one definition of state.
//
// Key constraints:
//   - Events are immutable once appended; the log only grows or moves its tail
//   - Every event type has exactly one payload type (see Payload)
//   - State is derived, never persisted; it must be reproducible from the log
//   - All JSON tags use snake_case
package match
