// Package engine derives live match state from the event log.
//
// ARCHITECTURE:
//
// Fold is the single source of truth. It turns an ordered list of events
// into a match.State and is called on every change: the session never
// patches state in place.
//
// Mutation flow (Session):
//  1. The request is checked: payload shape (error) then match rules
//     (rejected Outcome, nothing changes).
//  2. The event is stamped with an id, a logical Seq and a timestamp.
//  3. If it is a scoring event, the completion evaluator folds the log plus
//     the new event and may synthesize SET_END and SET_START.
//  4. Everything is appended to the log as one action and the log is
//     folded again from empty.
//  5. Subscribers are notified and a Snapshot goes to the Persister.
//
// Undo and redo move whole actions, so a set-winning point and the events
// it produced come and go together.
//
// Persistence is fire-and-forget: the Persister hands snapshots to a worker
// (see internal/outbox) and the session never waits for or rolls back on
// storage.
package engine
