// Package outbox moves match snapshots from the session to durable storage
// without blocking the session.
//
// The session calls Queue.Persist after every mutation. A Worker running on
// its own goroutine writes each snapshot to a Sink, retrying with
// exponential backoff, and drops it after the configured number of tries.
package outbox
