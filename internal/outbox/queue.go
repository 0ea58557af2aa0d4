package outbox

import (
	"log/slog"
	"sync"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
)

// Task is one pending write: the full snapshot of a match at a revision.
type Task = engine.Snapshot

// Queue is a thread-safe FIFO of persistence tasks.
//
// The session enqueues from its own goroutine after every mutation and must
// never block, so the queue is unbounded. A Worker dequeues on another
// goroutine.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the worker loop.
type Queue struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool
	signal chan struct{} // buffered, size 1
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		tasks:  make([]Task, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Persist enqueues a snapshot. It implements engine.Persister.
// Snapshots arriving after Close are logged and discarded.
func (q *Queue) Persist(snap engine.Snapshot) {
	if !q.Enqueue(snap) {
		slog.Warn("outbox closed, snapshot discarded", "match_id", snap.MatchID, "revision", snap.Revision)
	}
}

// Enqueue adds a task to the back of the queue.
// Returns false if the queue is closed.
func (q *Queue) Enqueue(t Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.tasks = append(q.tasks, t)

	// Non-blocking: the buffer of 1 coalesces signals.
	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front task without blocking.
// Returns (Task{}, false) if the queue is empty.
func (q *Queue) TryDequeue() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return Task{}, false
	}

	t := q.tasks[0]
	// Release the event slice held by the vacated slot.
	q.tasks[0] = Task{}
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}
	return t, true
}

// Wait returns a channel that signals when tasks may be available.
// The channel is closed by Close.
func (q *Queue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Closed reports whether Close has been called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops accepting tasks and wakes any waiting worker.
// Tasks already queued can still be dequeued.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
