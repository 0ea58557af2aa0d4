package outbox

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/engine"
)

// Sink is where snapshots are written. The SQLite store implements it.
type Sink interface {
	WriteSnapshot(ctx context.Context, snap engine.Snapshot) error
}

// Options tunes the retry policy of a Worker.
type Options struct {
	// MaxTries is the number of attempts per task, including the first.
	MaxTries uint
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the delay between retries.
	MaxInterval time.Duration
}

// DefaultOptions returns the retry policy used when none is configured.
func DefaultOptions() Options {
	return Options{
		MaxTries:        5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// Worker drains a Queue into a Sink.
//
// Each task is retried with exponential backoff. A task that still fails
// after MaxTries is logged and dropped; the session's in-memory state is
// never rolled back. Because the sink ignores stale revisions, a later
// snapshot of the same match repairs a dropped one.
type Worker struct {
	queue *Queue
	sink  Sink
	opts  Options

	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewWorker creates a worker. Zero option fields take their defaults.
func NewWorker(q *Queue, sink Sink, opts Options) *Worker {
	def := DefaultOptions()
	if opts.MaxTries == 0 {
		opts.MaxTries = def.MaxTries
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = def.InitialInterval
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = def.MaxInterval
	}
	return &Worker{queue: q, sink: sink, opts: opts}
}

// Run processes tasks until the context is cancelled or the queue is closed
// and empty. It returns ctx.Err() on cancellation and nil on a clean close.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if t, ok := w.queue.TryDequeue(); ok {
			w.deliver(ctx, t)
			continue
		}
		if w.queue.Closed() {
			// Close may race with a final Enqueue; drain once more.
			if w.queue.Len() == 0 {
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.queue.Wait():
		}
	}
}

// Drain delivers every task currently queued, then returns.
// Used on shutdown after the session stops mutating.
func (w *Worker) Drain(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t, ok := w.queue.TryDequeue()
		if !ok {
			return nil
		}
		w.deliver(ctx, t)
	}
}

// Delivered returns how many tasks were written successfully.
func (w *Worker) Delivered() int64 { return w.delivered.Load() }

// Dropped returns how many tasks were abandoned after exhausting retries.
func (w *Worker) Dropped() int64 { return w.dropped.Load() }

func (w *Worker) deliver(ctx context.Context, t Task) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.opts.InitialInterval
	b.MaxInterval = w.opts.MaxInterval

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, w.sink.WriteSnapshot(ctx, t)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(w.opts.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Debug("persist retry",
				"match_id", t.MatchID,
				"revision", t.Revision,
				"attempt", attempt,
				"next", next,
				"error", err,
			)
		}),
	)
	if err != nil {
		w.dropped.Add(1)
		slog.Error("persist failed, snapshot dropped",
			"match_id", t.MatchID,
			"revision", t.Revision,
			"attempts", attempt,
			"error", err,
		)
		return
	}

	w.delivered.Add(1)
	slog.Debug("persisted", "match_id", t.MatchID, "revision", t.Revision, "events", len(t.Events))
}
