package engine

import "sync/atomic"

// Clock hands out the logical sequence numbers of a session. Events take
// their Seq from it and snapshots their revision, so one counter orders
// both and a stored row is stale exactly when its revision is lower.
//
// The log itself is ordered by position, never by Seq.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next is 1.
func NewClock() *Clock {
	return &Clock{}
}

// Next advances the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}

// Advance moves the clock up to v if it is behind. A loaded log advances the
// clock to its highest Seq so new events sort after it.
func (c *Clock) Advance(v int64) {
	for {
		cur := c.seq.Load()
		if v <= cur || c.seq.CompareAndSwap(cur, v) {
			return
		}
	}
}
