package engine

import "sync/atomic"

// SeqClock stamps committed mutations with a strictly increasing sequence
// number. Implemented by Clock and testutil.DeterministicClock.
type SeqClock interface {
	Next() int64
	Current() int64
}

// Clock is a monotonic logical clock. Seq numbers order mutations without
// relying on wall-clock time, so a replayed journal sorts the same way.
//
// Safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock positioned at start. Used after rehydrating
// from a journal so new commits continue the recorded sequence.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out, or the start position.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
