package engine

import "sync/atomic"

// Clock counts the tasks a Dispatcher has run. Run ticks it once per task
// and Dispatcher.Steps reads it, which lets callers poll progress from
// other goroutines while a drain is in flight.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock at zero tasks.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock that has already counted start tasks. Tests
// pass it to WithClock to check step accounting from a known offset.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next records one executed task and returns the new total. Only the
// dispatching goroutine ticks.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current reports the tasks counted so far.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
