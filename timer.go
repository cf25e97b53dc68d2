package timeexecution

import (
	"time"
)

// Timer is a simple abstraction to help measure execution durations. It relies on the monotonic
// clock reading carried by time.Now, so wall clock adjustments never affect the elapsed time.
type Timer struct {
	start time.Time
}

// NewTimer creates and starts an execution timer.
func NewTimer() *Timer {
	return &Timer{
		start: time.Now(),
	}
}

// Elapsed returns the amount of time that has elapsed since the timer has started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Milliseconds converts a duration to whole milliseconds, truncating toward zero. This is the
// rounding policy of every timed metric value.
func Milliseconds(d time.Duration) int64 {
	return int64(d / time.Millisecond)
}
