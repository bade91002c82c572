// Package clock provides the monotonic tick clock that all gateway timing is
// based on. The clock is injected wherever timeouts or schedules are needed,
// so tests can simulate elapsed time instead of waiting for it.
package clock

import "time"

// Ticks is a monotonic millisecond counter. It deliberately wraps around like
// the tick counters of the radio front-ends the gateway drives; elapsed-time
// arithmetic must go through Since, which stays correct across wraparound.
type Ticks uint32

// Duration converts a tick count to a time.Duration.
func (t Ticks) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// FromDuration converts a time.Duration to Ticks, rounding down to the
// millisecond.
func FromDuration(d time.Duration) Ticks {
	return Ticks(d / time.Millisecond)
}

// Since returns the number of ticks elapsed between start and now. The
// subtraction is unsigned, so the result is correct even after the counter
// has wrapped around.
func Since(now, start Ticks) Ticks {
	return now - start
}

// Clock is a monotonic tick source. Sleep must cede control to other
// goroutines for at least the requested number of ticks; it is the
// cooperative yield inside listening windows.
type Clock interface {
	Now() Ticks
	Sleep(d Ticks)
}

// SystemClock implements Clock on the wall clock, with ticks counted from the
// moment the clock was created.
type SystemClock struct {
	epoch time.Time
}

// NewSystemClock returns a SystemClock starting at tick zero.
func NewSystemClock() *SystemClock {
	return &SystemClock{epoch: time.Now()}
}

// Now implements the Clock interface.
func (c *SystemClock) Now() Ticks {
	return Ticks(time.Since(c.epoch) / time.Millisecond)
}

// Sleep implements the Clock interface.
func (c *SystemClock) Sleep(d Ticks) {
	time.Sleep(d.Duration())
}
