package clock

import "sync"

type fakeEvent struct {
	at Ticks
	fn func()
}

// FakeClock implements Clock without touching the wall clock. Sleep advances
// virtual time immediately, so timeout loops run through their full budget in
// microseconds of real time. Callbacks can be scheduled at absolute ticks to
// simulate frames arriving part-way through a listening window.
type FakeClock struct {
	mu     sync.Mutex
	now    Ticks
	events []fakeEvent
}

// NewFakeClock returns a FakeClock at tick zero.
func NewFakeClock() *FakeClock {
	return &FakeClock{}
}

// Now implements the Clock interface.
func (c *FakeClock) Now() Ticks {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep implements the Clock interface by advancing virtual time.
func (c *FakeClock) Sleep(d Ticks) {
	c.Advance(d)
}

// Advance moves virtual time forward by d ticks, firing scheduled callbacks
// in order as their ticks are passed.
func (c *FakeClock) Advance(d Ticks) {
	c.mu.Lock()
	target := c.now + d

	for {
		next := -1
		for i, ev := range c.events {
			if ev.at > target {
				continue
			}
			if next < 0 || ev.at < c.events[next].at {
				next = i
			}
		}
		if next < 0 {
			break
		}

		ev := c.events[next]
		c.events = append(c.events[:next], c.events[next+1:]...)
		if ev.at > c.now {
			c.now = ev.at
		}

		// fire without holding the lock so callbacks can use the clock
		c.mu.Unlock()
		ev.fn()
		c.mu.Lock()
	}

	c.now = target
	c.mu.Unlock()
}

// Schedule registers fn to run when virtual time reaches the absolute tick
// at. Events scheduled in the past fire on the next Advance.
func (c *FakeClock) Schedule(at Ticks, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, fakeEvent{at: at, fn: fn})
}
