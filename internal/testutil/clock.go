package testutil

import (
	"sync"
	"time"
)

// Clock is a controllable wall-clock time source for tests.
//
// The gate takes a `func() time.Time` for expiration checks; tests hand it
// clock.Now and steer time explicitly with Advance/Set. This keeps
// expiration scenarios deterministic with no sleeping.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock frozen at the given unix time (seconds).
func NewClock(unixSeconds int64) *Clock {
	return &Clock{now: time.Unix(unixSeconds, 0).UTC()}
}

// Now returns the current frozen time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to the given unix time (seconds).
func (c *Clock) Set(unixSeconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(unixSeconds, 0).UTC()
}
