// Package clock abstracts time so eligibility checks and the catalog
// refresher can be driven by a fake clock in tests.
package clock

import (
	"sync"
	"time"
)

// Clock supplies the current time and ticker channels.
type Clock interface {
	Now() time.Time
	Tick(d time.Duration) (ch <-chan time.Time, stop func())
}

// Real is the wall clock.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// Tick returns a real ticker channel and its stop function.
func (Real) Tick(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// Fake is a manually advanced clock for tests. Safe for concurrent use.
type Fake struct {
	mu      sync.Mutex
	current time.Time
	ticks   chan time.Time
}

// NewFake creates a fake clock starting at t.
func NewFake(t time.Time) *Fake {
	return &Fake{current: t, ticks: make(chan time.Time, 16)}
}

// Now returns the fake current time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Tick returns the fake tick channel; duration is ignored.
func (f *Fake) Tick(time.Duration) (<-chan time.Time, func()) {
	return f.ticks, func() {}
}

// Advance moves the clock forward and emits one tick.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.current = f.current.Add(d)
	now := f.current
	f.mu.Unlock()
	f.ticks <- now
}
