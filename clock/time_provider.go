package clock

import (
	"sync"
	"time"
)

// TimeProvider abstracts time operations for deterministic testing.
// Implementations must be safe for concurrent use.
type TimeProvider interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	After(d time.Duration) <-chan time.Time
}

// DefaultTimeProvider uses the standard library time functions.
type DefaultTimeProvider struct{}

// Now returns the current time.
func (DefaultTimeProvider) Now() time.Time { return time.Now() }

// Since returns the duration since the given time.
func (DefaultTimeProvider) Since(t time.Time) time.Duration { return time.Since(t) }

// After waits for the duration to elapse and then sends the current time.
func (DefaultTimeProvider) After(d time.Duration) <-chan time.Time { return time.After(d) }

// ManualTimeProvider is a TimeProvider whose time only moves when told to.
// After advances the time by d and fires immediately, so paced playback
// runs without real sleeping.
type ManualTimeProvider struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

// NewManualTimeProvider creates a ManualTimeProvider starting at t.
func NewManualTimeProvider(t time.Time) *ManualTimeProvider {
	return &ManualTimeProvider{now: t}
}

// Now returns the manual current time.
func (m *ManualTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Since returns the duration since the given time.
func (m *ManualTimeProvider) Since(t time.Time) time.Duration {
	return m.Now().Sub(t)
}

// After advances the time by d and returns an already fired channel.
func (m *ManualTimeProvider) After(d time.Duration) <-chan time.Time {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.sleeps++
	now := m.now
	m.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- now
	return ch
}

// Advance moves the time forward by d.
func (m *ManualTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Sleeps returns how many times After was called.
func (m *ManualTimeProvider) Sleeps() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sleeps
}
