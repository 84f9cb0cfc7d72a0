// Package clock paces decoded frames against wall-clock time.
//
// A Clock measures elapsed playback time from Start, excluding paused
// intervals, and blocks the decode worker until each frame's presentation
// timestamp is due. Waits sleep in small increments and abort promptly when
// the caller's context is cancelled.
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultIncrement is the longest single sleep inside WaitUntilDue.
const DefaultIncrement = 10 * time.Millisecond

// Option configures a Clock.
type Option func(*Clock)

// WithTimeProvider replaces the wall clock.
func WithTimeProvider(tp TimeProvider) Option {
	return func(c *Clock) {
		if tp != nil {
			c.tp = tp
		}
	}
}

// WithIncrement sets the sleep increment.
func WithIncrement(d time.Duration) Option {
	return func(c *Clock) {
		if d > 0 {
			c.increment = d
		}
	}
}

// WithStreamDuration caps every wait at the end of the stream.
func WithStreamDuration(micros int64) Option {
	return func(c *Clock) {
		if micros > 0 {
			c.maxDue = time.Duration(micros) * time.Microsecond
		}
	}
}

// Clock tracks presentation time for one playback session.
type Clock struct {
	tp        TimeProvider
	increment time.Duration
	maxDue    time.Duration

	mu       sync.Mutex
	start    time.Time
	started  bool
	paused   bool
	pausedAt time.Time
	lastPTS  int64
	havePTS  bool
}

// New creates a clock. It does not run until Start.
func New(opts ...Option) *Clock {
	c := &Clock{
		tp:        DefaultTimeProvider{},
		increment: DefaultIncrement,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start marks the wall-clock origin of playback.
func (c *Clock) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = c.tp.Now()
	c.started = true
	c.paused = false
}

// Pause freezes elapsed time until Resume.
func (c *Clock) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started && !c.paused {
		c.paused = true
		c.pausedAt = c.tp.Now()
	}
}

// Resume continues elapsed time, discounting the paused interval.
func (c *Clock) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.paused {
		c.start = c.start.Add(c.tp.Since(c.pausedAt))
		c.paused = false
	}
}

// Elapsed returns the playback time since Start, excluding pauses.
func (c *Clock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.elapsedLocked()
}

func (c *Clock) elapsedLocked() time.Duration {
	if !c.started {
		return 0
	}
	if c.paused {
		return c.pausedAt.Sub(c.start)
	}
	return c.tp.Since(c.start)
}

// WaitUntilDue blocks until elapsed playback time reaches ptsMicros. It
// returns immediately when the frame is already due and never waits past
// the stream duration. It returns false, without error, if ctx is cancelled
// first. An unstarted clock starts on the first call.
func (c *Clock) WaitUntilDue(ctx context.Context, ptsMicros int64) bool {
	c.mu.Lock()
	if !c.started {
		c.start = c.tp.Now()
		c.started = true
	}
	c.mu.Unlock()

	due := time.Duration(ptsMicros) * time.Microsecond
	if c.maxDue > 0 && due > c.maxDue {
		due = c.maxDue
	}

	for {
		elapsed := c.Elapsed()
		if elapsed >= due {
			return true
		}
		if ctx.Err() != nil {
			return false
		}

		wait := due - elapsed
		if wait > c.increment {
			wait = c.increment
		}
		select {
		case <-ctx.Done():
			logrus.WithFields(logrus.Fields{
				"function": "WaitUntilDue",
				"pts_us":   ptsMicros,
				"elapsed":  elapsed,
			}).Debug("Presentation wait interrupted")
			return false
		case <-c.tp.After(wait):
		}
	}
}

// Observe records ptsMicros as the latest delivered timestamp. It returns
// false, leaving the state unchanged, when the timestamp goes backwards.
func (c *Clock) Observe(ptsMicros int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.havePTS && ptsMicros < c.lastPTS {
		return false
	}
	c.lastPTS = ptsMicros
	c.havePTS = true
	return true
}

// LastPTS returns the last observed timestamp and whether one exists.
func (c *Clock) LastPTS() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastPTS, c.havePTS
}
