package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestWaitUntilDue_AlreadyDueReturnsImmediately(t *testing.T) {
	tp := NewManualTimeProvider(epoch)
	c := New(WithTimeProvider(tp))
	c.Start()
	tp.Advance(500 * time.Millisecond)

	tests := []int64{0, 100_000, 500_000}
	for _, pts := range tests {
		assert.True(t, c.WaitUntilDue(context.Background(), pts))
	}
	assert.Equal(t, 0, tp.Sleeps(), "no sleep when the frame is already due")
}

func TestWaitUntilDue_RealClockNoSleep(t *testing.T) {
	c := New()
	c.Start()

	begin := time.Now()
	assert.True(t, c.WaitUntilDue(context.Background(), 0))
	assert.Less(t, time.Since(begin), 5*time.Millisecond)
}

func TestWaitUntilDue_SleepsInIncrements(t *testing.T) {
	tp := NewManualTimeProvider(epoch)
	c := New(WithTimeProvider(tp), WithIncrement(10*time.Millisecond))
	c.Start()

	assert.True(t, c.WaitUntilDue(context.Background(), 35_000))
	assert.Equal(t, 4, tp.Sleeps(), "10+10+10+5 ms")
	assert.Equal(t, 35*time.Millisecond, c.Elapsed())
}

func TestWaitUntilDue_CappedAtStreamDuration(t *testing.T) {
	tp := NewManualTimeProvider(epoch)
	c := New(WithTimeProvider(tp), WithIncrement(time.Second), WithStreamDuration(2_000_000))
	c.Start()

	assert.True(t, c.WaitUntilDue(context.Background(), 60_000_000))
	assert.Equal(t, 2*time.Second, c.Elapsed())
}

func TestWaitUntilDue_Cancelled(t *testing.T) {
	c := New(WithIncrement(5 * time.Millisecond))
	c.Start()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	begin := time.Now()
	assert.False(t, c.WaitUntilDue(ctx, int64(time.Hour/time.Microsecond)))
	assert.Less(t, time.Since(begin), time.Second)
}

func TestWaitUntilDue_AlreadyCancelled(t *testing.T) {
	tp := NewManualTimeProvider(epoch)
	c := New(WithTimeProvider(tp))
	c.Start()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, c.WaitUntilDue(ctx, 1_000_000))
	assert.Equal(t, 0, tp.Sleeps())

	// A due frame is still reported due.
	assert.True(t, c.WaitUntilDue(ctx, 0))
}

func TestWaitUntilDue_StartsLazily(t *testing.T) {
	tp := NewManualTimeProvider(epoch)
	c := New(WithTimeProvider(tp))
	assert.Equal(t, time.Duration(0), c.Elapsed())

	assert.True(t, c.WaitUntilDue(context.Background(), 20_000))
	assert.Equal(t, 20*time.Millisecond, c.Elapsed())
}

func TestPauseResume_ExcludesPausedTime(t *testing.T) {
	tp := NewManualTimeProvider(epoch)
	c := New(WithTimeProvider(tp))
	c.Start()

	tp.Advance(100 * time.Millisecond)
	c.Pause()
	tp.Advance(time.Second)
	assert.Equal(t, 100*time.Millisecond, c.Elapsed())

	c.Resume()
	tp.Advance(50 * time.Millisecond)
	assert.Equal(t, 150*time.Millisecond, c.Elapsed())

	// Resume without Pause is a no-op.
	c.Resume()
	assert.Equal(t, 150*time.Millisecond, c.Elapsed())
}

func TestObserve_Monotonic(t *testing.T) {
	c := New()
	_, ok := c.LastPTS()
	assert.False(t, ok)

	assert.True(t, c.Observe(0))
	assert.True(t, c.Observe(100_000))
	assert.True(t, c.Observe(100_000), "equal timestamps are non-decreasing")
	assert.False(t, c.Observe(50_000))

	last, ok := c.LastPTS()
	require.True(t, ok)
	assert.Equal(t, int64(100_000), last)
}

func TestDefaultTimeProvider(t *testing.T) {
	dp := DefaultTimeProvider{}

	before := time.Now()
	now := dp.Now()
	assert.False(t, now.Before(before))

	since := dp.Since(time.Now().Add(-time.Hour))
	assert.GreaterOrEqual(t, since, time.Hour)

	select {
	case <-dp.After(time.Millisecond):
	case <-time.After(time.Second):
		t.Fatal("After never fired")
	}
}

func TestManualTimeProvider(t *testing.T) {
	tp := NewManualTimeProvider(epoch)
	tp.Advance(time.Minute)
	assert.Equal(t, epoch.Add(time.Minute), tp.Now())
	assert.Equal(t, time.Minute, tp.Since(epoch))

	fired := <-tp.After(time.Second)
	assert.Equal(t, epoch.Add(time.Minute+time.Second), fired)
	assert.Equal(t, 1, tp.Sleeps())
}
