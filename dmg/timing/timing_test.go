package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock moves forward by step on every reading, so busy waits end.
type fakeClock struct {
	now   time.Time
	step  time.Duration
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(0, 0), step: 50 * time.Microsecond}
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept += d
	c.now = c.now.Add(d)
}

func TestFrameRate(t *testing.T) {
	assert.InDelta(t, 59.7275, TargetFPS(), 0.0001)
	assert.InDelta(t, float64(16742706*time.Nanosecond), float64(FrameDuration()), float64(time.Microsecond))
}

func TestNew(t *testing.T) {
	assert.IsType(t, &noOpLimiter{}, New("none"))
	assert.IsType(t, &AdaptiveLimiter{}, New("adaptive"))
	assert.IsType(t, &AdaptiveLimiter{}, New("bogus"))

	ticker := New("ticker")
	require.IsType(t, &TickerLimiter{}, ticker)
	ticker.(*TickerLimiter).Stop()
}

func TestAdaptiveLimiter_waitsForFrame(t *testing.T) {
	clock := newFakeClock()
	limiter := NewAdaptiveLimiterWithClock(clock)
	start := clock.now

	// the first frame is due immediately
	limiter.WaitForNextFrame()
	assert.Zero(t, clock.slept)

	limiter.WaitForNextFrame()
	assert.Greater(t, clock.slept, FrameDuration()-2*time.Millisecond)
	assert.False(t, clock.now.Before(start.Add(FrameDuration())), "returns once the frame is due")
	assert.Less(t, clock.now.Sub(start), FrameDuration()+time.Millisecond)
}

func TestAdaptiveLimiter_shortWaitSpins(t *testing.T) {
	clock := newFakeClock()
	limiter := NewAdaptiveLimiterWithClock(clock)
	limiter.WaitForNextFrame()

	// leave less than the busy wait threshold until the next frame
	clock.now = limiter.nextFrameTime.Add(-time.Millisecond)
	limiter.WaitForNextFrame()

	assert.Zero(t, clock.slept)
	assert.False(t, clock.now.Before(limiter.nextFrameTime.Add(-FrameDuration())))
}

func TestAdaptiveLimiter_dropsLag(t *testing.T) {
	clock := newFakeClock()
	limiter := NewAdaptiveLimiterWithClock(clock)
	limiter.WaitForNextFrame()

	clock.now = clock.now.Add(time.Second)
	limiter.WaitForNextFrame()

	assert.Zero(t, clock.slept, "no waiting when behind")
	assert.True(t, limiter.nextFrameTime.After(clock.now), "schedule restarts from now")
}

func TestAdaptiveLimiter_Reset(t *testing.T) {
	clock := newFakeClock()
	limiter := NewAdaptiveLimiterWithClock(clock)
	for i := 0; i < 3; i++ {
		limiter.WaitForNextFrame()
	}
	assert.Equal(t, int64(3), limiter.frameCounter)

	limiter.Reset()
	assert.Equal(t, int64(0), limiter.frameCounter)
	assert.Equal(t, clock.now, limiter.nextFrameTime)
}

func TestTickerLimiter(t *testing.T) {
	limiter := NewTickerLimiterWithPeriod(time.Millisecond)
	defer limiter.Stop()

	start := time.Now()
	limiter.WaitForNextFrame()
	limiter.WaitForNextFrame()
	assert.GreaterOrEqual(t, time.Since(start), time.Millisecond)

	limiter.Reset()
	limiter.WaitForNextFrame()
}

func TestNoOpLimiter(t *testing.T) {
	limiter := NewNoOpLimiter()
	limiter.WaitForNextFrame()
	limiter.Reset()
}
