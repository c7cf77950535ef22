package timing

import (
	"log/slog"
	"time"
)

const (
	// below this a sleep overshoots too much, spin instead
	busyWaitThreshold = 2 * time.Millisecond
	// when further behind than this, stop trying to catch up
	maxLag = 5 * time.Millisecond
	// drift is checked once every driftWindow frames
	driftWindow    = 60
	driftTolerance = 10 * time.Millisecond
)

// AdaptiveLimiter uses precise timing with drift compensation.
// Combines sleep for efficiency with busy-waiting for accuracy.
type AdaptiveLimiter struct {
	clock           Clock
	targetFrameTime time.Duration
	nextFrameTime   time.Time
	frameCounter    int64
}

func NewAdaptiveLimiter() *AdaptiveLimiter {
	return NewAdaptiveLimiterWithClock(SystemClock())
}

// NewAdaptiveLimiterWithClock creates a limiter driven by clock.
func NewAdaptiveLimiterWithClock(clock Clock) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		clock:           clock,
		targetFrameTime: FrameDuration(),
		nextFrameTime:   clock.Now(),
	}
}

func (a *AdaptiveLimiter) WaitForNextFrame() {
	now := a.clock.Now()
	sleepTime := a.nextFrameTime.Sub(now)

	if sleepTime > 0 {
		if sleepTime >= busyWaitThreshold {
			a.clock.Sleep(sleepTime - time.Millisecond)
		}
		for a.clock.Now().Before(a.nextFrameTime) {
			// busy-wait the remainder, higher accuracy.
		}
	} else if sleepTime < -maxLag {
		a.nextFrameTime = now
	}

	a.nextFrameTime = a.nextFrameTime.Add(a.targetFrameTime)
	a.frameCounter++

	if a.frameCounter%driftWindow == 0 {
		drift := a.clock.Now().Sub(a.nextFrameTime)
		if drift.Abs() > driftTolerance {
			a.nextFrameTime = a.nextFrameTime.Add(drift / 10)
			slog.Debug("Frame timing drift correction",
				"drift_ms", drift.Milliseconds(),
				"frames", a.frameCounter)
		}
	}
}

func (a *AdaptiveLimiter) Reset() {
	a.nextFrameTime = a.clock.Now()
	a.frameCounter = 0
}
