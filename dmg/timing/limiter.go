// Package timing paces emulation to the speed of real hardware for
// interactive frontends. Headless runs use the no-op limiter.
package timing

import "time"

// Limiter controls frame rate timing for emulation.
type Limiter interface {
	// WaitForNextFrame blocks until it's time for the next frame.
	// Returns immediately if timing is behind schedule.
	WaitForNextFrame()

	// Reset resets the timing state, useful after pauses.
	Reset()
}

// NewNoOpLimiter returns a limiter that doesn't limit (for headless mode).
func NewNoOpLimiter() Limiter {
	return &noOpLimiter{}
}

type noOpLimiter struct{}

func (n *noOpLimiter) WaitForNextFrame() {}
func (n *noOpLimiter) Reset()            {}

// Constants for Game Boy timing
const (
	// CyclesPerFrame is 154 lines of 456 cycles each.
	CyclesPerFrame = 70224
	CPUFrequency   = 4194304
)

// TargetFPS calculates the exact Game Boy frame rate.
func TargetFPS() float64 {
	return float64(CPUFrequency) / float64(CyclesPerFrame)
}

// FrameDuration returns the target duration of a single frame.
func FrameDuration() time.Duration {
	return time.Duration(float64(time.Second) / TargetFPS())
}

// Clock is the source of time for limiters.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// New returns the limiter for the given mode: "adaptive", "ticker" or "none".
// Unknown modes fall back to adaptive.
func New(mode string) Limiter {
	switch mode {
	case "none":
		return NewNoOpLimiter()
	case "ticker":
		return NewTickerLimiter()
	default:
		return NewAdaptiveLimiter()
	}
}
