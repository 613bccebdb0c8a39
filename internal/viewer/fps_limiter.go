package viewer

import (
	"time"

	"procterrain/internal/config"
)

// spinWindow is how close to the deadline the limiter stops sleeping and spins.
const spinWindow = 200 * time.Microsecond

// FPSLimiter paces frames to the runtime FPS cap.
type FPSLimiter struct {
	limit    func() int
	deadline time.Time
	// Hitches counts frames that ran more than one frame period late.
	Hitches int
}

// NewFPSLimiter creates a limiter that follows config.GetFPSLimit.
func NewFPSLimiter() *FPSLimiter {
	return &FPSLimiter{limit: config.GetFPSLimit}
}

// Wait blocks until the next frame is due and returns the time spent waiting.
// A cap of 0 returns immediately.
func (f *FPSLimiter) Wait() time.Duration {
	fps := f.limit()
	if fps <= 0 {
		f.deadline = time.Time{}
		return 0
	}
	period := time.Second / time.Duration(fps)

	now := time.Now()
	if f.deadline.IsZero() {
		f.deadline = now.Add(period)
	} else {
		f.deadline = f.deadline.Add(period)
	}

	// resync after a hitch
	if now.Sub(f.deadline) > period {
		f.Hitches++
		f.deadline = now.Add(period)
		return 0
	}

	for {
		remaining := time.Until(f.deadline)
		if remaining <= 0 {
			break
		}
		if remaining > spinWindow {
			time.Sleep(remaining - spinWindow)
		}
	}
	return time.Since(now)
}
