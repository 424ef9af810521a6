package game

import (
	"time"
)

// IdleFPS caps the loop while the window is minimized.
const IdleFPS = 30

// FPSLimiter provides high-precision frame rate limiting
type FPSLimiter struct {
	next  time.Time
	sleep func(time.Duration)
	now   func() time.Time
}

// NewFPSLimiter creates a new FPS limiter
func NewFPSLimiter() *FPSLimiter {
	return &FPSLimiter{sleep: time.Sleep, now: time.Now}
}

// Wait blocks until the next frame is due at limit frames per second. A limit
// of zero or less disables limiting.
// Uses a hybrid sleep/spin approach for better precision on high FPS caps.
func (f *FPSLimiter) Wait(limit int) {
	if limit <= 0 {
		f.next = time.Time{}
		return
	}

	target := time.Second / time.Duration(limit)

	if f.next.IsZero() {
		f.next = f.now().Add(target)
	} else {
		f.next = f.next.Add(target)
	}

	for {
		remaining := f.next.Sub(f.now())
		if remaining <= 0 {
			break
		}
		if remaining > 200*time.Microsecond {
			f.sleep(remaining - 200*time.Microsecond)
		}
		// busy-wait for the final few microseconds
		if !f.now().Before(f.next) {
			break
		}
	}

	// If we're significantly late (e.g., hitch), resync to avoid drift
	if late := f.now().Sub(f.next); late > target {
		f.next = f.now().Add(target)
	}
}
