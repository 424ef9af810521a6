package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t     time.Time
	slept time.Duration
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) sleep(d time.Duration) {
	c.slept += d
	c.t = c.t.Add(d + 200*time.Microsecond)
}

func newTestLimiter() (*FPSLimiter, *fakeClock) {
	c := &fakeClock{t: time.Unix(0, 0)}
	return &FPSLimiter{sleep: c.sleep, now: c.now}, c
}

func TestWaitPacesFrames(t *testing.T) {
	f, clock := newTestLimiter()
	start := clock.t
	for range 10 {
		f.Wait(100)
	}
	assert.Equal(t, 100*time.Millisecond, clock.t.Sub(start))
}

func TestWaitUnlimited(t *testing.T) {
	f, clock := newTestLimiter()
	f.Wait(0)
	f.Wait(-5)
	assert.Zero(t, clock.slept)
	assert.True(t, f.next.IsZero())
}

func TestWaitResyncsAfterHitch(t *testing.T) {
	f, clock := newTestLimiter()
	f.Wait(50)
	clock.t = clock.t.Add(time.Second)

	f.Wait(50)
	assert.Equal(t, clock.t.Add(20*time.Millisecond), f.next, "late frames do not try to catch up")
}
