package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Remaining returns the whole seconds left before expiry, never negative.
func Remaining(expiry, now time.Time) int {
	left := expiry.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(left / time.Second)
}

// FormatRemaining renders seconds as mm:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// Clock counts down to a fixed expiry instant. It holds no countdown state,
// so it can be rebuilt from a stored expiry at any time.
type Clock struct {
	expiresAt time.Time
	fired     atomic.Bool
}

func NewClock(expiresAt time.Time) *Clock {
	return &Clock{expiresAt: expiresAt}
}

func (c *Clock) ExpiresAt() time.Time {
	return c.expiresAt
}

func (c *Clock) Remaining(now time.Time) int {
	return Remaining(c.expiresAt, now)
}

func (c *Clock) Format(now time.Time) string {
	return FormatRemaining(c.Remaining(now))
}

// Elapsed is the authoritative deadline check.
func (c *Clock) Elapsed(now time.Time) bool {
	return !now.Before(c.expiresAt)
}

// Signal returns true exactly once, on the first call that observes the
// deadline as elapsed.
func (c *Clock) Signal(now time.Time) bool {
	if !c.Elapsed(now) {
		return false
	}
	return c.fired.CompareAndSwap(false, true)
}

// Watch polls the clock every interval until the deadline passes or ctx is
// done. onTick receives the remaining seconds; onExpire runs at most once per
// Watch call. Ticks are advisory only.
func (c *Clock) Watch(ctx context.Context, interval time.Duration, now func() time.Time, onTick func(remaining int), onExpire func()) {
	var once sync.Once
	check := func() bool {
		current := now()
		if onTick != nil {
			onTick(c.Remaining(current))
		}
		if c.Elapsed(current) {
			if onExpire != nil {
				once.Do(onExpire)
			}
			return true
		}
		return false
	}

	if check() {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if check() {
				return
			}
		}
	}
}
