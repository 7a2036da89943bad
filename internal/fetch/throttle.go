package fetch

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Throttle enforces a minimum interval between successive calls. It wraps a
// burst-1 rate.Limiter, whose internal mutex keeps reservations serialized
// when a client is shared across goroutines, and reads time from a Clock.
type Throttle struct {
	limiter  *rate.Limiter
	clock    Clock
	interval time.Duration
}

// NewThrottle creates a throttle allowing callsPerMinute calls per minute.
// A non-positive rate disables throttling.
func NewThrottle(callsPerMinute int, clock Clock) *Throttle {
	if clock == nil {
		clock = SystemClock{}
	}
	t := &Throttle{clock: clock}
	if callsPerMinute <= 0 {
		t.limiter = rate.NewLimiter(rate.Inf, 1)
		return t
	}
	t.interval = time.Minute / time.Duration(callsPerMinute)
	t.limiter = rate.NewLimiter(rate.Every(t.interval), 1)
	return t
}

// Interval returns the minimum spacing between calls
func (t *Throttle) Interval() time.Duration {
	return t.interval
}

// Wait suspends the caller until the interval since the previous call has
// elapsed. The reservation is returned if ctx is cancelled while waiting.
func (t *Throttle) Wait(ctx context.Context) error {
	now := t.clock.Now()
	r := t.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if err := t.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(t.clock.Now())
		return err
	}
	return nil
}
