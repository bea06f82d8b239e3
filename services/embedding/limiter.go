package embedding

import (
	"context"
	"sync"
	"time"
)

// windowLimiter admits at most max calls per rolling window. Unlike a
// token bucket it never lets a burst borrow against future capacity:
// the timestamp of every admitted call is kept until it ages out of the
// window. Callers that cannot be admitted poll cooperatively.
type windowLimiter struct {
	mu     sync.Mutex
	stamps []time.Time

	max    int
	window time.Duration
	poll   time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func newWindowLimiter(max int, window, poll time.Duration) *windowLimiter {
	return &windowLimiter{
		max:    max,
		window: window,
		poll:   poll,
		now:    time.Now,
		sleep:  sleepCtx,
	}
}

// Wait blocks until the caller is admitted or ctx is done.
func (l *windowLimiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if l.tryAdmit() {
			return nil
		}
		if err := l.sleep(ctx, l.poll); err != nil {
			return err
		}
	}
}

func (l *windowLimiter) tryAdmit() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	kept := l.stamps[:0]
	for _, s := range l.stamps {
		if s.After(cutoff) {
			kept = append(kept, s)
		}
	}
	l.stamps = kept

	if len(l.stamps) >= l.max {
		return false
	}
	l.stamps = append(l.stamps, l.now())
	return true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
