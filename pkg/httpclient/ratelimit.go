package httpclient

import (
	"context"
	"math/rand/v2"
	"time"
)

// Default pacing between consecutive requests.
const (
	DefaultMinDelay = 2 * time.Second
	DefaultJitter   = 1 * time.Second
)

// RateLimiter spaces out consecutive requests made through one Client.
//
// Before each request, if less than MinDelay has passed since the previous one,
// Wait sleeps for the remainder plus a random jitter in [0, Jitter). The
// limiter is not safe for concurrent use; a Client is driven by one caller.
type RateLimiter struct {
	MinDelay time.Duration
	Jitter   time.Duration

	lastRequest time.Time

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(max time.Duration) time.Duration
}

// NewRateLimiter creates a limiter with the given minimum spacing and jitter.
func NewRateLimiter(minDelay, jitter time.Duration) *RateLimiter {
	return &RateLimiter{
		MinDelay: minDelay,
		Jitter:   jitter,
		now:      time.Now,
		sleep:    sleepContext,
		jitter:   randomJitter,
	}
}

// DefaultRateLimiter returns a limiter with DefaultMinDelay and DefaultJitter.
func DefaultRateLimiter() *RateLimiter {
	return NewRateLimiter(DefaultMinDelay, DefaultJitter)
}

// Wait blocks until the next request may be sent and records its start time.
// It returns the time slept.
func (l *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	if l == nil {
		return 0, nil
	}

	var slept time.Duration
	if !l.lastRequest.IsZero() {
		elapsed := l.now().Sub(l.lastRequest)
		if elapsed < l.MinDelay {
			slept = l.MinDelay - elapsed
			if l.Jitter > 0 {
				slept += l.jitter(l.Jitter)
			}
			if err := l.sleep(ctx, slept); err != nil {
				return 0, err
			}
		}
	}

	l.lastRequest = l.now()
	return slept, nil
}

// LastRequest returns when the most recent request was started.
func (l *RateLimiter) LastRequest() time.Time {
	return l.lastRequest
}

func randomJitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	return rand.N(max)
}

// sleepContext sleeps for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sleep waits for d unless ctx is cancelled first.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleepContext(ctx, d)
}
