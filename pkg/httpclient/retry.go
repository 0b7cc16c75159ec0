package httpclient

import (
	"net/http"
	"time"
)

// WaitFunc returns how long to wait after the given failed attempt (1-based).
type WaitFunc func(attempt int) time.Duration

// LinearWait waits attempt*step.
func LinearWait(step time.Duration) WaitFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// RetryPolicy decides how often a request is tried and how long to back off
// between tries, per failure class.
type RetryPolicy struct {
	MaxAttempts int

	// Forbidden handles 403 responses.
	Forbidden WaitFunc
	// TooManyRequests handles 429 responses.
	TooManyRequests WaitFunc
	// Transport handles connection errors, timeouts and any other status.
	Transport WaitFunc
}

// DefaultRetryPolicy tries three times, waiting 10s/20s on 403, 30s/60s on 429
// and 5s/10s otherwise.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		Forbidden:       LinearWait(10 * time.Second),
		TooManyRequests: LinearWait(30 * time.Second),
		Transport:       LinearWait(5 * time.Second),
	}
}

// Backoff returns the wait before the next attempt. statusCode is 0 for
// transport failures.
func (p RetryPolicy) Backoff(statusCode, attempt int) time.Duration {
	var wait WaitFunc
	switch statusCode {
	case http.StatusForbidden:
		wait = p.Forbidden
	case http.StatusTooManyRequests:
		wait = p.TooManyRequests
	default:
		wait = p.Transport
	}
	if wait == nil {
		return 0
	}
	return wait(attempt)
}
