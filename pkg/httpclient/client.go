package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ClientType represents the type of HTTP client configuration
type ClientType string

const (
	// BrowserClient sends the browser-like headers WordPress sites expect from a visitor
	BrowserClient ClientType = "browser"

	// CloudflareClient uses simple headers (like curl) to avoid 403 (Forbidden) errors
	// Used for Cloudflare-protected sites that block browser-like User-Agents
	CloudflareClient ClientType = "cloudflare"
)

// DefaultTimeout bounds a single attempt.
const DefaultTimeout = 30 * time.Second

// Client issues paced GET requests and retries failures according to a RetryPolicy.
// A Client is meant to be driven by a single goroutine.
type Client struct {
	http       *resty.Client
	clientType ClientType
	limiter    *RateLimiter
	policy     RetryPolicy
	sleep      func(ctx context.Context, d time.Duration) error
	logger     *slog.Logger
}

// NewClient creates a new HTTP client with the specified type, the default
// rate limiter and the default retry policy.
func NewClient(clientType ClientType) *Client {
	rc := resty.New().
		SetTimeout(DefaultTimeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetDisableWarn(true)

	c := &Client{
		http:       rc,
		clientType: clientType,
		limiter:    DefaultRateLimiter(),
		policy:     DefaultRetryPolicy(),
		sleep:      sleepContext,
		logger:     slog.Default(),
	}
	c.setHeaders()
	return c
}

// SetRateLimiter replaces the limiter. A nil limiter disables pacing.
func (c *Client) SetRateLimiter(l *RateLimiter) {
	c.limiter = l
}

// RateLimiter returns the limiter pacing this client.
func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

// SetRetryPolicy replaces the retry policy.
func (c *Client) SetRetryPolicy(p RetryPolicy) {
	c.policy = p
}

// RetryPolicy returns the policy applied to failed attempts.
func (c *Client) RetryPolicy() RetryPolicy {
	return c.policy
}

// SetTimeout sets the per-attempt timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.http.SetTimeout(d)
}

// SetLogger sets the logger used for request and retry messages.
func (c *Client) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger
}

// SetSleeper replaces the function used for retry backoff. Tests use it to
// record waits instead of sleeping.
func (c *Client) SetSleeper(sleep func(ctx context.Context, d time.Duration) error) {
	if sleep == nil {
		sleep = sleepContext
	}
	c.sleep = sleep
}

// Get fetches rawURL with optional query params and returns the body of a 200
// response. Any other outcome is retried per the policy; once attempts are
// exhausted the last failure is returned.
func (c *Client) Get(ctx context.Context, rawURL string, params map[string]string) ([]byte, error) {
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	if c.http == nil {
		return nil, ErrNilTransport
	}

	attempts := c.policy.MaxAttempts
	if attempts <= 0 {
		return nil, ErrNoAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if slept, err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		} else if slept > 0 {
			c.logger.DebugContext(ctx, "rate limiting", "sleep", slept.Round(100*time.Millisecond))
		}

		c.logger.DebugContext(ctx, "making request", "url", rawURL, "attempt", attempt)
		body, status, err := c.do(ctx, rawURL, params)
		if err == nil && status == http.StatusOK {
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		switch {
		case err != nil:
			lastErr = err
			c.logger.WarnContext(ctx, "request error", "url", rawURL, "attempt", attempt, "err", err)
		case status == http.StatusForbidden:
			lastErr = &StatusError{URL: rawURL, StatusCode: status}
			c.logger.WarnContext(ctx, "got 403 forbidden", "url", rawURL, "attempt", attempt)
		case status == http.StatusTooManyRequests:
			lastErr = &StatusError{URL: rawURL, StatusCode: status}
			c.logger.WarnContext(ctx, "rate limited (429)", "url", rawURL, "attempt", attempt)
		default:
			lastErr = &StatusError{URL: rawURL, StatusCode: status}
			c.logger.WarnContext(ctx, "unexpected status", "url", rawURL, "status", status, "attempt", attempt)
		}

		if attempt == attempts {
			break
		}

		wait := c.policy.Backoff(status, attempt)
		c.logger.InfoContext(ctx, "waiting before retry", "url", rawURL, "wait", wait)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}

	return nil, lastErr
}

// do performs one attempt. A non-nil error means no usable response arrived;
// status is 0 in that case.
func (c *Client) do(ctx context.Context, rawURL string, params map[string]string) ([]byte, int, error) {
	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}

	resp, err := req.Get(rawURL)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if ctx.Err() != nil {
				return nil, 0, ctx.Err()
			}
		}
		return nil, 0, err
	}
	return resp.Body(), resp.StatusCode(), nil
}

// setHeaders sets the appropriate headers based on client type
func (c *Client) setHeaders() {
	switch c.clientType {
	case BrowserClient:
		// Browser-like headers; Accept-Encoding is left to the transport so gzip is decoded for us
		c.http.SetHeaders(map[string]string{
			"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
			"Accept-Language":           "en-US,en;q=0.5",
			"Connection":                "keep-alive",
			"Upgrade-Insecure-Requests": "1",
		})

	case CloudflareClient:
		// Simple headers like curl to avoid 403 (Forbidden) errors from Cloudflare
		// Cloudflare allows simple tools like curl but blocks browser-like User-Agents
		c.http.SetHeader("User-Agent", "curl/8.7.1")

	default:
		// Default: use resty's default User-Agent
	}
}
