package fetch

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"

	"github.com/pfrederiksen/event-harvest/internal/logger"
)

const (
	DefaultUserAgent      = "PsychoanalyticEventsBot/1.0 (Educational event aggregator)"
	DefaultTimeout        = 30 * time.Second
	DefaultMaxAttempts    = 3
	DefaultCallsPerMinute = 20
	DefaultInitialBackoff = time.Second

	maxBodyBytes = 10 << 20
)

// Fetcher retrieves the content at a URL. ok is false when the content is
// unavailable; the reason has already been logged.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (content string, ok bool)
}

// Options configures a Client
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	MaxAttempts    int
	CallsPerMinute int
	InitialBackoff time.Duration
	Clock          Clock
	// HTTPClient replaces the default transport, mainly for tests.
	HTTPClient *http.Client
	// OnResult is called once per Fetch with "ok", "not_found", "client_error",
	// "exhausted" or "cancelled".
	OnResult func(result string)
}

// Client is the HTTP Fetcher. It owns its connection pool; call Close when done.
type Client struct {
	http     *http.Client
	throttle *Throttle
	clock    Clock
	opts     Options
}

// New creates a Client, filling unset options with defaults
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = DefaultInitialBackoff
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}

	return &Client{
		http:     httpClient,
		throttle: NewThrottle(opts.CallsPerMinute, opts.Clock),
		clock:    opts.Clock,
		opts:     opts,
	}
}

// Close releases idle connections held by the client
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// Headers returns the identification headers sent with every request
func (c *Client) Headers() http.Header {
	h := make(http.Header)
	h.Set("User-Agent", c.opts.UserAgent)
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	return h
}

// statusError is an HTTP response that was not 2xx
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}

// retryable reports whether an attempt error should be retried
func retryable(err error) bool {
	var se *statusError
	if eris.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	// transport faults: timeouts, refused and reset connections
	return true
}

// newBackOff builds the retry schedule: InitialBackoff doubling per attempt,
// at most MaxAttempts-1 waits.
func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = c.opts.InitialBackoff
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = 30 * c.opts.InitialBackoff
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(c.opts.MaxAttempts-1)), ctx)
}

// Fetch retrieves rawURL, throttled and retried per the client options
func (c *Client) Fetch(ctx context.Context, rawURL string) (string, bool) {
	result := c.fetch(ctx, rawURL)
	if c.opts.OnResult != nil {
		c.opts.OnResult(result.status)
	}
	return result.body, result.status == "ok"
}

type fetchResult struct {
	body   string
	status string
}

func (c *Client) fetch(ctx context.Context, rawURL string) fetchResult {
	if err := c.throttle.Wait(ctx); err != nil {
		logger.Warn("Fetch cancelled while throttled", logger.Fields{"url": rawURL})
		return fetchResult{status: "cancelled"}
	}

	b := c.newBackOff(ctx)
	for attempt := 1; ; attempt++ {
		body, err := c.attempt(ctx, rawURL)
		if err == nil {
			return fetchResult{body: body, status: "ok"}
		}

		var se *statusError
		if eris.As(err, &se) && se.code == http.StatusNotFound {
			logger.Warn("Page not found", logger.Fields{"url": rawURL})
			return fetchResult{status: "not_found"}
		}
		if !retryable(err) {
			logger.Warn("Fetch failed", logger.Fields{"url": rawURL, "status": se.code})
			return fetchResult{status: "client_error"}
		}
		if ctx.Err() != nil {
			logger.Warn("Fetch cancelled", logger.Fields{"url": rawURL, "attempt": attempt})
			return fetchResult{status: "cancelled"}
		}

		next := b.NextBackOff()
		if next == backoff.Stop {
			logger.Error("Fetch failed after retries", logger.Fields{"url": rawURL, "attempts": attempt}, err)
			return fetchResult{status: "exhausted"}
		}

		logger.Warn("Fetch attempt failed, retrying", logger.Fields{
			"url":     rawURL,
			"attempt": attempt,
			"backoff": next.String(),
			"error":   err.Error(),
		})
		if err := c.clock.Sleep(ctx, next); err != nil {
			logger.Warn("Fetch cancelled during backoff", logger.Fields{"url": rawURL, "attempt": attempt})
			return fetchResult{status: "cancelled"}
		}
	}
}

// attempt performs a single GET
func (c *Client) attempt(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &statusError{code: http.StatusBadRequest}
	}
	req.Header = c.Headers()

	resp, err := c.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "fetch: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "fetch: read body")
	}
	return string(body), nil
}
