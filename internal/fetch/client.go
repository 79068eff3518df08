package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/jmallari/jobmill/internal/model"
)

// Most career pages sit behind CDNs that reject obvious bot user agents;
// the crawler presents a plain browser UA like any polite scraper would.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of an upstream response is read.
const maxBodyBytes = 10 << 20

// Options tune the client's retry and politeness behavior.
type Options struct {
	MaxRetries int           // additional attempts after the first failure
	BaseDelay  time.Duration // delay before the first retry, doubled each time
	PerHostRPS float64       // sustained requests per second per host
	Burst      int
}

// Client is the fetch collaborator: given a URL it returns the raw payload or
// a terminal failure, after per-host rate limiting and bounded retries with
// exponential backoff. It knows nothing about payload shapes.
type Client struct {
	hc         *http.Client
	limiter    *HostLimiter
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// Ensure Client implements model.Fetcher.
var _ model.Fetcher = (*Client)(nil)

// NewClient wraps httpClient with rate limiting and retry behavior.
func NewClient(httpClient *http.Client, opts Options, logger *slog.Logger) *Client {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = 5 * time.Second
	}
	if opts.PerHostRPS <= 0 {
		opts.PerHostRPS = 1.0
	}
	return &Client{
		hc:         httpClient,
		limiter:    NewHostLimiter(opts.PerHostRPS, opts.Burst),
		maxRetries: opts.MaxRetries,
		baseDelay:  opts.BaseDelay,
		logger:     logger,
	}
}

// Fetch retrieves url, retrying transient failures. The per-host limiter is
// consulted before every attempt, including retries.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := c.fetchOnce(ctx, url)
	if err == nil {
		return body, nil
	}

	lastErr := err
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if !isRetryable(lastErr) {
			return nil, lastErr
		}

		delay := c.backoffDelay(attempt, lastErr)
		c.logger.Warn("retrying after transient fetch error",
			"url", url,
			"attempt", attempt,
			"max_retries", c.maxRetries,
			"delay", delay,
			"error", lastErr,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch retry cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}

		body, err = c.fetchOnce(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}

	return nil, lastErr
}

func (c *Client) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.WaitURL(ctx, url); err != nil {
		return nil, fmt.Errorf("rate limiter wait for %s: %w", url, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/html;q=0.9, */*;q=0.8")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode),
		}
	}

	lr := &io.LimitedReader{R: resp.Body, N: maxBodyBytes}
	body, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: reading body: %w", url, err)
	}
	if lr.N <= 0 {
		return nil, fmt.Errorf("fetch %s: response larger than %d bytes", url, int64(maxBodyBytes))
	}
	return body, nil
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (c *Client) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := c.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation — never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests — retryable.
		if httpErr.StatusCode == http.StatusTooManyRequests {
			return true
		}
		// 5xx — retryable.
		if httpErr.StatusCode >= 500 {
			return true
		}
		// 4xx (not 429) — not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, etc.) — retryable.
	return true
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
