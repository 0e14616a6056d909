// Package httpclient provides the HTTP client shared by collectors, with
// retry, rate limiting and timeout support.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"

	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/rate"
)

const (
	// DefaultUserAgent identifies API calls made by the scanner.
	DefaultUserAgent = "TrustScan/1.0"

	// BrowserUserAgent is sent when fetching pages meant for humans.
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultMaxBodyBytes caps how much of a response body is read.
	DefaultMaxBodyBytes = 5 << 20
)

// Client is an HTTP client with retry logic, rate limiting and timeouts.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      logx.Logger
	config      Config
}

// Config holds the configuration for the HTTP client.
type Config struct {
	// Service names the remote API in errors and logs (e.g. "urlhaus").
	Service string

	// Timeout is the per-attempt request timeout.
	// Default: 15 seconds
	Timeout time.Duration

	// MaxRetries is the maximum number of retry attempts on network
	// errors, 429 and 5xx responses.
	// Default: 0
	MaxRetries int

	// RetryBackoff is the initial backoff; it doubles on each retry.
	// Default: 500ms
	RetryBackoff time.Duration

	// MaxRetryBackoff caps the backoff between retries.
	// Default: 10 seconds
	MaxRetryBackoff time.Duration

	// UserAgent is the User-Agent header value.
	UserAgent string

	// RateLimit is the maximum requests per second. 0 disables it.
	RateLimit float64

	// RateLimitBurst is the burst size for rate limiting.
	// Default: 1
	RateLimitBurst int

	// MaxBodyBytes caps ReadBody. Default: 5 MiB
	MaxBodyBytes int64

	// Transport overrides the default transport (tests, proxies).
	Transport http.RoundTripper
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:         15 * time.Second,
		MaxRetries:      0,
		RetryBackoff:    500 * time.Millisecond,
		MaxRetryBackoff: 10 * time.Second,
		UserAgent:       DefaultUserAgent,
		RateLimitBurst:  1,
		MaxBodyBytes:    DefaultMaxBodyBytes,
	}
}

// New creates a new HTTP client with the given configuration.
func New(config Config, logger logx.Logger) *Client {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = def.RetryBackoff
	}
	if config.MaxRetryBackoff <= 0 {
		config.MaxRetryBackoff = def.MaxRetryBackoff
	}
	if config.UserAgent == "" {
		config.UserAgent = def.UserAgent
	}
	if config.RateLimitBurst <= 0 {
		config.RateLimitBurst = def.RateLimitBurst
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = def.MaxBodyBytes
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	var rateLimiter *rate.Limiter
	if config.RateLimit > 0 {
		rateLimiter = rate.New(config.RateLimit, config.RateLimitBurst)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: config.Timeout, Transport: config.Transport},
		rateLimiter: rateLimiter,
		logger:      logger.With("component", "httpclient", "service", config.Service),
		config:      config,
	}
}

// Request performs an HTTP request with retry logic and rate limiting.
// The body is a byte slice so it can be replayed on every attempt.
// Non-retryable statuses are returned to the caller untouched; when
// retries are exhausted on 429/5xx the error is a *errors.StatusError.
func (c *Client) Request(ctx context.Context, method, rawURL string, body []byte, headers map[string]string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt-1); err != nil {
				return nil, errors.Wrap(err, "backoff interrupted")
			}
		}

		if c.rateLimiter != nil {
			if err := c.rateLimiter.Wait(ctx); err != nil {
				return nil, errors.Wrap(err, "rate limit wait failed")
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "build request %s %s: %v", method, rawURL, err)
		}
		req.Header.Set("User-Agent", c.config.UserAgent)
		for key, value := range headers {
			req.Header.Set(key, value)
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		duration := time.Since(start)

		if err != nil {
			lastErr = classify(ctx, err)
			c.logger.Debug("HTTP request failed",
				"method", method,
				"url", rawURL,
				"attempt", attempt+1,
				"error", err.Error(),
				"duration_ms", duration.Milliseconds(),
			)
			if ctx.Err() != nil {
				return nil, lastErr
			}
			continue
		}

		c.logger.Debug("HTTP response received",
			"method", method,
			"url", rawURL,
			"status", resp.StatusCode,
			"duration_ms", duration.Milliseconds(),
		)

		if !isRetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		drain(resp)
		lastErr = &errors.StatusError{Service: c.service(), StatusCode: resp.StatusCode}
	}

	if c.config.MaxRetries > 0 {
		return nil, errors.Wrapf(lastErr, "request failed after %d attempts", c.config.MaxRetries+1)
	}
	return nil, lastErr
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	return c.Request(ctx, http.MethodGet, rawURL, nil, headers)
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, rawURL string, body []byte, headers map[string]string) (*http.Response, error) {
	return c.Request(ctx, http.MethodPost, rawURL, body, headers)
}

// PostForm performs a POST with an application/x-www-form-urlencoded body.
func (c *Client) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) (*http.Response, error) {
	h := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}
	for k, v := range headers {
		h[k] = v
	}
	return c.Post(ctx, rawURL, []byte(form.Encode()), h)
}

// GetJSON performs a GET, checks for a 2xx status and decodes the JSON
// body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, headers map[string]string, v interface{}) error {
	h := map[string]string{"Accept": "application/json"}
	for k, val := range headers {
		h[k] = val
	}

	resp, err := c.Get(ctx, rawURL, h)
	if err != nil {
		return err
	}
	return c.DecodeJSON(resp, v)
}

// DecodeJSON checks the status, reads the body and decodes it into v.
func (c *Client) DecodeJSON(resp *http.Response, v interface{}) error {
	if err := c.CheckStatus(resp); err != nil {
		drain(resp)
		return err
	}

	body, err := c.ReadBody(resp)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(errors.ErrInvalidResponse, "%s: decode json: %v", c.service(), err)
	}
	return nil
}

// ReadBody reads at most MaxBodyBytes of the response body and closes it.
func (c *Client) ReadBody(resp *http.Response) ([]byte, error) {
	if resp == nil {
		return nil, errors.New("response is nil")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(errors.ErrConnectionFailed, "read response body: "+err.Error())
	}
	return body, nil
}

// CheckStatus returns a *errors.StatusError for non-2xx responses.
func (c *Client) CheckStatus(resp *http.Response) error {
	if resp == nil {
		return errors.New("response is nil")
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &errors.StatusError{Service: c.service(), StatusCode: resp.StatusCode}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.config
}

// String returns a human-readable representation of the client configuration.
func (c *Client) String() string {
	return fmt.Sprintf("HTTPClient{service=%s, timeout=%s, max_retries=%d, rate_limit=%.1f/s}",
		c.service(),
		c.config.Timeout,
		c.config.MaxRetries,
		c.config.RateLimit,
	)
}

func (c *Client) service() string {
	if c.config.Service == "" {
		return "remote"
	}
	return c.config.Service
}

// backoff waits RetryBackoff*2^attempt, capped at MaxRetryBackoff.
func (c *Client) backoff(ctx context.Context, attempt int) error {
	wait := time.Duration(float64(c.config.RetryBackoff) * math.Pow(2, float64(attempt)))
	if wait > c.config.MaxRetryBackoff {
		wait = c.config.MaxRetryBackoff
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// classify maps transport errors onto the platform sentinels.
func classify(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return errors.Wrap(ctx.Err(), "request aborted")
	case errors.IsTimeout(err):
		return errors.Wrap(errors.ErrTimeout, err.Error())
	default:
		return errors.Wrap(errors.ErrConnectionFailed, err.Error())
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	resp.Body.Close()
}
