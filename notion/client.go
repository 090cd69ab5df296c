// Package notion retrieves database schemas from the Notion API.
//
// Only the retrieve-database endpoint is used. Responses are returned as raw
// bytes so callers can cache them verbatim and decode them with schema.Decode.
package notion

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/internal/httpclient"
	"github.com/teranos/notion-schema/logger"
)

// maxResponseBytes bounds a single schema response.
const maxResponseBytes = 16 << 20

// Doer sends HTTP requests. *http.Client and *httpclient.SaferClient satisfy it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Options configures a Client.
type Options struct {
	BaseURL           string
	Version           string // Notion-Version header
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	MaxConcurrency    int
	MaxRetries        int

	// HTTPClient overrides the SSRF-guarded default.
	HTTPClient Doer
	// RetryInitialInterval overrides the first backoff delay.
	RetryInitialInterval time.Duration
	// RetryMaxInterval caps any single backoff delay, Retry-After included.
	RetryMaxInterval time.Duration
}

// Client talks to the Notion API.
type Client struct {
	baseURL        string
	version        string
	apiKey         string
	http           Doer
	limiter        *rate.Limiter
	maxConcurrency int
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	log            *zap.SugaredLogger
}

// NewClient creates a Client. A nil logger disables logging.
func NewClient(opts Options, log *zap.SugaredLogger) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("notion API key is not set"),
			"export NOTION_SCHEMA_API_KEY or NOTION_TOKEN with an integration token",
		)
	}
	if opts.BaseURL == "" {
		return nil, errors.NewInvalidRequestError("notion base URL is not set")
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	c := &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		version:        opts.Version,
		apiKey:         opts.APIKey,
		http:           opts.HTTPClient,
		maxConcurrency: opts.MaxConcurrency,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.RetryInitialInterval,
		maxBackoff:     opts.RetryMaxInterval,
		log:            log,
	}
	if c.http == nil {
		c.http = httpclient.NewSaferClient(opts.Timeout, httpclient.Options{})
	}
	if c.maxConcurrency < 1 {
		c.maxConcurrency = 1
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.initialBackoff <= 0 {
		c.initialBackoff = 500 * time.Millisecond
	}
	if c.maxBackoff <= 0 {
		c.maxBackoff = 30 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	c.limiter = rate.NewLimiter(limit, 1)

	return c, nil
}

// RetrieveDatabase fetches the retrieve-database response for id.
// Rate limits and server errors are retried with exponential backoff;
// a Retry-After header raises the delay.
func (c *Client) RetrieveDatabase(ctx context.Context, id string) ([]byte, error) {
	endpoint := c.baseURL + "/v1/databases/" + url.PathEscape(id)

	expBackoff := backoff.ExponentialBackOff{
		InitialInterval:     c.initialBackoff,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         c.maxBackoff,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	expBackoff.Reset()

	for attempt := 1; ; attempt++ {
		body, err := c.retrieveOnce(ctx, endpoint, id, attempt)
		if err == nil {
			return body, nil
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Retryable() {
			return nil, err
		}
		if attempt > c.maxRetries {
			return nil, errors.Wrapf(err, "giving up after %d attempts", attempt)
		}

		delay := expBackoff.NextBackOff()
		if apiErr.RetryAfter > delay {
			delay = min(apiErr.RetryAfter, c.maxBackoff)
		}

		c.log.Warnw("Notion request failed, retrying",
			logger.FieldDatabaseID, id,
			logger.FieldStatus, apiErr.Status,
			logger.FieldAttempt, attempt,
			"delay", delay.String())

		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "notion request cancelled")
		case <-time.After(delay):
		}
	}
}

func (c *Client) retrieveOnce(ctx context.Context, endpoint, id string, attempt int) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to retrieve database %s", id)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response for database %s", id)
	}

	c.log.Debugw("Notion request",
		logger.FieldDatabaseID, id,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldAttempt, attempt,
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	if resp.StatusCode == http.StatusOK {
		return body, nil
	}
	return nil, newAPIError(resp, body, id)
}
