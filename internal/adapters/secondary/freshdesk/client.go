package freshdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/lorrc/helpdesk-metrics-backend/internal/core/errors"
	"github.com/lorrc/helpdesk-metrics-backend/internal/infrastructure/metrics"
)

const defaultRetryAfterSeconds = 5

// Config holds the remote API origin, credential and retry tuning.
type Config struct {
	BaseURL string
	APIKey  string

	// MaxRetries is the number of extra attempts after the first, spent
	// only on transient failures.
	MaxRetries int

	// RetryBaseDelay seeds the exponential backoff between attempts.
	RetryBaseDelay time.Duration

	RequestTimeout time.Duration
}

// Client performs requests against the remote helpdesk API through the
// shared scheduler, retrying transient failures with exponential backoff
// and classifying everything else for the caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	sched      *Scheduler
	logger     *slog.Logger
	metrics    *metrics.Acquisition

	maxRetries int
	retryBase  time.Duration
}

// NewClient creates a client bound to the given scheduler.
func NewClient(cfg Config, sched *Scheduler, logger *slog.Logger, m *metrics.Acquisition) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		sched:      sched,
		logger:     logger.With("component", "helpdesk_client"),
		metrics:    m,
		maxRetries: cfg.MaxRetries,
		retryBase:  cfg.RetryBaseDelay,
	}
}

// get performs a GET and returns the raw response body.
func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.request(ctx, http.MethodGet, path, query, nil)
}

// put performs a PUT with a JSON payload.
func (c *Client) put(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.request(ctx, http.MethodPut, path, nil, payload)
}

// request runs one logical API call with bounded retries for transient
// conditions. Rate-limit responses additionally arm the scheduler's global
// backoff before the retry, so the whole queue pauses.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.metrics.RecordRetry()
			if err := c.sleep(ctx, c.backoffDelay(attempt)); err != nil {
				return nil, err
			}
		}

		body, err := c.do(ctx, method, path, query, payload)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}

		apiErr, ok := apperrors.AsAPIError(err)
		switch {
		case ok && apiErr.IsTransient():
			// Shared quota exhausted upstream: pause everyone, not
			// just this request.
			retryAfter := apiErr.RetryAfter
			if retryAfter <= 0 {
				retryAfter = defaultRetryAfterSeconds
			}
			c.sched.SetGlobalBackoff(retryAfter)
			lastErr = err
		case ok:
			return nil, err
		case errors.Is(err, apperrors.ErrRouteNotFound):
			return nil, err
		default:
			// Network-layer failure.
			c.logger.Debug("request failed at network layer",
				"method", method,
				"path", path,
				"attempt", attempt,
				"error", err,
			)
			lastErr = err
		}
	}

	return nil, fmt.Errorf("%w: %s %s: %w", apperrors.ErrRetriesExhausted, method, path, lastErr)
}

// do performs exactly one HTTP exchange through the scheduler.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) ([]byte, error) {
	var out []byte

	err := c.sched.Run(ctx, func(ctx context.Context) error {
		fullURL := c.baseURL + path
		if len(query) > 0 {
			fullURL += "?" + query.Encode()
		}

		var body io.Reader
		if payload != nil {
			data, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("failed to marshal request body: %w", err)
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		// The remote API authenticates with the key as basic-auth user.
		req.SetBasicAuth(c.apiKey, "X")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.metrics.RecordRequest("network_error")
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			c.metrics.RecordRequest("network_error")
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			c.metrics.RecordRequest("success")
			out = respBody
			return nil
		}

		c.metrics.RecordRequest(strconv.Itoa(resp.StatusCode))
		return c.classifyFailure(resp, respBody, method, path)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// classifyFailure maps a non-success response onto the error taxonomy.
func (c *Client) classifyFailure(resp *http.Response, body []byte, method, path string) error {
	status := resp.StatusCode

	// A 404 that does not speak JSON is a routing or configuration fault,
	// not a missing resource; retrying it would waste shared quota.
	if status == http.StatusNotFound && !json.Valid(body) {
		return fmt.Errorf("%w: %s %s", apperrors.ErrRouteNotFound, method, path)
	}

	apiErr := apperrors.NewAPIError(status, truncate(string(body), 200))
	if apiErr.IsTransient() {
		if v, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && v > 0 {
			apiErr.RetryAfter = v
		}
	}
	return apiErr
}

// backoffDelay computes base * 2^(attempt-1) plus up to one base of jitter.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.retryBase << (attempt - 1)
	jitter := time.Duration(rand.Int63n(int64(c.retryBase)))
	return delay + jitter
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
