package usgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/quake-report/internal/observability"
)

var (
	// ErrInvalidURL reports a request URL that cannot be used.
	ErrInvalidURL = errors.New("invalid feed url")

	// ErrTransport reports a connection, timeout, or body read failure.
	ErrTransport = errors.New("feed transport failure")
)

// StatusError reports a non-200 response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("usgs feed: unexpected status %d", e.Code)
}

// Client fetches the raw USGS feed document.
type Client struct {
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client with the given connect and read timeouts.
func NewClient(connectTimeout, readTimeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Transport: newTransport(connectTimeout, readTimeout)},
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch issues one GET to rawURL and returns the body of a 200 response.
// It blocks for up to the connect plus read timeouts and must run off any
// goroutine that has to stay responsive. Every failure maps to ErrInvalidURL,
// ErrTransport, or *StatusError; the response is always closed.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := parseHTTPURL(rawURL)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("invalid_url").Inc()
		c.logger.Error("invalid feed url", "url", rawURL, "error", err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues("invalid_url").Inc()
		return nil, fmt.Errorf("%w: create request: %w", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	defer func() { c.metrics.FetchDuration.Observe(time.Since(start).Seconds()) }()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.transportFailure(ctx, "problem retrieving the earthquake feed", u, err)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		c.metrics.FetchRequests.WithLabelValues("status_error").Inc()
		c.logger.Error("error response code", "status", resp.StatusCode, "url", u.Redacted())
		return nil, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.transportFailure(ctx, "feed body read failed", u, err)
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	c.metrics.FetchRequests.WithLabelValues("success").Inc()
	c.logger.Debug("feed fetched", "url", u.Redacted(), "bytes", len(body))
	return body, nil
}

// transportFailure records a failed request. A cancelled context means the
// load was superseded or the service is stopping, not that the feed failed.
func (c *Client) transportFailure(ctx context.Context, msg string, u *url.URL, err error) {
	if ctx.Err() != nil {
		c.metrics.FetchRequests.WithLabelValues("cancelled").Inc()
		c.logger.Debug("feed request cancelled", "url", u.Redacted(), "reason", ctx.Err())
		return
	}
	c.metrics.FetchRequests.WithLabelValues("transport_error").Inc()
	c.logger.Error(msg, "url", u.Redacted(), "error", err)
}
