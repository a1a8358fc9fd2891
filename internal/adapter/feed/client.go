// Package feed fetches the bike-share station status feed over HTTP.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
	"github.com/couchcryptid/dock-health-etl/internal/observability"
)

// maxErrorBody caps how much of a failed response is kept for the error message.
const maxErrorBody = 512

// HTTPError is returned when the feed answers with a non-2xx status.
type HTTPError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("feed %s: status %d: %s", e.URL, e.StatusCode, e.Body)
}

// DecodeError is returned when the feed body is not valid JSON.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode feed %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Client implements pipeline.Extractor against a station status URL.
type Client struct {
	url        string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a feed client. A zero timeout leaves the request
// unbounded, like the default http.Client.
func NewClient(url string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		metrics:    metrics,
		logger:     logger,
	}
}

// Extract performs one GET against the feed and decodes the envelope.
// There is no retry: any failure is returned to the caller as-is.
func (c *Client) Extract(ctx context.Context) (domain.Feed, error) {
	start := time.Now()
	feed, outcome, err := c.fetch(ctx)
	c.metrics.FetchDuration.Observe(time.Since(start).Seconds())
	c.metrics.FetchRequests.WithLabelValues(outcome).Inc()

	if err != nil {
		return domain.Feed{}, err
	}
	c.logger.Debug("feed fetched",
		"url", c.url,
		"stations", len(feed.StationBeanList),
		"duration", time.Since(start),
	)
	return feed, nil
}

func (c *Client) fetch(ctx context.Context) (domain.Feed, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.Feed{}, "network_error", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Feed{}, "network_error", fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return domain.Feed{}, "http_error", &HTTPError{URL: c.url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Feed{}, "network_error", fmt.Errorf("read feed body: %w", err)
	}

	feed, err := Decode(body)
	if err != nil {
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			decodeErr.URL = c.url
		}
		return domain.Feed{}, "decode_error", err
	}
	return feed, "success", nil
}

// Decode parses a feed body. Only a body that is not valid JSON is a
// DecodeError; missing or mistyped required fields are left for enrichment
// to report as schema errors.
func Decode(body []byte) (domain.Feed, error) {
	var feed domain.Feed
	if err := json.Unmarshal(body, &feed); err != nil {
		return domain.Feed{}, &DecodeError{Err: err}
	}
	return feed, nil
}
