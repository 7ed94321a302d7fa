package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pickem/ingestion/internal/feeds"
	"pickem/ingestion/internal/metrics"
	"pickem/ingestion/internal/models"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// Options configures a ratings page client
type Options struct {
	Timeout     time.Duration
	InsecureTLS bool // the Sagarin host has served broken certificate chains
	MaxAttempts int

	// NewBackOff overrides the retry schedule. Defaults to exponential.
	NewBackOff func() backoff.BackOff
}

// Client downloads ratings pages
type Client struct {
	httpClient  *http.Client
	maxAttempts int
	newBackOff  func() backoff.BackOff
	now         func() time.Time
}

// NewClient creates a new ratings page client
func NewClient(opts Options) *Client {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.NewBackOff == nil {
		opts.NewBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = time.Second
			b.MaxElapsedTime = 0
			return b
		}
	}

	transport := &http.Transport{
		MaxIdleConns:    10,
		IdleConnTimeout: 90 * time.Second,
	}
	if opts.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		maxAttempts: opts.MaxAttempts,
		newBackOff:  opts.NewBackOff,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// FetchRatings downloads and parses the ratings page at url. The feed
// timestamp is the download time.
func (c *Client) FetchRatings(ctx context.Context, url string) (models.RatingsFeed, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return models.RatingsFeed{}, err
	}
	downloaded := c.now()

	page, err := feeds.ParseSagarin(string(body))
	if err != nil {
		return models.RatingsFeed{}, fmt.Errorf("failed to parse %s: %w", url, err)
	}

	log.Info().
		Str("url", url).
		Int("teams", len(page.Ratings)).
		Float64("home_advantage", page.HomeAdvantage).
		Msg("Ratings page parsed")

	return models.RatingsFeed{
		Source:        url,
		Ratings:       page.Ratings,
		HomeAdvantage: page.HomeAdvantage,
		Timestamp:     downloaded,
	}, nil
}

// get performs a GET request with retries on network errors and retryable statuses
func (c *Client) get(ctx context.Context, url string) (body []byte, err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RecordFetch(status, time.Since(start).Seconds())
	}()

	attempt := 0
	operation := func() error {
		attempt++

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", "pickem-ingestion/1.0")

		log.Debug().
			Str("url", url).
			Int("attempt", attempt).
			Msg("Fetching ratings page")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			body = data
			return nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &StatusError{Code: resp.StatusCode}

		default:
			// Other errors - don't retry
			return backoff.Permanent(&StatusError{Code: resp.StatusCode})
		}
	}

	b := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxAttempts-1)), ctx)
	err = backoff.RetryNotify(operation, b, func(err error, wait time.Duration) {
		log.Warn().
			Err(err).
			Str("url", url).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("Ratings page fetch failed, will retry")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s after %d attempt(s): %w", url, attempt, err)
	}

	log.Debug().
		Str("url", url).
		Int("size", len(body)).
		Msg("Ratings page fetched")
	return body, nil
}

// StatusError is returned for a non-200 response
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// IsStatus reports whether err came from a response with the given status code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
