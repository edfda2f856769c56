// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch issues single outbound requests with timeout, status
// classification, and bounded linear-backoff retries.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pdiddy/npmscout/pkg/types"
)

const (
	defaultTimeout          = 10 * time.Second
	defaultMaxAttempts      = 3
	defaultRateLimitBackoff = 2 * time.Second
	defaultTransportBackoff = 1 * time.Second

	// The npm website only serves full search pages to browser-like agents.
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// Client fetches URLs with retry and backoff. It holds no mutable state and
// is safe for concurrent use by multiple workers.
type Client struct {
	http *http.Client
	cfg  types.FetchConfig

	// sleep performs a cancellable backoff wait. Tests replace it to
	// observe backoff durations without real sleeps.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient builds a Client from cfg, filling unset fields with defaults.
func NewClient(cfg types.FetchConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.RateLimitBackoff <= 0 {
		cfg.RateLimitBackoff = defaultRateLimitBackoff
	}
	if cfg.TransportBackoff <= 0 {
		cfg.TransportBackoff = defaultTransportBackoff
	}
	return &Client{
		http:  &http.Client{Timeout: cfg.Timeout},
		cfg:   cfg,
		sleep: ctxSleep,
	}
}

// Fetch retrieves url and returns the response body. Transport errors and
// HTTP 429 are retried up to MaxAttempts with a backoff of base * attempt;
// any other non-2xx status fails after exactly one attempt. A timeout
// surfaces as a transport error and follows the transport retry policy.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr *Error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("User-Agent", c.cfg.UserAgent)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.5")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = &Error{URL: url, Class: ErrorClassNetwork, Err: err}
			if attempt == c.cfg.MaxAttempts {
				break
			}
			if err := c.backoff(ctx, c.cfg.TransportBackoff, attempt, lastErr); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			body, readErr := io.ReadAll(resp.Body)
			resp.Body.Close()
			if readErr != nil {
				return nil, fmt.Errorf("reading response from %s: %w", url, readErr)
			}
			return body, nil
		}

		// Drain and close the body before deciding on a retry.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		class := classify(resp.StatusCode)
		lastErr = &Error{URL: url, StatusCode: resp.StatusCode, Class: class}
		if !retryable(class) {
			log.Warn().Str("url", url).Int("status_code", resp.StatusCode).
				Msg("terminal HTTP status, not retrying")
			return nil, lastErr
		}
		if attempt == c.cfg.MaxAttempts {
			break
		}
		if err := c.backoff(ctx, c.cfg.RateLimitBackoff, attempt, lastErr); err != nil {
			return nil, err
		}
	}

	log.Warn().Str("url", url).Int("max_attempts", c.cfg.MaxAttempts).
		Str("error_class", string(lastErr.Class)).
		Msg("fetch attempts exhausted")
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrAttemptsExhausted, c.cfg.MaxAttempts, lastErr)
}

// backoff waits base * attempt, honoring ctx cancellation.
func (c *Client) backoff(ctx context.Context, base time.Duration, attempt int, cause *Error) error {
	wait := base * time.Duration(attempt)
	log.Debug().Str("url", cause.URL).Str("error_class", string(cause.Class)).
		Int("attempt", attempt).Dur("backoff", wait).
		Msg("retrying request after backoff")
	return c.sleep(ctx, wait)
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
