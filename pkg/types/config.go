// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with every request. The npm
	// website serves the state blob only to browser-like agents.
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds retry and backoff settings for single requests.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxAttempts is the bounded attempt count per request (default 3).
	MaxAttempts int `json:"max_attempts" yaml:"max_attempts"`

	// RateLimitBackoff is the base backoff after an HTTP 429; the wait is
	// RateLimitBackoff * attempt number (default 2s).
	RateLimitBackoff time.Duration `json:"rate_limit_backoff" yaml:"rate_limit_backoff"`

	// TransportBackoff is the base backoff after a transport-level error,
	// linear in the attempt number like RateLimitBackoff (default 1s).
	TransportBackoff time.Duration `json:"transport_backoff" yaml:"transport_backoff"`
}

// ScrapeConfig holds the settings for one scrape run. It is built once
// before the pipeline starts and never mutated during execution.
type ScrapeConfig struct {
	Fetch FetchConfig `json:"fetch" yaml:"fetch"`

	// Query is the search query string.
	Query string `json:"query" yaml:"query"`

	// MaxPages bounds the paginated discovery walk. Zero means no pages
	// are scraped; discovery still completes normally.
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// SortKey selects the output ordering: size, date, downloads,
	// dependents, or relevance. Unrecognized keys behave as relevance.
	SortKey string `json:"sort_key" yaml:"sort_key"`

	// Workers is the fixed enrichment worker pool size (default 10).
	Workers int `json:"workers" yaml:"workers"`

	// PageDelay is the pacing delay between successive search pages (default 1s).
	PageDelay time.Duration `json:"page_delay" yaml:"page_delay"`

	// TaskDelay is the pacing delay a worker applies between tasks (default 500ms).
	TaskDelay time.Duration `json:"task_delay" yaml:"task_delay"`
}

// SinkConfig holds settings for result persistence.
type SinkConfig struct {
	// OutName is the artifact base name; the writer appends a generation
	// timestamp and format extension.
	OutName string `json:"out_name" yaml:"out_name"`

	// Format selects the artifact encoding: "json" (default) or "yaml".
	Format string `json:"format" yaml:"format"`

	// CatalogPath, when set, enables the SQLite package catalog.
	CatalogPath string `json:"catalog_path,omitempty" yaml:"catalog_path,omitempty"`
}
