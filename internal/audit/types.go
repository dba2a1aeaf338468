// Package audit runs the single-page audit pipeline: normalize, fetch,
// extract, aggregate, score, and derive issues into an immutable Report.
package audit

import (
	"time"
)

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 6 * time.Second

// DefaultMaxHTMLBytes caps the captured HTML body.
const DefaultMaxHTMLBytes = 2_000_000

// FetchRequest captures everything needed to fetch one page.
type FetchRequest struct {
	URL     string
	Timeout time.Duration
}

// FetchResult is returned by a Fetcher implementation.
type FetchResult struct {
	URL        string
	FinalURL   string
	StatusCode int
	// Headers maps lower-cased header names to their (comma-joined) values.
	Headers   map[string]string
	TTFB      time.Duration
	HTML      string
	Truncated bool
}

// Options tunes a single Run.
type Options struct {
	// PreviousID references the report this audit should be compared against.
	PreviousID string
}
