// Package engine fetches product pages. A Cascade tries a series of plain
// HTTP client identities and escalates to a headless browser when every
// one of them is refused.
package engine

import (
	"context"
	"fmt"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "chrome-windows", "rod").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}

// StatusError is returned when a server answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// ChallengeError is returned when a 2xx response is a bot-challenge
// interstitial instead of the requested page.
type ChallengeError struct {
	URL   string
	Title string
}

func (e *ChallengeError) Error() string {
	return fmt.Sprintf("bot challenge page %q for %s", e.Title, e.URL)
}
