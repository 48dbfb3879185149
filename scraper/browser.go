// Package scraper renders pages in a headless browser when plain HTTP
// requests are refused. Every render launches its own browser process
// and tears it down before returning.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/engine"
	"github.com/use-agent/linkcard/models"
)

// Viewport of the rendered page.
const (
	viewportWidth  = 1366
	viewportHeight = 768
)

// challengePoll is how often the title is re-read while a bot challenge
// is being solved.
const challengePoll = 500 * time.Millisecond

// Browser renders a URL and returns the final document.
type Browser interface {
	Name() string
	Render(ctx context.Context, targetURL string) (*engine.FetchResult, error)
}

// New returns the browser driver named by cfg.Driver.
func New(cfg config.BrowserConfig) (Browser, error) {
	switch cfg.Driver {
	case "", "rod":
		return NewRodBrowser(cfg), nil
	case "chromedp":
		return NewChromedpBrowser(cfg), nil
	default:
		return nil, fmt.Errorf("scraper: unknown browser driver %q", cfg.Driver)
	}
}

// googleReferer mimics arriving from a search result.
func googleReferer(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
}

// waitOutChallenge handles a bot-challenge title: it waits settle once and
// re-reads the title, then polls until the title stops looking like a
// challenge or maxWait elapses. It returns the last title seen.
func waitOutChallenge(ctx context.Context, title string, settle, maxWait time.Duration, readTitle func() string) string {
	if !engine.IsChallengeTitle(title) {
		return title
	}
	if settle > 0 {
		if err := sleep(ctx, settle); err != nil {
			return title
		}
		title = readTitle()
	}
	deadline := time.Now().Add(maxWait)
	for engine.IsChallengeTitle(title) && time.Now().Before(deadline) {
		if err := sleep(ctx, challengePoll); err != nil {
			return title
		}
		title = readTitle()
	}
	return title
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// categorizeError wraps raw errors into typed MetadataErrors so callers can
// tell timeouts from browser failures.
func categorizeError(err error, msg string) *models.MetadataError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewMetadataError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewMetadataError(models.ErrCodeTimeout, "render canceled", err)
	default:
		return models.NewMetadataError(models.ErrCodeBrowserFailed, msg, err)
	}
}
