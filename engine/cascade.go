package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/use-agent/linkcard/models"
)

// CascadeConfig tunes a Cascade.
type CascadeConfig struct {
	AttemptTimeout time.Duration
	BrowserTimeout time.Duration
	MinJitter      time.Duration
	MaxJitter      time.Duration
	AcceptLanguage string
}

// DefaultCascadeConfig returns the production pacing.
func DefaultCascadeConfig() CascadeConfig {
	return CascadeConfig{
		AttemptTimeout: 5 * time.Second,
		BrowserTimeout: 30 * time.Second,
		MinJitter:      150 * time.Millisecond,
		MaxJitter:      600 * time.Millisecond,
		AcceptLanguage: DefaultAcceptLanguage,
	}
}

// Attempt pairs a client identity with the engine that speaks as it.
type Attempt struct {
	Identity Identity
	Engine   Engine
}

// DefaultAttempts builds one utls-backed HTTPEngine per identity.
func DefaultAttempts(ids []Identity) []Attempt {
	attempts := make([]Attempt, 0, len(ids))
	for _, id := range ids {
		attempts = append(attempts, Attempt{Identity: id, Engine: NewHTTPEngine(id)})
	}
	return attempts
}

// Cascade tries each attempt in order, pausing briefly between them, and
// escalates to a browser engine once every attempt has been refused.
// Attempts never run concurrently. Under a ctx deadline, BrowserTimeout is
// held back for the browser.
type Cascade struct {
	attempts []Attempt
	browser  Engine
	cfg      CascadeConfig
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewCascade creates a Cascade. browser may be nil to disable the
// rendered fallback.
func NewCascade(attempts []Attempt, browser Engine, cfg CascadeConfig) *Cascade {
	return &Cascade{
		attempts: attempts,
		browser:  browser,
		cfg:      cfg,
		sleep:    sleepCtx,
	}
}

// BrowserName returns the fallback browser engine name, or "" when none.
func (c *Cascade) BrowserName() string {
	if c.browser == nil {
		return ""
	}
	return c.browser.Name()
}

// Fetch returns the first successful page for targetURL. When nothing
// succeeds the error is a *models.MetadataError with code FETCH_FAILED,
// or TIMEOUT if ctx expired first.
func (c *Cascade) Fetch(ctx context.Context, targetURL string) (*FetchResult, error) {
	var lastErr error

	for i, a := range c.attempts {
		if i > 0 {
			if err := c.sleep(ctx, c.jitter()); err != nil {
				return nil, c.fail(ctx, err)
			}
		}

		timeout, ok := c.attemptTimeout(ctx, i)
		if !ok {
			slog.Debug("cascade: keeping remaining time for browser", "url", targetURL, "skipped", len(c.attempts)-i)
			break
		}

		req := &FetchRequest{
			URL:     targetURL,
			Headers: a.Identity.Headers(targetURL, c.cfg.AcceptLanguage),
			Timeout: timeout,
		}
		slog.Debug("cascade: attempt", "identity", a.Identity.Name, "url", targetURL)
		result, err := a.Engine.Fetch(ctx, req)
		if err == nil {
			result.EngineName = a.Identity.Name
			slog.Info("cascade: fetched", "identity", a.Identity.Name, "url", targetURL, "status", result.StatusCode)
			return result, nil
		}
		slog.Debug("cascade: attempt failed", "identity", a.Identity.Name, "url", targetURL, "error", err)
		lastErr = err

		if ctx.Err() != nil {
			return nil, c.fail(ctx, lastErr)
		}
	}

	if c.browser != nil {
		slog.Info("cascade: escalating to browser", "engine", c.browser.Name(), "url", targetURL)
		result, err := c.browser.Fetch(ctx, &FetchRequest{URL: targetURL, Timeout: c.cfg.BrowserTimeout})
		if err == nil {
			return result, nil
		}
		slog.Warn("cascade: browser failed", "engine", c.browser.Name(), "url", targetURL, "error", err)
		lastErr = err
	}

	return nil, c.fail(ctx, lastErr)
}

// attemptTimeout returns the timeout for attempt i. With a browser fallback
// and a ctx deadline, attempts after the first only spend what is left once
// BrowserTimeout is set aside; ok is false when nothing is left.
func (c *Cascade) attemptTimeout(ctx context.Context, i int) (time.Duration, bool) {
	timeout := c.cfg.AttemptTimeout
	deadline, hasDeadline := ctx.Deadline()
	if i == 0 || c.browser == nil || !hasDeadline {
		return timeout, true
	}
	left := time.Until(deadline) - c.cfg.BrowserTimeout
	if left <= 0 {
		return 0, false
	}
	if timeout <= 0 || left < timeout {
		timeout = left
	}
	return timeout, true
}

func (c *Cascade) fail(ctx context.Context, cause error) error {
	if cause == nil {
		cause = errors.New("no fetch attempts configured")
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return models.NewMetadataError(models.ErrCodeTimeout, "fetch deadline exceeded", cause)
	}
	return models.NewMetadataError(models.ErrCodeFetchFailed, "all fetch attempts failed", cause)
}

func (c *Cascade) jitter() time.Duration {
	lo, hi := c.cfg.MinJitter, c.cfg.MaxJitter
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
