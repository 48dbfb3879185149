// Package resolver turns a product URL into a link-preview card. It never
// fails for network, parse or bot-blocking problems: those produce the
// placeholder card. Only a malformed input URL is an error.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/linkcard/cache"
	"github.com/use-agent/linkcard/engine"
	"github.com/use-agent/linkcard/extractor"
	"github.com/use-agent/linkcard/fallback"
	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/price"
	"github.com/use-agent/linkcard/redirect"
)

// Fetcher retrieves a page's HTML. *engine.Cascade implements it.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (*engine.FetchResult, error)
}

// Options tune a single resolution.
type Options struct {
	// MaxAge, when positive, only accepts cached cards younger than this.
	MaxAge time.Duration

	// NoCache skips both the cache lookup and the store.
	NoCache bool
}

// Outcome describes how a card was produced.
type Outcome struct {
	CacheHit bool
	Duration time.Duration
}

// Resolver runs redirect, fetch, extract and normalize in sequence.
// Resolutions share no state apart from the optional cache.
type Resolver struct {
	redirects *redirect.Resolver
	fetcher   Fetcher
	cache     cache.Store
}

// New creates a Resolver. redirects and store may be nil.
func New(redirects *redirect.Resolver, fetcher Fetcher, store cache.Store) *Resolver {
	return &Resolver{redirects: redirects, fetcher: fetcher, cache: store}
}

// Resolve returns the card for rawURL.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (*models.MetadataResult, error) {
	res, _, err := r.ResolveWithOptions(ctx, rawURL, Options{})
	return res, err
}

// ResolveWithOptions is Resolve with per-call cache control.
func (r *Resolver) ResolveWithOptions(ctx context.Context, rawURL string, opts Options) (*models.MetadataResult, Outcome, error) {
	start := time.Now()

	target, err := Validate(rawURL)
	if err != nil {
		return nil, Outcome{}, err
	}

	// ── 1. Redirect links ─────────────────────────────────────────────
	finalURL, productCode := target, ""
	if r.redirects != nil {
		rd := r.redirects.Resolve(ctx, target)
		finalURL, productCode = rd.FinalURL, rd.ProductCode
	}
	if productCode == "" {
		productCode = redirect.ProductCodeFromURL(finalURL)
	}
	domain := hostname(finalURL)

	// ── 2. Cache ──────────────────────────────────────────────────────
	key := cache.Key(finalURL)
	if r.cache != nil && !opts.NoCache {
		if cached, ok := r.cache.Get(ctx, key, opts.MaxAge); ok {
			slog.Debug("resolver: cache hit", "url", finalURL)
			return cached, Outcome{CacheHit: true, Duration: time.Since(start)}, nil
		}
	}

	// ── 3. Fetch, extract, normalize ──────────────────────────────────
	res, err := r.build(ctx, finalURL, domain, productCode)
	if err != nil {
		slog.Warn("resolver: using fallback card", "url", finalURL, "error", err)
		res = fallback.Provide(finalURL, domain, productCode)
	} else if r.cache != nil && !opts.NoCache {
		r.cache.Set(ctx, key, res)
	}

	return res, Outcome{Duration: time.Since(start)}, nil
}

// build produces an extracted card. Any error, including a panic inside
// extraction, means the caller should fall back.
func (r *Resolver) build(ctx context.Context, finalURL, domain, productCode string) (res *models.MetadataResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = nil, models.NewMetadataError(models.ErrCodeInternal, "extraction panicked", fmt.Errorf("%v", p))
		}
	}()

	page, err := r.fetcher.Fetch(ctx, finalURL)
	if err != nil {
		return nil, err
	}

	pageURL := finalURL
	if page.FinalURL != "" {
		pageURL = page.FinalURL
	}
	if productCode == "" {
		productCode = redirect.ProductCodeFromURL(pageURL)
	}

	fields, err := extractor.Extract(page.HTML, pageURL, productCode)
	if err != nil {
		return nil, err
	}

	return &models.MetadataResult{
		Title:       models.StringPtr(fields.Title),
		Description: models.StringPtr(fields.Description),
		Image:       models.StringPtr(fields.Image),
		Price:       price.Normalize(fields.RawPrice, domain),
		Domain:      domain,
		Source:      models.SourceExtracted,
		FinalURL:    pageURL,
		ProductCode: productCode,
		FetchMethod: page.EngineName,
	}, nil
}

// Validate checks that rawURL is an absolute http(s) URL with a host and
// returns it trimmed.
func Validate(rawURL string) (string, error) {
	s := strings.TrimSpace(rawURL)
	u, err := url.Parse(s)
	if err != nil {
		return "", models.NewMetadataError(models.ErrCodeInvalidURL, "URL cannot be parsed", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", models.NewMetadataError(models.ErrCodeInvalidURL, fmt.Sprintf("unsupported scheme %q", u.Scheme), nil)
	}
	if u.Hostname() == "" {
		return "", models.NewMetadataError(models.ErrCodeInvalidURL, "URL has no host", nil)
	}
	return s, nil
}

func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
