// Package app assembles the resolution pipeline from configuration. Both
// the HTTP server and the one-shot CLI build their resolver here.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/use-agent/linkcard/cache"
	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/engine"
	"github.com/use-agent/linkcard/redirect"
	"github.com/use-agent/linkcard/resolver"
	"github.com/use-agent/linkcard/scraper"
)

// App is a wired pipeline plus the resources it owns.
type App struct {
	Resolver *resolver.Resolver
	Cascade  *engine.Cascade
	Store    cache.Store

	closers []func()
}

// Options select which optional parts are built.
type Options struct {
	// NoCache leaves Store nil.
	NoCache bool
}

// New builds the cache, fetch cascade, browser fallback and redirect
// resolver described by cfg.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{}

	if !opts.NoCache {
		store, err := newStore(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		a.Store = store
		switch s := store.(type) {
		case *cache.Memory:
			a.closers = append(a.closers, s.Close)
		case *cache.Redis:
			a.closers = append(a.closers, func() { _ = s.Close() })
		}
	}

	var browser engine.Engine
	if cfg.Browser.Enabled {
		b, err := scraper.New(cfg.Browser)
		if err != nil {
			a.Close()
			return nil, err
		}
		browser = engine.NewBrowserEngine(b.Name(), b.Render)
	}

	cascadeCfg := engine.CascadeConfig{
		AttemptTimeout: cfg.Fetch.AttemptTimeout,
		BrowserTimeout: cfg.Browser.NavigationTimeout,
		MinJitter:      cfg.Fetch.MinJitter,
		MaxJitter:      cfg.Fetch.MaxJitter,
		AcceptLanguage: cfg.Fetch.AcceptLanguage,
	}
	a.Cascade = engine.NewCascade(engine.DefaultAttempts(engine.Identities), browser, cascadeCfg)

	redirects := redirect.New(nil, cfg.Redirect.Hosts, cfg.Redirect.Timeout)

	a.Resolver = resolver.New(redirects, a.Cascade, a.Store)

	slog.Info("pipeline ready",
		"identities", len(engine.Identities),
		"browser", a.Cascade.BrowserName(),
		"cache", backendName(a.Store),
	)
	return a, nil
}

// Close releases the cache backend.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func newStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		return cache.NewMemory(cfg.MaxEntries, cfg.TTL), nil
	case "redis":
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("app: redis cache backend needs LINKCARD_REDIS_URL")
		}
		return cache.NewRedis(ctx, cfg.RedisURL, cfg.TTL)
	default:
		return nil, fmt.Errorf("app: unknown cache backend %q", cfg.Backend)
	}
}

func backendName(s cache.Store) string {
	if s == nil {
		return "none"
	}
	return s.Backend()
}
