package scraper

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/engine"
)

// RodBrowser renders pages with go-rod and its stealth page preset.
type RodBrowser struct {
	cfg config.BrowserConfig

	// launched, when set, receives the browser PID and user-data dir once
	// the process is up.
	launched func(pid int, userDataDir string)
}

// NewRodBrowser creates a RodBrowser. No process is started until Render.
func NewRodBrowser(cfg config.BrowserConfig) *RodBrowser {
	return &RodBrowser{cfg: cfg}
}

func (b *RodBrowser) Name() string { return "rod" }

func (b *RodBrowser) launcher(ctx context.Context) *launcher.Launcher {
	l := launcher.New().
		Context(ctx).
		Headless(b.cfg.Headless).
		NoSandbox(b.cfg.NoSandbox)

	if b.cfg.Bin != "" {
		l = l.Bin(b.cfg.Bin)
	}
	if b.cfg.Proxy != "" {
		l = l.Proxy(b.cfg.Proxy)
	}
	if b.cfg.Locale != "" {
		l.Set(flags.Flag("lang"), b.cfg.Locale)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))
	return l
}

// Render launches a fresh browser, loads targetURL, waits for client-side
// rendering and any challenge interstitial, and returns the final DOM.
// The browser process is always torn down before Render returns.
//
// Lifecycle:
//
//  1. Launch and connect     – per-call process, killed and its dir removed in a defer
//  2. Stealth page           – mask navigator.webdriver etc. (before navigation!)
//  3. Identity               – user agent, locale, viewport, Referer
//  4. Hijack mount           – drop images/fonts/media and trackers
//  5. Navigate + load
//  6. Settle                 – fixed wait for late scripts
//  7. Challenge              – poll the title until the interstitial clears
//  8. Extract                – page.HTML() + location.href
func (b *RodBrowser) Render(ctx context.Context, targetURL string) (*engine.FetchResult, error) {
	began := time.Now()

	// ── 1. Launch ─────────────────────────────────────────────────────
	l := b.launcher(ctx)
	defer releaseLauncher(l)
	controlURL, err := l.Launch()
	if err != nil {
		return nil, categorizeError(err, "failed to launch browser")
	}
	if b.launched != nil {
		b.launched(l.PID(), l.Get(flags.UserDataDir))
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, categorizeError(err, "failed to connect to browser")
	}
	defer func() {
		if closeErr := browser.Close(); closeErr != nil {
			slog.Debug("rod: browser close failed", "error", closeErr)
		}
	}()

	// ── 2. Stealth page ───────────────────────────────────────────────
	page, err := stealth.Page(browser)
	if err != nil {
		return nil, categorizeError(err, "failed to create stealth page")
	}

	// ── 3. Identity ───────────────────────────────────────────────────
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      b.cfg.UserAgent,
		AcceptLanguage: b.cfg.Locale,
	}); err != nil {
		slog.Warn("rod: user agent override failed", "error", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		slog.Warn("rod: viewport override failed", "error", err)
	}
	if ref := googleReferer(targetURL); ref != "" {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Referer": ref}),
		}).Call(page); err != nil {
			slog.Warn("rod: referer header override failed", "error", err)
		}
	}

	// ── 4. Hijack ─────────────────────────────────────────────────────
	router := setupHijack(page, b.cfg.BlockedResourceTypes, true)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 5. Navigate ───────────────────────────────────────────────────
	p := page.Context(ctx)
	if err := p.Navigate(targetURL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}
	if err := p.WaitLoad(); err != nil {
		slog.Debug("rod: load event not observed, continuing", "url", targetURL, "error", err)
	}

	// ── 6. Settle ─────────────────────────────────────────────────────
	if err := sleep(ctx, b.cfg.SettleDelay); err != nil {
		return nil, categorizeError(err, "render deadline during settle")
	}

	// ── 7. Challenge ──────────────────────────────────────────────────
	title := evalStringOrEmpty(p, `() => document.title`)
	title = waitOutChallenge(ctx, title, b.cfg.SettleDelay, b.cfg.ChallengeWait, func() string {
		return evalStringOrEmpty(p, `() => document.title`)
	})

	// ── 8. Extract ────────────────────────────────────────────────────
	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = targetURL
	}

	var statusCode int
	if res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`); err == nil {
		statusCode = res.Value.Int()
	}

	slog.Info("rod: rendered", "url", targetURL, "final_url", finalURL, "title", title, "took", time.Since(began).Round(time.Millisecond))

	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      title,
		StatusCode: statusCode,
		FinalURL:   finalURL,
		EngineName: b.Name(),
	}, nil
}

// cleanupWait bounds how long releaseLauncher waits for the process to exit.
const cleanupWait = 5 * time.Second

// releaseLauncher kills the browser and removes its user-data dir on every
// Launch outcome. Cleanup blocks until the process has exited, which never
// happens when no process was started.
func releaseLauncher(l *launcher.Launcher) {
	dir := l.Get(flags.UserDataDir)
	if l.PID() == 0 {
		if dir != "" {
			_ = os.RemoveAll(dir)
		}
		return
	}

	l.Kill()
	done := make(chan struct{})
	go func() {
		l.Cleanup()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(cleanupWait):
		slog.Warn("rod: browser did not exit after kill", "pid", l.PID())
		if dir != "" {
			_ = os.RemoveAll(dir)
		}
	}
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
