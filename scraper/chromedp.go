package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"

	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/engine"
)

// ChromedpBrowser renders pages with chromedp. It injects the same
// evasion script the rod driver uses.
type ChromedpBrowser struct {
	cfg config.BrowserConfig

	// launched, when set, receives the browser PID and user-data dir once
	// the process is up.
	launched func(pid int, userDataDir string)
}

// NewChromedpBrowser creates a ChromedpBrowser. No process is started
// until Render.
func NewChromedpBrowser(cfg config.BrowserConfig) *ChromedpBrowser {
	return &ChromedpBrowser{cfg: cfg}
}

func (b *ChromedpBrowser) Name() string { return "chromedp" }

func (b *ChromedpBrowser) allocatorOptions(userDataDir string) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserDataDir(userDataDir),
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.WindowSize(viewportWidth, viewportHeight),
	)
	if b.cfg.Locale != "" {
		opts = append(opts, chromedp.Flag("lang", b.cfg.Locale))
	}
	if b.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.cfg.UserAgent))
	}
	if b.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if b.cfg.Bin != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.Bin))
	}
	if b.cfg.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(b.cfg.Proxy))
	}
	return opts
}

// Render launches a fresh browser for targetURL. Cancelling the allocator
// context kills and reaps the process, and the user-data dir is removed
// after that, on every return path.
func (b *ChromedpBrowser) Render(ctx context.Context, targetURL string) (*engine.FetchResult, error) {
	userDataDir, err := os.MkdirTemp("", "linkcard-chromedp-")
	if err != nil {
		return nil, categorizeError(err, "failed to create user data dir")
	}
	defer os.RemoveAll(userDataDir)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions(userDataDir)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			slog.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)
	defer cancelBrowser()

	// An empty Run starts the browser process.
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, categorizeError(err, "failed to launch browser")
	}
	if b.launched != nil {
		if c := chromedp.FromContext(browserCtx); c != nil && c.Browser != nil {
			if p := c.Browser.Process(); p != nil {
				b.launched(p.Pid, userDataDir)
			}
		}
	}

	headers := network.Headers{}
	if ref := googleReferer(targetURL); ref != "" {
		headers["Referer"] = ref
	}

	var title string
	actions := []chromedp.Action{
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
			return err
		}),
	}
	if b.cfg.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(b.cfg.UserAgent).WithAcceptLanguage(b.cfg.Locale))
	}
	actions = append(actions,
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.cfg.SettleDelay),
		chromedp.Title(&title),
	)
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return nil, categorizeError(err, "browser automation failed")
	}

	title = waitOutChallenge(browserCtx, title, b.cfg.SettleDelay, b.cfg.ChallengeWait, func() string {
		var t string
		_ = chromedp.Run(browserCtx, chromedp.Title(&t))
		return t
	})

	var rawHTML, finalURL string
	if err := chromedp.Run(browserCtx,
		chromedp.OuterHTML("html", &rawHTML),
		chromedp.Location(&finalURL),
	); err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}
	if finalURL == "" {
		finalURL = targetURL
	}

	slog.Info("chromedp: rendered", "url", targetURL, "final_url", finalURL, "title", title)

	return &engine.FetchResult{
		HTML:       rawHTML,
		Title:      title,
		StatusCode: 200, // chromedp does not expose the document status
		FinalURL:   finalURL,
		EngineName: b.Name(),
	}, nil
}
