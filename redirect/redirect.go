// Package redirect resolves marketplace affiliate and short links to the
// product page they point at.
package redirect

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/use-agent/linkcard/sites"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultHosts are the redirector hostnames followed by default.
var DefaultHosts = []string{
	"link.gmarket.co.kr",
	"link.auction.co.kr",
	"link.11st.co.kr",
	"link.coupang.com",
	"app.ac",
}

// genericCodeParams are consulted when the final host is not in the site table.
var genericCodeParams = []string{"goodscode", "itemno", "prdNo", "productId"}

// Result is the outcome of resolving a link.
type Result struct {
	FinalURL    string
	ProductCode string
}

// Resolver follows known redirect links with HEAD requests.
type Resolver struct {
	client *http.Client
	hosts  []string
}

// New creates a Resolver. A nil client gets a default one with timeout;
// nil hosts means DefaultHosts.
func New(client *http.Client, hosts []string, timeout time.Duration) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if client.CheckRedirect == nil {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		}
	}
	if hosts == nil {
		hosts = DefaultHosts
	}
	return &Resolver{client: client, hosts: hosts}
}

// Matches reports whether rawURL points at a known redirector.
func (r *Resolver) Matches(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range r.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// Resolve follows rawURL when it is a known redirect link. It never fails:
// URLs that do not match, and any network error, yield rawURL unchanged
// with no product code.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) Result {
	if !r.Matches(rawURL) {
		return Result{FinalURL: rawURL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return Result{FinalURL: rawURL}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Warn("redirect: resolve failed, using original URL",
			"url", rawURL, "error", err)
		return Result{FinalURL: rawURL}
	}
	resp.Body.Close()

	finalURL := resp.Request.URL.String()
	slog.Debug("redirect: resolved",
		"url", rawURL, "final_url", finalURL, "status", resp.StatusCode)

	return Result{
		FinalURL:    finalURL,
		ProductCode: ProductCodeFromURL(finalURL),
	}
}

// ProductCodeFromURL returns the product identifier carried in rawURL's
// query string, using the matching site's parameter names first.
func ProductCodeFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	q := u.Query()

	params := genericCodeParams
	if s := sites.Lookup(u.Hostname()); s != nil && len(s.ProductCodeParams) > 0 {
		params = s.ProductCodeParams
	}
	for _, p := range params {
		if v := strings.TrimSpace(q.Get(p)); v != "" {
			return v
		}
	}
	return ""
}
