package engine

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	tls "github.com/refraction-networking/utls"
	"golang.org/x/net/html/charset"
)

// maxBody caps how much of a response is read.
const maxBody = 10 << 20

// HTTPEngine is a plain HTTP fetcher bound to one client identity. Its TLS
// ClientHello matches the identity's browser family.
type HTTPEngine struct {
	name   string
	client *http.Client
}

// h1Spec returns the ClientHello for id with ALPN forced to http/1.1 so the
// server never negotiates HTTP/2, which Go's http.Transport cannot speak
// over a utls connection. A fresh spec is built per connection because
// extensions carry per-handshake state.
func h1Spec(id tls.ClientHelloID) (*tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(id)
	if err != nil {
		return nil, err
	}
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	return &spec, nil
}

// NewHTTPEngine creates an HTTPEngine that presents id's TLS fingerprint.
// Identities whose fingerprint utls cannot turn into a spec fall back to
// Chrome's.
func NewHTTPEngine(id Identity) *HTTPEngine {
	hello := id.Hello
	if _, err := h1Spec(hello); err != nil {
		hello = tls.HelloChrome_Auto
	}

	// No Proxy: net/http bypasses DialTLSContext for proxied requests, which
	// would drop the identity's ClientHello.
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			dialer := &net.Dialer{Timeout: 10 * time.Second}
			conn, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			spec, err := h1Spec(hello)
			if err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: tls spec: %w", err)
			}
			host, _, _ := net.SplitHostPort(addr)
			tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
			if err := tlsConn.ApplyPreset(spec); err != nil {
				conn.Close()
				return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
			}
			if err := tlsConn.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			return tlsConn, nil
		},
		ForceAttemptHTTP2:   false,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return NewHTTPEngineWithClient(id.Name, &http.Client{Transport: transport})
}

// NewHTTPEngineWithClient creates an HTTPEngine around an existing client.
func NewHTTPEngineWithClient(name string, client *http.Client) *HTTPEngine {
	if client.CheckRedirect == nil {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		}
	}
	return &HTTPEngine{name: name, client: client}
}

func (e *HTTPEngine) Name() string { return e.name }

func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("http_engine: build request: %w", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{URL: req.URL, StatusCode: resp.StatusCode}
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !isHTMLContentType(ct) {
		return nil, fmt.Errorf("http_engine: non-html content-type %q", ct)
	}

	// Legacy Korean shops still serve EUC-KR; decode to UTF-8 up front.
	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBody), ct)
	if err != nil {
		return nil, fmt.Errorf("http_engine: charset: %w", err)
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("http_engine: read body: %w", err)
	}
	bodyStr := string(raw)

	title := extractTitle(bodyStr)
	if IsChallengePage(title, bodyStr) {
		return nil, &ChallengeError{URL: req.URL, Title: title}
	}

	return &FetchResult{
		HTML:       bodyStr,
		Title:      title,
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: e.Name(),
	}, nil
}

// isHTMLContentType returns true if the content-type header looks like HTML.
func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(ct)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml+xml")
}
