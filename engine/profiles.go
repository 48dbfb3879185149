package engine

import (
	"net/url"

	tls "github.com/refraction-networking/utls"
)

// DefaultAcceptLanguage prefers Korean, matching the marketplaces served.
const DefaultAcceptLanguage = "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"

// Identity is one coherent client persona: a user agent, the headers that
// browser actually sends, and the TLS ClientHello it would produce.
type Identity struct {
	Name      string
	UserAgent string
	Mobile    bool
	Hello     tls.ClientHelloID
	Extra     map[string]string
}

// Identities is the ordered list tried by the cascade.
var Identities = []Identity{
	{
		Name:      "chrome-windows",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
		Hello:     tls.HelloChrome_Auto,
		Extra: map[string]string{
			"Sec-Ch-Ua":          `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
			"Sec-Ch-Ua-Mobile":   "?0",
			"Sec-Ch-Ua-Platform": `"Windows"`,
			"Sec-Fetch-Dest":     "document",
			"Sec-Fetch-Mode":     "navigate",
			"Sec-Fetch-Site":     "cross-site",
			"Sec-Fetch-User":     "?1",
		},
	},
	{
		Name:      "safari-macos",
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
		Hello:     tls.HelloSafari_Auto,
	},
	{
		Name:      "firefox-windows",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
		Hello:     tls.HelloFirefox_Auto,
		Extra: map[string]string{
			"Sec-Fetch-Dest": "document",
			"Sec-Fetch-Mode": "navigate",
			"Sec-Fetch-Site": "cross-site",
			"Sec-Fetch-User": "?1",
		},
	},
	{
		Name:      "safari-iphone",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
		Mobile:    true,
		Hello:     tls.HelloIOS_Auto,
	},
	{
		Name:      "chrome-android",
		UserAgent: "Mozilla/5.0 (Linux; Android 14; SM-S918N) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36",
		Mobile:    true,
		Hello:     tls.HelloChrome_Auto,
		Extra: map[string]string{
			"Sec-Ch-Ua":          `"Google Chrome";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
			"Sec-Ch-Ua-Mobile":   "?1",
			"Sec-Ch-Ua-Platform": `"Android"`,
		},
	},
	{
		Name:      "edge-windows",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
		Hello:     tls.HelloEdge_Auto,
		Extra: map[string]string{
			"Sec-Ch-Ua":          `"Microsoft Edge";v="131", "Chromium";v="131", "Not_A Brand";v="24"`,
			"Sec-Ch-Ua-Mobile":   "?0",
			"Sec-Ch-Ua-Platform": `"Windows"`,
		},
	},
}

// Headers builds the request headers this identity sends for targetURL.
func (id Identity) Headers(targetURL, acceptLanguage string) map[string]string {
	if acceptLanguage == "" {
		acceptLanguage = DefaultAcceptLanguage
	}
	h := map[string]string{
		"User-Agent":                id.UserAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           acceptLanguage,
		"Upgrade-Insecure-Requests": "1",
	}
	if ref := id.referer(targetURL); ref != "" {
		h["Referer"] = ref
	}
	for k, v := range id.Extra {
		h[k] = v
	}
	return h
}

// referer mimics arriving from a search result on desktop and from the
// site's own home page on mobile.
func (id Identity) referer(targetURL string) string {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" {
		return ""
	}
	if id.Mobile {
		return u.Scheme + "://" + u.Host + "/"
	}
	return "https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())
}
