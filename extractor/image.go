package extractor

import (
	nurl "net/url"
	"strings"
)

// resolveURL makes ref absolute against base. Anything that does not end
// up as an http(s) URL with a host is treated as absent.
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := nurl.Parse(base)
	if err != nil {
		return ""
	}
	r, err := nurl.Parse(ref)
	if err != nil {
		return ""
	}
	abs := b.ResolveReference(r)
	if (abs.Scheme != "http" && abs.Scheme != "https") || abs.Host == "" {
		return ""
	}
	return abs.String()
}
