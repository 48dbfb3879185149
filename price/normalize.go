// Package price cleans raw price text scraped from product pages into the
// canonical "<digits>원" form.
package price

import (
	"regexp"
	"strings"
)

// Marker is the currency unit that identifies a valid price.
const Marker = "원"

// denylist matches texts that look numeric but are not prices. A candidate
// is only rejected when it also lacks the currency marker.
var denylist = []*regexp.Regexp{
	regexp.MustCompile(`총\s*\d[\d,]*\s*개`),
	regexp.MustCompile(`\d[\d,]*\s*개\s*(상품|제품|옵션)`),
	regexp.MustCompile(`(?i)(전체\s*이미지|total\s*images?|이미지\s*\d)`),
	regexp.MustCompile(`(?i)(리뷰|후기|상품평|reviews?)`),
	regexp.MustCompile(`(?i)(일시\s*품절|품절|sold\s*out|out\s*of\s*stock)`),
	regexp.MustCompile(`(?i)(수량|재고|qty|quantity)`),
	regexp.MustCompile(`\d\s*(개|건|명|점|회|장|매)`),
	regexp.MustCompile(`^[^\p{L}\p{N}]*$`),
}

var (
	hangul = regexp.MustCompile(`\p{Hangul}`)
	digit  = regexp.MustCompile(`\d`)

	decimalFraction = regexp.MustCompile(`(\d)\.\d+`)
	disallowed      = regexp.MustCompile(`[^\d,원]`)
	markedPrice     = regexp.MustCompile(`\d[\d,]*원`)
	numericOnly     = regexp.MustCompile(`^\d[\d,]*$`)
)

// percentQuirkDomains interleave a discount rate with the sale price,
// e.g. "15%19,900원".
var percentQuirkDomains = []string{"jnmall"}

// Normalize returns the canonical price for raw scraped from domain, or nil
// when raw is empty or is not a price.
func Normalize(raw, domain string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if !strings.Contains(s, Marker) && IsDenied(s) {
		return nil
	}

	if hasPercentQuirk(domain) {
		if i := strings.Index(s, "%"); i >= 0 {
			s = s[i+1:]
		}
	}

	s = decimalFraction.ReplaceAllString(s, "$1")
	s = disallowed.ReplaceAllString(s, "")

	switch {
	case markedPrice.MatchString(s):
		s = markedPrice.FindString(s)
	case numericOnly.MatchString(s):
		s += Marker
	default:
		return nil
	}
	return &s
}

// IsDenied reports whether s matches a non-price pattern. The currency
// marker is not considered here.
func IsDenied(s string) bool {
	for _, re := range denylist {
		if re.MatchString(s) {
			return true
		}
	}
	return hangul.MatchString(s) && digit.MatchString(s)
}

func hasPercentQuirk(domain string) bool {
	domain = strings.ToLower(domain)
	for _, d := range percentQuirkDomains {
		if strings.Contains(domain, d) {
			return true
		}
	}
	return false
}
