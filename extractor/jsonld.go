package extractor

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// jsonLDPrice returns the first Product offer price found in the page's
// JSON-LD blocks. Blocks that fail to parse are skipped.
func jsonLDPrice(doc *goquery.Document) string {
	var out string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			slog.Debug("extractor: skipping malformed JSON-LD", "error", err)
			return true
		}
		out = findProductPrice(v)
		return out == ""
	})
	return out
}

// findProductPrice walks a decoded JSON-LD value: top-level arrays, @graph
// containers and nested Product nodes.
func findProductPrice(v any) string {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if p := findProductPrice(item); p != "" {
				return p
			}
		}
	case map[string]any:
		if isProduct(t["@type"]) {
			if p := offerPrice(t["offers"]); p != "" {
				return p
			}
		}
		if g, ok := t["@graph"]; ok {
			return findProductPrice(g)
		}
	}
	return ""
}

func isProduct(typ any) bool {
	switch t := typ.(type) {
	case string:
		return strings.EqualFold(t, "Product")
	case []any:
		for _, x := range t {
			if s, ok := x.(string); ok && strings.EqualFold(s, "Product") {
				return true
			}
		}
	}
	return false
}

// offerPrice reads price, then lowPrice, from an Offer, AggregateOffer or
// an array of offers.
func offerPrice(offers any) string {
	switch t := offers.(type) {
	case []any:
		for _, o := range t {
			if p := offerPrice(o); p != "" {
				return p
			}
		}
	case map[string]any:
		for _, key := range []string{"price", "lowPrice"} {
			if p := scalar(t[key]); p != "" {
				return p
			}
		}
		if inner, ok := t["offers"]; ok {
			return offerPrice(inner)
		}
	}
	return ""
}

func scalar(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	}
	return ""
}
