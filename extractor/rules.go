package extractor

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Rule returns a candidate value from doc, or "" when it has none.
type Rule func(doc *goquery.Document) string

// Chain is an ordered list of rules. The first non-empty value wins.
type Chain []Rule

// First evaluates the chain against doc.
func (c Chain) First(doc *goquery.Document) string {
	for _, r := range c {
		if v := r(doc); v != "" {
			return v
		}
	}
	return ""
}

var compiled sync.Map // selector string -> cascadia.Selector

// compile returns the cached matcher for sel, or nil if sel is not valid CSS.
func compile(sel string) cascadia.Selector {
	if m, ok := compiled.Load(sel); ok {
		return m.(cascadia.Selector)
	}
	m, err := cascadia.Compile(sel)
	if err != nil {
		slog.Warn("extractor: invalid selector", "selector", sel, "error", err)
		m = nil
	}
	compiled.Store(sel, m)
	return m
}

// Select matches sel and returns the first non-empty element value. An
// element's value is its content attribute when present, else its text.
func Select(sel string) Rule {
	return func(doc *goquery.Document) string {
		m := compile(sel)
		if m == nil {
			return ""
		}
		var out string
		doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = elementValue(s)
			return out == ""
		})
		return out
	}
}

// Attr matches sel and returns the first non-empty value of attr.
func Attr(sel, attr string) Rule {
	return func(doc *goquery.Document) string {
		m := compile(sel)
		if m == nil {
			return ""
		}
		var out string
		doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			v, _ := s.Attr(attr)
			out = strings.TrimSpace(v)
			return out == ""
		})
		return out
	}
}

// MetaProperty reads <meta property="name" content="...">.
func MetaProperty(name string) Rule {
	return Attr(`meta[property="`+name+`"]`, "content")
}

// MetaName reads <meta name="name" content="...">.
func MetaName(name string) Rule {
	return Attr(`meta[name="`+name+`"]`, "content")
}

// Text returns the collapsed text of the first element matching sel.
func Text(sel string) Rule {
	return func(doc *goquery.Document) string {
		m := compile(sel)
		if m == nil {
			return ""
		}
		var out string
		doc.FindMatcher(m).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			out = collapse(s.Text())
			return out == ""
		})
		return out
	}
}

// Selectors builds a chain of Select rules.
func Selectors(sels ...string) Chain {
	c := make(Chain, 0, len(sels))
	for _, s := range sels {
		c = append(c, Select(s))
	}
	return c
}

func elementValue(s *goquery.Selection) string {
	if v, ok := s.Attr("content"); ok {
		if v = collapse(v); v != "" {
			return v
		}
	}
	return collapse(s.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
