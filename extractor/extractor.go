// Package extractor pulls link-preview fields out of a product page.
//
// Each field is an ordered Chain of rules evaluated first-success-wins.
// Per-site price rules come from the sites table and run before the
// generic ones.
package extractor

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/sites"
)

// Field length limits, in runes.
const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 500
)

// Fields is the raw extraction output. Empty strings mean absent.
// RawPrice is unnormalized.
type Fields struct {
	Title       string
	Description string
	Image       string
	RawPrice    string
}

var titleChain = Chain{
	MetaProperty("og:title"),
	MetaName("twitter:title"),
	MetaName("title"),
	Text("title"),
	Text("h1"),
}

var descriptionChain = Chain{
	MetaProperty("og:description"),
	MetaName("twitter:description"),
	MetaName("description"),
}

var imageChain = Chain{
	MetaProperty("og:image"),
	MetaProperty("og:image:secure_url"),
	MetaName("twitter:image"),
	MetaName("twitter:image:src"),
	Attr(`link[rel="image_src"]`, "href"),
	Attr(`meta[itemprop="image"]`, "content"),
}

// priceMetaChain is stage (a): structured product-price tags.
var priceMetaChain = Chain{
	MetaProperty("product:price:amount"),
	MetaProperty("og:price:amount"),
	Select(`meta[itemprop="price"]`),
	Select(`[itemprop="price"]`),
}

// marketplacePriceChain is stage (c), in fixed priority order.
var marketplacePriceChain = Selectors(
	".total-price strong",
	".prod-sale-price",
	"strong.price_real",
	".sale_price",
	".price_sale",
	".selling-price",
	".final-price",
	".product-price",
	"#price",
	".price-value",
)

// genericPriceChain is stage (e).
var genericPriceChain = Selectors(
	".price",
	".cost",
	`[class*="price"]`,
)

// Extract parses rawHTML fetched from finalURL. productCode may be empty.
// It fails only when the document cannot be parsed.
func Extract(rawHTML, finalURL, productCode string) (Fields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Fields{}, models.NewMetadataError(models.ErrCodeParseFailed, "failed to parse HTML", err)
	}
	return ExtractDocument(doc, rawHTML, finalURL, productCode), nil
}

// ExtractDocument runs every field chain over an already parsed document.
func ExtractDocument(doc *goquery.Document, rawHTML, finalURL, productCode string) Fields {
	host := hostOf(finalURL)

	f := Fields{
		Title:       truncate(titleChain.First(doc), MaxTitleLen),
		Description: description(doc, rawHTML, finalURL),
		Image:       image(doc, finalURL, host, productCode),
		RawPrice:    rawPrice(doc, host),
	}
	slog.Debug("extractor: fields",
		"url", finalURL,
		"title", f.Title != "",
		"description", f.Description != "",
		"image", f.Image != "",
		"price", f.RawPrice != "",
	)
	return f
}

func description(doc *goquery.Document, rawHTML, finalURL string) string {
	if d := descriptionChain.First(doc); d != "" {
		return truncate(d, MaxDescriptionLen)
	}
	return truncate(readabilityExcerpt(rawHTML, finalURL), MaxDescriptionLen)
}

// readabilityExcerpt is the last description source. Readability errors
// mean no description, never an extraction failure.
func readabilityExcerpt(rawHTML, finalURL string) string {
	u, err := nurl.Parse(finalURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		slog.Debug("extractor: readability failed", "url", finalURL, "error", err)
		return ""
	}
	return collapse(article.Excerpt)
}

func image(doc *goquery.Document, finalURL, host, productCode string) string {
	if img := resolveURL(finalURL, imageChain.First(doc)); img != "" {
		return img
	}
	return sites.ProductImageURL(host, productCode)
}

// rawPrice runs the price stages in order and stops at the first candidate.
func rawPrice(doc *goquery.Document, host string) string {
	if p := priceMetaChain.First(doc); p != "" {
		return p
	}
	if s := sites.Lookup(host); s != nil {
		if p := sitePrice(doc, s); p != "" {
			return p
		}
	}
	if p := marketplacePriceChain.First(doc); p != "" {
		return p
	}
	if p := jsonLDPrice(doc); p != "" {
		return p
	}
	return genericPriceChain.First(doc)
}

// sitePrice is stage (b): the site's text patterns over description meta
// tags, then its selectors.
func sitePrice(doc *goquery.Document, s *sites.Site) string {
	if len(s.PriceTextPatterns) > 0 {
		texts := []string{
			MetaProperty("og:description")(doc),
			MetaName("description")(doc),
			MetaName("twitter:description")(doc),
		}
		for _, re := range s.PriceTextPatterns {
			for _, t := range texts {
				if m := re.FindStringSubmatch(t); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
					return strings.TrimSpace(m[1])
				}
			}
		}
	}
	return Selectors(s.PriceSelectors...).First(doc)
}

func hostOf(rawURL string) string {
	u, err := nurl.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
