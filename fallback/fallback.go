// Package fallback builds the placeholder card shown when a page could not
// be fetched or parsed.
package fallback

import (
	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/sites"
)

// GenericImage is the stock photo for domains outside the site table.
const GenericImage = sites.StockShoppingImage

// Provide returns the placeholder for domain. productCode, when known,
// upgrades the stock photo to the product's own CDN image on sites that
// have one. Price is always nil.
func Provide(finalURL, domain, productCode string) *models.MetadataResult {
	res := &models.MetadataResult{
		Domain:      domain,
		Source:      models.SourceFallback,
		FinalURL:    finalURL,
		ProductCode: productCode,
	}

	if s := sites.Lookup(domain); s != nil {
		res.Title = models.StringPtr(s.FallbackTitle)
		res.Description = models.StringPtr(s.FallbackDescription)
		res.Image = models.StringPtr(s.FallbackImage)
	} else {
		res.Title = models.StringPtr(domain)
		res.Description = models.StringPtr(domain + " 페이지")
		res.Image = models.StringPtr(GenericImage)
	}

	if img := sites.ProductImageURL(domain, productCode); img != "" {
		res.Image = models.StringPtr(img)
	}
	return res
}
