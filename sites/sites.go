// Package sites holds the per-marketplace overrides used across the
// pipeline. Entries are matched by substring against the hostname, so
// adding a site never touches extraction control flow.
package sites

import (
	"fmt"
	"regexp"
	"strings"
)

// Site describes one known marketplace.
type Site struct {
	// Name is a short identifier used in logs.
	Name string

	// Match lists hostname substrings that select this site.
	Match []string

	// PriceTextPatterns are tried against the page's description meta
	// tags before PriceSelectors. The first capture group is the price.
	PriceTextPatterns []*regexp.Regexp

	// PriceSelectors are tried in order; the first non-empty value wins.
	PriceSelectors []string

	// ProductCodeParams are query parameters carrying the product id.
	ProductCodeParams []string

	// ProductImage builds a CDN image URL from a product code.
	// Nil when the site has no predictable image CDN.
	ProductImage func(code string) string

	FallbackTitle       string
	FallbackDescription string
	FallbackImage       string
}

// Stock photos for placeholder cards.
const (
	StockShoppingImage = "https://images.unsplash.com/photo-1556742049-0cfed4f6a45d?w=600&q=80"
	StockMarketImage   = "https://images.unsplash.com/photo-1472851294608-062f824d29cc?w=600&q=80"
	StockPackageImage  = "https://images.unsplash.com/photo-1607082348824-0a96f2a4b9da?w=600&q=80"
)

var priceColon = regexp.MustCompile(`가격\s*[:：]\s*([\d,]+\s*원)`)

func gmarketImage(code string) string {
	return fmt.Sprintf("https://gdimg.gmarket.co.kr/%s/still/600", code)
}

func auctionImage(code string) string {
	return fmt.Sprintf("https://image.auction.co.kr/itemimage/%s/%s/%s0.jpg", code[:2], code[2:4], code)
}

// Known is the ordered site table. Earlier entries win when several match.
var Known = []*Site{
	{
		Name:              "11st",
		Match:             []string{"11st.co.kr"},
		PriceTextPatterns: []*regexp.Regexp{priceColon},
		PriceSelectors: []string{
			"#finalDscPrcArea .value",
			".price_detail .value",
			".c_product_price .value",
			"dl.price .value",
		},
		ProductCodeParams:   []string{"prdNo"},
		FallbackTitle:       "11번가 상품",
		FallbackDescription: "11번가에서 판매 중인 상품입니다.",
		FallbackImage:       StockShoppingImage,
	},
	{
		Name:              "jnmall",
		Match:             []string{"jnmall"},
		PriceTextPatterns: []*regexp.Regexp{priceColon},
		PriceSelectors: []string{
			".price_sale",
			".sale_price",
			".goods_price .price",
			".item_price",
		},
		FallbackTitle:       "남도장터 상품",
		FallbackDescription: "남도장터에서 판매 중인 상품입니다.",
		FallbackImage:       StockMarketImage,
	},
	{
		Name:  "gmarket",
		Match: []string{"gmarket.co.kr"},
		PriceSelectors: []string{
			"#itemcase_basic .price_innerwrap strong.price_real",
			"strong.price_real",
			".price_real",
		},
		ProductCodeParams:   []string{"goodscode", "goodsCode"},
		ProductImage:        gmarketImage,
		FallbackTitle:       "G마켓 상품",
		FallbackDescription: "G마켓에서 판매 중인 상품입니다.",
		FallbackImage:       StockShoppingImage,
	},
	{
		Name:  "auction",
		Match: []string{"auction.co.kr"},
		PriceSelectors: []string{
			"#itemcase_basic .price_real",
			".price_real",
		},
		ProductCodeParams: []string{"itemno", "itemNo"},
		ProductImage: func(code string) string {
			if len(code) < 4 {
				return ""
			}
			return auctionImage(code)
		},
		FallbackTitle:       "옥션 상품",
		FallbackDescription: "옥션에서 판매 중인 상품입니다.",
		FallbackImage:       StockShoppingImage,
	},
	{
		Name:  "coupang",
		Match: []string{"coupang.com"},
		PriceSelectors: []string{
			".prod-sale-price .total-price strong",
			".total-price strong",
			".prod-price .total-price",
		},
		ProductCodeParams:   []string{"itemId", "vendorItemId"},
		FallbackTitle:       "쿠팡 상품",
		FallbackDescription: "쿠팡에서 판매 중인 상품입니다.",
		FallbackImage:       StockPackageImage,
	},
	{
		Name:  "smartstore",
		Match: []string{"smartstore.naver.com", "brand.naver.com"},
		PriceSelectors: []string{
			"._1LY7DqCnwR",
			"strong.aICRqgP9zw ._1LY7DqCnwR",
		},
		FallbackTitle:       "네이버 스마트스토어 상품",
		FallbackDescription: "네이버 스마트스토어에서 판매 중인 상품입니다.",
		FallbackImage:       StockShoppingImage,
	},
	{
		Name:  "ssg",
		Match: []string{"ssg.com"},
		PriceSelectors: []string{
			".cdtl_new_price .ssg_price",
			".ssg_price",
		},
		ProductCodeParams:   []string{"itemId"},
		FallbackTitle:       "SSG.COM 상품",
		FallbackDescription: "SSG.COM에서 판매 중인 상품입니다.",
		FallbackImage:       StockShoppingImage,
	},
}

// Lookup returns the first site whose Match substring occurs in host.
func Lookup(host string) *Site {
	host = strings.ToLower(host)
	for _, s := range Known {
		for _, m := range s.Match {
			if strings.Contains(host, m) {
				return s
			}
		}
	}
	return nil
}

// ProductImageURL returns the synthesized product image for host and code,
// or "" when the site has no CDN pattern or the code is empty.
func ProductImageURL(host, code string) string {
	if code == "" {
		return ""
	}
	s := Lookup(host)
	if s == nil || s.ProductImage == nil {
		return ""
	}
	return s.ProductImage(code)
}
