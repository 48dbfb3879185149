package sites

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"www.11st.co.kr", "11st"},
		{"m.11st.co.kr", "11st"},
		{"www.jnmall.kr", "jnmall"},
		{"item.gmarket.co.kr", "gmarket"},
		{"link.gmarket.co.kr", "gmarket"},
		{"itempage3.auction.co.kr", "auction"},
		{"www.coupang.com", "coupang"},
		{"smartstore.naver.com", "smartstore"},
		{"WWW.SSG.COM", "ssg"},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			s := Lookup(tt.host)
			require.NotNil(t, s)
			assert.Equal(t, tt.want, s.Name)
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	assert.Nil(t, Lookup("unknown-shop.co.kr"))
	assert.Nil(t, Lookup(""))
}

func TestProductImageURL(t *testing.T) {
	assert.Equal(t, "https://gdimg.gmarket.co.kr/12345/still/600",
		ProductImageURL("item.gmarket.co.kr", "12345"))
	assert.Equal(t, "https://image.auction.co.kr/itemimage/B7/12/B7123456780.jpg",
		ProductImageURL("itempage3.auction.co.kr", "B712345678"))

	assert.Empty(t, ProductImageURL("item.gmarket.co.kr", ""))
	assert.Empty(t, ProductImageURL("itempage3.auction.co.kr", "B7"))
	assert.Empty(t, ProductImageURL("www.coupang.com", "12345"))
	assert.Empty(t, ProductImageURL("unknown-shop.co.kr", "12345"))
}

func TestPriceColonPattern(t *testing.T) {
	m := priceColon.FindStringSubmatch("무선 이어폰 / 가격 : 19,900원 / 무료배송")
	require.Len(t, m, 2)
	assert.Equal(t, "19,900원", m[1])

	assert.Nil(t, priceColon.FindStringSubmatch("가격 문의"))
}
