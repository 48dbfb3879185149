package price

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_ValidPrices(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"marked", "19,900원", "19,900원"},
		{"marked with spaces", " 19,900 원 ", "19,900원"},
		{"bare amount", "19,900", "19,900원"},
		{"meta amount", "19900", "19900원"},
		{"decimal amount", "19900.00", "19900원"},
		{"label and marker", "판매가 29,000원", "29,000원"},
		{"first of two prices", "정가 25,000원 할인가 19,900원", "25,000원"},
		{"newlines", "\n\t12,500\n원\n", "12,500원"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw, "shop.example.com")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNormalize_Rejected(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"item count", "총 0개"},
		{"item count large", "총 1,234개"},
		{"product count", "12개 상품"},
		{"total images", "전체 이미지 5"},
		{"total images english", "Total images 12"},
		{"reviews", "리뷰 1,024"},
		{"reviews english", "1,024 reviews"},
		{"out of stock", "품절"},
		{"sold out", "SOLD OUT"},
		{"quantity", "수량 1"},
		{"counter word", "3건"},
		{"rating", "4.8점"},
		{"symbols only", "- / -"},
		{"hangul with digits", "배송비 3000"},
		{"marker only", "원"},
		{"no digits", "가격문의"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Normalize(tt.raw, "shop.example.com"))
		})
	}
}

func TestNormalize_DenylistWithMarkerIsKept(t *testing.T) {
	got := Normalize("리뷰 이벤트가 19,900원", "shop.example.com")
	require.NotNil(t, got)
	assert.Equal(t, "19,900원", *got)
}

func TestNormalize_JnmallPercentQuirk(t *testing.T) {
	for _, tc := range []struct{ n, m string }{
		{"15", "19,900"},
		{"3", "1,000"},
		{"50", "250,000"},
		{"7", "990"},
	} {
		raw := fmt.Sprintf("%s%%%s원", tc.n, tc.m)
		got := Normalize(raw, "www.jnmall.kr")
		require.NotNil(t, got, raw)
		assert.Equal(t, tc.m+"원", *got, raw)
	}
}

func TestNormalize_PercentWithoutQuirkDomain(t *testing.T) {
	got := Normalize("19,900원", "www.jnmall.kr")
	require.NotNil(t, got)
	assert.Equal(t, "19,900원", *got)
}

func TestNormalize_Deterministic(t *testing.T) {
	a := Normalize("판매가 29,000원", "www.11st.co.kr")
	b := Normalize("판매가 29,000원", "www.11st.co.kr")
	require.NotNil(t, a)
	require.NotNil(t, b)
	assert.Equal(t, *a, *b)
}

func TestIsDenied(t *testing.T) {
	assert.True(t, IsDenied("총 0개"))
	assert.True(t, IsDenied("!!!"))
	assert.False(t, IsDenied("19,900"))
	assert.False(t, IsDenied("$19.99"))
}
