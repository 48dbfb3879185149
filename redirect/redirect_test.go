package redirect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newRedirectServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/go", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		http.Redirect(w, r, "/item?goodscode=12345&ver=1", http.StatusFound)
	})
	mux.HandleFunc("/item", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolve_FollowsRedirect(t *testing.T) {
	srv := newRedirectServer(t)
	r := New(nil, []string{"127.0.0.1"}, 5*time.Second)

	res := r.Resolve(context.Background(), srv.URL+"/go")

	assert.Equal(t, srv.URL+"/item?goodscode=12345&ver=1", res.FinalURL)
	assert.Equal(t, "12345", res.ProductCode)
}

func TestResolve_NetworkErrorKeepsOriginal(t *testing.T) {
	srv := newRedirectServer(t)
	target := srv.URL + "/go"
	srv.Close()

	r := New(nil, []string{"127.0.0.1"}, time.Second)
	res := r.Resolve(context.Background(), target)

	assert.Equal(t, target, res.FinalURL)
	assert.Empty(t, res.ProductCode)
}

func TestResolve_UnknownHostUntouched(t *testing.T) {
	r := New(nil, nil, time.Second)
	res := r.Resolve(context.Background(), "https://shop.example.com/item?goodscode=1")

	assert.Equal(t, "https://shop.example.com/item?goodscode=1", res.FinalURL)
	assert.Empty(t, res.ProductCode)
}

func TestMatches(t *testing.T) {
	r := New(nil, nil, time.Second)

	assert.True(t, r.Matches("https://link.gmarket.co.kr/gate/pc/12345"))
	assert.True(t, r.Matches("http://LINK.auction.co.kr/abc"))
	assert.True(t, r.Matches("https://app.ac/xyz"))
	assert.False(t, r.Matches("https://item.gmarket.co.kr/Item?goodscode=1"))
	assert.False(t, r.Matches("https://notapp.ac.example.com/"))
	assert.False(t, r.Matches("::bad"))
}

func TestProductCodeFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://item.gmarket.co.kr/Item?goodscode=2543268848", "2543268848"},
		{"https://item.gmarket.co.kr/Item?goodsCode=777", "777"},
		{"https://itempage3.auction.co.kr/DetailView.aspx?itemno=B712345678", "B712345678"},
		{"https://www.11st.co.kr/products/pa?prdNo=42", "42"},
		{"https://shop.example.com/p?productId=9", "9"},
		{"https://shop.example.com/p", ""},
		{"::bad", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProductCodeFromURL(tt.url), tt.url)
	}
}
