package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPEngine_Fetch(t *testing.T) {
	var gotUA, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head><title> Widget </title></head><body>ok</body></html>`))
	}))
	defer srv.Close()

	id := Identities[0]
	e := NewHTTPEngineWithClient(id.Name, srv.Client())
	res, err := e.Fetch(context.Background(), &FetchRequest{
		URL:     srv.URL,
		Headers: id.Headers(srv.URL, ""),
		Timeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "Widget", res.Title)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, id.UserAgent, gotUA)
	assert.Equal(t, DefaultAcceptLanguage, gotLang)
}

func TestHTTPEngine_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	e := NewHTTPEngineWithClient("test", srv.Client())
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
}

func TestHTTPEngine_ChallengeIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>Just a moment...</title></head></html>`))
	}))
	defer srv.Close()

	e := NewHTTPEngineWithClient("test", srv.Client())
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})

	var ce *ChallengeError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Just a moment...", ce.Title)
}

func TestHTTPEngine_NonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	e := NewHTTPEngineWithClient("test", srv.Client())
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	assert.Error(t, err)
}

func TestHTTPEngine_DecodesEUCKR(t *testing.T) {
	// "상품" in EUC-KR.
	body := append([]byte("<html><head><title>"), 0xbb, 0xf3, 0xc7, 0xb0)
	body = append(body, []byte("</title></head></html>")...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		w.Write(body)
	}))
	defer srv.Close()

	e := NewHTTPEngineWithClient("test", srv.Client())
	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "상품", res.Title)
}

func TestIdentityHeaders(t *testing.T) {
	desktop := Identities[0]
	h := desktop.Headers("https://shop.example.com/p/1", "en-US")
	assert.Equal(t, "en-US", h["Accept-Language"])
	assert.Equal(t, "https://www.google.com/search?q=shop.example.com", h["Referer"])
	assert.NotEmpty(t, h["Sec-Ch-Ua"])

	var mobile Identity
	for _, id := range Identities {
		if id.Mobile {
			mobile = id
			break
		}
	}
	require.True(t, mobile.Mobile)
	h = mobile.Headers("https://shop.example.com/p/1", "")
	assert.Equal(t, "https://shop.example.com/", h["Referer"])
}

func TestIdentities_Distinct(t *testing.T) {
	require.GreaterOrEqual(t, len(Identities), 6)
	seen := map[string]bool{}
	for _, id := range Identities {
		assert.False(t, seen[id.UserAgent], id.Name)
		seen[id.UserAgent] = true
	}
}

func TestIsChallengeTitle(t *testing.T) {
	assert.True(t, IsChallengeTitle("Just a moment..."))
	assert.True(t, IsChallengeTitle("Attention Required! | Cloudflare"))
	assert.True(t, IsChallengeTitle("Please Wait..."))
	assert.False(t, IsChallengeTitle(""))
	assert.False(t, IsChallengeTitle("Widget - Shop"))
}

func TestNewHTTPEngine_IgnoresProxyEnv(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://127.0.0.1:1")

	e := NewHTTPEngine(Identities[0])
	tr, ok := e.client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Nil(t, tr.Proxy)
	assert.NotNil(t, tr.DialTLSContext)
}
