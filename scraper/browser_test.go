package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/linkcard/config"
	"github.com/use-agent/linkcard/models"
)

func TestNew_Drivers(t *testing.T) {
	b, err := New(config.BrowserConfig{Driver: "rod"})
	require.NoError(t, err)
	assert.Equal(t, "rod", b.Name())

	b, err = New(config.BrowserConfig{Driver: "chromedp"})
	require.NoError(t, err)
	assert.Equal(t, "chromedp", b.Name())

	b, err = New(config.BrowserConfig{})
	require.NoError(t, err)
	assert.Equal(t, "rod", b.Name())

	_, err = New(config.BrowserConfig{Driver: "webkit"})
	assert.Error(t, err)
}

func TestWaitOutChallenge_Clears(t *testing.T) {
	titles := []string{"Just a moment...", "Widget - Shop"}
	calls := 0
	got := waitOutChallenge(context.Background(), "Just a moment...", 0, 5*time.Second, func() string {
		tt := titles[calls]
		calls++
		return tt
	})
	assert.Equal(t, "Widget - Shop", got)
	assert.Equal(t, 2, calls)
}

func TestWaitOutChallenge_NotAChallenge(t *testing.T) {
	got := waitOutChallenge(context.Background(), "Widget", time.Second, time.Second, func() string {
		t.Fatal("title should not be re-read")
		return ""
	})
	assert.Equal(t, "Widget", got)
}

func TestWaitOutChallenge_Bounded(t *testing.T) {
	start := time.Now()
	got := waitOutChallenge(context.Background(), "Just a moment...", 0, 600*time.Millisecond, func() string {
		return "Just a moment..."
	})
	assert.Equal(t, "Just a moment...", got)
	assert.Less(t, time.Since(start), 3*time.Second)
}

func TestWaitOutChallenge_SettlesFirst(t *testing.T) {
	calls := 0
	got := waitOutChallenge(context.Background(), "Please wait", 10*time.Millisecond, time.Second, func() string {
		calls++
		return "Widget - Shop"
	})
	assert.Equal(t, "Widget - Shop", got)
	assert.Equal(t, 1, calls)
}

func TestGoogleReferer(t *testing.T) {
	assert.Equal(t, "https://www.google.com/search?q=item.gmarket.co.kr", googleReferer("https://item.gmarket.co.kr/Item?goodscode=1"))
	assert.Empty(t, googleReferer("not a url"))
}

func TestIsTrackerDomain(t *testing.T) {
	assert.True(t, isTrackerDomain("wcs.naver.net"))
	assert.True(t, isTrackerDomain("pagead2.googlesyndication.com"))
	assert.False(t, isTrackerDomain("item.gmarket.co.kr"))
	assert.False(t, isTrackerDomain("naver.net"))
}

func TestCategorizeError(t *testing.T) {
	assert.Equal(t, models.ErrCodeTimeout, categorizeError(context.DeadlineExceeded, "x").Code)
	assert.Equal(t, models.ErrCodeBrowserFailed, categorizeError(errors.New("boom"), "x").Code)
}
