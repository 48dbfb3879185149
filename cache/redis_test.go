package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/linkcard/models"
)

func TestRedis_RoundTrip(t *testing.T) {
	url := os.Getenv("LINKCARD_TEST_REDIS_URL")
	if url == "" {
		t.Skip("LINKCARD_TEST_REDIS_URL not set")
	}
	ctx := context.Background()

	r, err := NewRedis(ctx, url, time.Minute)
	require.NoError(t, err)
	defer r.Close()

	key := Key("https://shop.example.com/redis-test")
	r.Set(ctx, key, card("Widget"))

	got, ok := r.Get(ctx, key, 0)
	require.True(t, ok)
	assert.Equal(t, "Widget", models.Deref(got.Title))

	fb := card("placeholder")
	fb.Source = models.SourceFallback
	fbKey := Key("https://shop.example.com/redis-fallback")
	r.Set(ctx, fbKey, fb)
	_, ok = r.Get(ctx, fbKey, 0)
	assert.False(t, ok)
}

func TestNewRedis_BadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "not-a-redis-url", time.Minute)
	assert.Error(t, err)
}
