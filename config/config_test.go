package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 5*time.Second, cfg.Fetch.AttemptTimeout)
	assert.Equal(t, 150*time.Millisecond, cfg.Fetch.MinJitter)
	assert.Equal(t, 600*time.Millisecond, cfg.Fetch.MaxJitter)
	assert.Equal(t, "rod", cfg.Browser.Driver)
	assert.Equal(t, 3*time.Second, cfg.Browser.SettleDelay)
	assert.Equal(t, 10*time.Second, cfg.Browser.ChallengeWait)
	assert.Equal(t, 100, cfg.Batch.MaxURLs)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LINKCARD_PORT", "9090")
	t.Setenv("LINKCARD_CACHE_BACKEND", "redis")
	t.Setenv("LINKCARD_REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("LINKCARD_BROWSER_DRIVER", "chromedp")
	t.Setenv("LINKCARD_API_KEYS", "a, b,,c")
	t.Setenv("LINKCARD_ATTEMPT_TIMEOUT", "2s")
	t.Setenv("LINKCARD_BROWSER_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Cache.RedisURL)
	assert.Equal(t, "chromedp", cfg.Browser.Driver)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Auth.APIKeys)
	assert.Equal(t, 2*time.Second, cfg.Fetch.AttemptTimeout)
	assert.False(t, cfg.Browser.Enabled)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("LINKCARD_PORT", "not-a-number")
	t.Setenv("LINKCARD_SETTLE_DELAY", "soon")

	cfg := Load()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Browser.SettleDelay)
}

func TestLoad_RedisURLFromGenericEnv(t *testing.T) {
	t.Setenv("REDIS_URL", "redis://cache:6379/0")

	cfg := Load()

	assert.Equal(t, "redis://cache:6379/0", cfg.Cache.RedisURL)
}
