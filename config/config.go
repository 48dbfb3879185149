package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Fetch     FetchConfig
	Redirect  RedirectConfig
	Browser   BrowserConfig
	Batch     BatchConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 5

	// Burst is the maximum burst size per API key.
	Burst int // default: 10
}

// CacheConfig controls the metadata result cache.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend string // default: "memory"

	// RedisURL is a redis:// URL, used when Backend is "redis".
	RedisURL string

	// TTL is how long an extracted result stays fresh.
	TTL time.Duration // default: 6h

	// MaxEntries bounds the in-memory backend.
	MaxEntries int // default: 1000
}

// FetchConfig controls the plain-HTTP fetch cascade.
type FetchConfig struct {
	AttemptTimeout time.Duration // default: 5s
	MinJitter      time.Duration // default: 150ms
	MaxJitter      time.Duration // default: 600ms
	AcceptLanguage string

	// MaxResolveTime bounds a single resolution end to end.
	MaxResolveTime time.Duration // default: 60s
}

// RedirectConfig controls short-link resolution.
type RedirectConfig struct {
	Timeout time.Duration // default: 5s

	// Hosts overrides the built-in redirector list when set.
	Hosts []string
}

// BrowserConfig controls the headless browser fallback.
type BrowserConfig struct {
	Enabled bool   // default: true
	Driver  string // "rod" or "chromedp"; default: "rod"

	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// Bin overrides the Chromium binary path.
	Bin string

	Proxy     string
	Locale    string // default: "ko-KR"
	UserAgent string

	// SettleDelay is the fixed wait after load for client-side rendering.
	SettleDelay time.Duration // default: 3s

	// ChallengeWait bounds how long a challenge interstitial may take to clear.
	ChallengeWait time.Duration // default: 10s

	// NavigationTimeout bounds a whole render.
	NavigationTimeout time.Duration // default: 30s

	// BlockedResourceTypes lists resource types the rod driver blocks.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string
}

// BatchConfig controls batch resolution jobs.
type BatchConfig struct {
	MaxURLs     int // default: 100
	Concurrency int // default: 4
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("LINKCARD_HOST", "0.0.0.0"),
			Port: envIntOr("LINKCARD_PORT", 8080),
			Mode: envOr("LINKCARD_MODE", "release"),
		},
		Log: LogConfig{
			Level:  envOr("LINKCARD_LOG_LEVEL", "info"),
			Format: envOr("LINKCARD_LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("LINKCARD_AUTH_ENABLED", true),
			APIKeys: envSliceOr("LINKCARD_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LINKCARD_RATE_RPS", 5.0),
			Burst:             envIntOr("LINKCARD_RATE_BURST", 10),
		},
		Cache: CacheConfig{
			Backend:    envOr("LINKCARD_CACHE_BACKEND", "memory"),
			RedisURL:   envOr("LINKCARD_REDIS_URL", os.Getenv("REDIS_URL")),
			TTL:        envDurationOr("LINKCARD_CACHE_TTL", 6*time.Hour),
			MaxEntries: envIntOr("LINKCARD_CACHE_MAX_ENTRIES", 1000),
		},
		Fetch: FetchConfig{
			AttemptTimeout: envDurationOr("LINKCARD_ATTEMPT_TIMEOUT", 5*time.Second),
			MinJitter:      envDurationOr("LINKCARD_MIN_JITTER", 150*time.Millisecond),
			MaxJitter:      envDurationOr("LINKCARD_MAX_JITTER", 600*time.Millisecond),
			AcceptLanguage: envOr("LINKCARD_ACCEPT_LANGUAGE", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7"),
			MaxResolveTime: envDurationOr("LINKCARD_MAX_RESOLVE_TIME", 60*time.Second),
		},
		Redirect: RedirectConfig{
			Timeout: envDurationOr("LINKCARD_REDIRECT_TIMEOUT", 5*time.Second),
			Hosts:   envSliceOr("LINKCARD_REDIRECT_HOSTS", nil),
		},
		Browser: BrowserConfig{
			Enabled:           envBoolOr("LINKCARD_BROWSER_ENABLED", true),
			Driver:            envOr("LINKCARD_BROWSER_DRIVER", "rod"),
			Headless:          envBoolOr("LINKCARD_HEADLESS", true),
			NoSandbox:         envBoolOr("LINKCARD_NO_SANDBOX", false),
			Bin:               os.Getenv("LINKCARD_BROWSER_BIN"),
			Proxy:             os.Getenv("LINKCARD_PROXY"),
			Locale:            envOr("LINKCARD_BROWSER_LOCALE", "ko-KR"),
			UserAgent:         envOr("LINKCARD_BROWSER_UA", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"),
			SettleDelay:       envDurationOr("LINKCARD_SETTLE_DELAY", 3*time.Second),
			ChallengeWait:     envDurationOr("LINKCARD_CHALLENGE_WAIT", 10*time.Second),
			NavigationTimeout: envDurationOr("LINKCARD_NAV_TIMEOUT", 30*time.Second),
			BlockedResourceTypes: envSliceOr("LINKCARD_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
		},
		Batch: BatchConfig{
			MaxURLs:     envIntOr("LINKCARD_BATCH_MAX_URLS", 100),
			Concurrency: envIntOr("LINKCARD_BATCH_CONCURRENCY", 4),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
