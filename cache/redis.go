package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/use-agent/linkcard/models"
)

const redisKeyPrefix = "linkcard:card:"

// Redis is a Store backed by a Redis server, shared between instances.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redisURL and verifies the connection with PING.
func NewRedis(ctx context.Context, redisURL string, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("cache: invalid Redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("cache: failed to connect to Redis: %w", err)
	}

	slog.Info("cache: connected to Redis", "addr", opts.Addr, "db", opts.DB)
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Backend() string { return "redis" }

// Get reads a card. Redis errors are logged and reported as a miss.
func (r *Redis) Get(ctx context.Context, key string, maxAge time.Duration) (*models.MetadataResult, bool) {
	b, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("cache: redis get failed", "error", err)
		}
		return nil, false
	}

	res, storedAt, err := decode(b)
	if err != nil {
		slog.Warn("cache: dropping unreadable entry", "error", err)
		return nil, false
	}
	if maxAge > 0 && time.Since(storedAt) > maxAge {
		return nil, false
	}
	return res, true
}

// Set writes a card with the store TTL. Placeholder cards are skipped.
func (r *Redis) Set(ctx context.Context, key string, res *models.MetadataResult) {
	if res == nil || res.IsFallback() {
		return
	}
	b, err := encode(res, time.Now())
	if err != nil {
		slog.Warn("cache: encode failed", "error", err)
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, b, r.ttl).Err(); err != nil {
		slog.Warn("cache: redis set failed", "error", err)
	}
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
