// Package cache stores extracted metadata cards keyed by final URL.
// Placeholder cards are never written here.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/linkcard/models"
)

// Store is implemented by the memory and Redis backends.
type Store interface {
	// Get returns a card younger than maxAge. maxAge <= 0 uses the
	// store's TTL.
	Get(ctx context.Context, key string, maxAge time.Duration) (*models.MetadataResult, bool)

	// Set stores res under key.
	Set(ctx context.Context, key string, res *models.MetadataResult)

	// Backend names the implementation ("memory" or "redis").
	Backend() string
}

// Pinger is implemented by backends that can report liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Key generates a cache key from a final URL.
func Key(finalURL string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(finalURL)))
	return hex.EncodeToString(h[:])
}

// record is the stored form of a card. Diagnostic fields are kept, unlike
// the API encoding of MetadataResult.
type record struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Image       *string   `json:"image"`
	Price       *string   `json:"price"`
	Domain      string    `json:"domain"`
	Source      string    `json:"source"`
	FinalURL    string    `json:"final_url"`
	ProductCode string    `json:"product_code,omitempty"`
	FetchMethod string    `json:"fetch_method,omitempty"`
	StoredAt    time.Time `json:"stored_at"`
}

func encode(res *models.MetadataResult, now time.Time) ([]byte, error) {
	b, err := json.Marshal(record{
		Title:       res.Title,
		Description: res.Description,
		Image:       res.Image,
		Price:       res.Price,
		Domain:      res.Domain,
		Source:      res.Source,
		FinalURL:    res.FinalURL,
		ProductCode: res.ProductCode,
		FetchMethod: res.FetchMethod,
		StoredAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: encode: %w", err)
	}
	return b, nil
}

func decode(b []byte) (*models.MetadataResult, time.Time, error) {
	var r record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, time.Time{}, fmt.Errorf("cache: decode: %w", err)
	}
	return &models.MetadataResult{
		Title:       r.Title,
		Description: r.Description,
		Image:       r.Image,
		Price:       r.Price,
		Domain:      r.Domain,
		Source:      r.Source,
		FinalURL:    r.FinalURL,
		ProductCode: r.ProductCode,
		FetchMethod: r.FetchMethod,
	}, r.StoredAt, nil
}

// clone copies res so callers cannot mutate a cached card.
func clone(res *models.MetadataResult) *models.MetadataResult {
	c := *res
	c.Title = copyStr(res.Title)
	c.Description = copyStr(res.Description)
	c.Image = copyStr(res.Image)
	c.Price = copyStr(res.Price)
	return &c
}

func copyStr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
