package cache

import (
	"context"
	"sync"
	"time"

	"github.com/use-agent/linkcard/models"
)

// entry holds a cached card with its creation timestamp.
type entry struct {
	result    *models.MetadataResult
	createdAt time.Time
}

// Memory is an in-process Store. It is safe for concurrent use.
type Memory struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewMemory creates a Memory store. A background goroutine evicts expired
// entries every 5 minutes until Close is called.
func NewMemory(maxEntries int, ttl time.Duration) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	c := &Memory{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go c.cleanupLoop(5 * time.Minute)
	return c
}

func (c *Memory) Backend() string { return "memory" }

// Get retrieves a cached card if it exists and is younger than maxAge.
func (c *Memory) Get(_ context.Context, key string, maxAge time.Duration) (*models.MetadataResult, bool) {
	if maxAge <= 0 || (c.ttl > 0 && maxAge > c.ttl) {
		maxAge = c.ttl
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if maxAge > 0 && c.now().Sub(e.createdAt) > maxAge {
		return nil, false
	}
	return clone(e.result), true
}

// Set stores a card. If the cache is at capacity, a random entry is
// evicted to make room.
func (c *Memory) Set(_ context.Context, key string, res *models.MetadataResult) {
	if res == nil || res.IsFallback() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Map iteration order is random, so this evicts an arbitrary entry.
	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		for k := range c.store {
			delete(c.store, k)
			break
		}
	}

	c.store[key] = &entry{
		result:    clone(res),
		createdAt: c.now(),
	}
}

// Len returns the number of stored entries.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Memory) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Memory) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Memory) evictExpired() {
	if c.ttl <= 0 {
		return
	}
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}
