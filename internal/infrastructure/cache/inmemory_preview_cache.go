package cache

import (
	"context"
	"sync"
	"time"

	"github.com/crosspost/backend/internal/domain/classification"
)

// InMemoryPreviewCache is a process-local cache suitable for single-instance
// deployments and tests. Expired entries are swept lazily on access and by a
// background janitor.
type InMemoryPreviewCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
	stop    chan struct{}
	once    sync.Once
}

type inMemoryEntry struct {
	result    classification.Result
	expiresAt time.Time
}

func NewInMemoryPreviewCache() *InMemoryPreviewCache {
	c := &InMemoryPreviewCache{
		entries: make(map[string]inMemoryEntry),
		stop:    make(chan struct{}),
	}
	go c.janitor()
	return c
}

func (c *InMemoryPreviewCache) Get(_ context.Context, key string) (*classification.Result, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	result := entry.result
	return &result, true, nil
}

func (c *InMemoryPreviewCache) Set(_ context.Context, key string, result *classification.Result, ttl time.Duration) error {
	if result == nil || ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	c.entries[key] = inMemoryEntry{result: *result, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *InMemoryPreviewCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

func (c *InMemoryPreviewCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

var _ PreviewCache = (*InMemoryPreviewCache)(nil)
