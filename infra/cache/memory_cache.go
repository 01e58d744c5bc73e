package cache

import (
	"context"
	"sync"
	"time"

	"github.com/amirasaad/ledger/pkg/cache"
	"github.com/amirasaad/ledger/pkg/dto"
)

// MemoryCache implements TransactionCache using in-memory storage
type MemoryCache struct {
	cache map[string]*cacheEntry
	mu    sync.RWMutex
	now   func() time.Time
}

type cacheEntry struct {
	view      dto.TransactionView
	expiresAt time.Time
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		cache: make(map[string]*cacheEntry),
		now:   time.Now,
	}
}

// Get retrieves a view from cache
func (c *MemoryCache) Get(_ context.Context, transactionID string) (*dto.TransactionView, error) {
	c.mu.RLock()
	entry, exists := c.cache[transactionID]
	c.mu.RUnlock()
	if !exists {
		return nil, nil
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.cache, transactionID)
		c.mu.Unlock()
		return nil, nil
	}
	view := entry.view
	return &view, nil
}

// Set stores a view in cache with TTL
func (c *MemoryCache) Set(_ context.Context, view *dto.TransactionView, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[view.TransactionID] = &cacheEntry{
		view:      *view,
		expiresAt: c.now().Add(ttl),
	}
	return nil
}

var _ cache.TransactionCache = (*MemoryCache)(nil)
