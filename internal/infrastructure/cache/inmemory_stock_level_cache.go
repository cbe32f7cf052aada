package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appstock "github.com/retailcore/backend/internal/application/stock"
	"github.com/retailcore/backend/internal/domain/stock"
)

// cachedLevel represents a stored stock level snapshot with expiration
type cachedLevel struct {
	level     stock.StockLevel
	expiresAt time.Time
}

// InMemoryStockLevelCache is a read-through cache in front of the stock level
// repository backed by a local map. This is suitable for single-instance
// deployments and testing.
type InMemoryStockLevelCache struct {
	mu      sync.RWMutex
	entries map[string]cachedLevel
	repo    stock.StockLevelRepository
	ttl     time.Duration
}

// NewInMemoryStockLevelCache creates a new in-memory stock level cache
func NewInMemoryStockLevelCache(repo stock.StockLevelRepository, ttl time.Duration) *InMemoryStockLevelCache {
	if ttl <= 0 {
		ttl = DefaultStockLevelTTL
	}
	return &InMemoryStockLevelCache{
		entries: make(map[string]cachedLevel),
		repo:    repo,
		ttl:     ttl,
	}
}

// FindByKey returns the stock level for the triple, serving from cache when
// the entry is still fresh.
func (c *InMemoryStockLevelCache) FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*stock.StockLevel, error) {
	key := tenantID.String() + ":" + productID.String() + ":" + locationID.String()

	c.mu.RLock()
	e, exists := c.entries[key]
	c.mu.RUnlock()

	if exists && time.Now().Before(e.expiresAt) {
		level := e.level
		return &level, nil
	}

	level, err := c.repo.FindByKey(ctx, tenantID, productID, locationID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cachedLevel{
		level:     *level,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.mu.Unlock()

	return level, nil
}

// Invalidate drops the cached entry for the triple
func (c *InMemoryStockLevelCache) Invalidate(ctx context.Context, tenantID, productID, locationID uuid.UUID) error {
	key := tenantID.String() + ":" + productID.String() + ":" + locationID.String()

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	return nil
}

// Ensure InMemoryStockLevelCache implements StockLevelReader
var _ appstock.StockLevelReader = (*InMemoryStockLevelCache)(nil)
