package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appstock "github.com/retailcore/backend/internal/application/stock"
	"github.com/retailcore/backend/internal/domain/stock"
)

// DefaultStockLevelTTL bounds how stale a cached read may be. Display
// surfaces tolerate short staleness; mutations always go through the
// repository and never read the cache.
const DefaultStockLevelTTL = 30 * time.Second

// RedisStockLevelCache is a read-through cache in front of the stock level
// repository, suitable for distributed deployments where multiple instances
// serve display reads.
type RedisStockLevelCache struct {
	client    *redis.Client
	repo      stock.StockLevelRepository
	logger    *zap.Logger
	keyPrefix string
	ttl       time.Duration
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisStockLevelCache creates a new Redis-backed stock level cache
func NewRedisStockLevelCache(cfg RedisConfig, repo stock.StockLevelRepository, logger *zap.Logger) (*RedisStockLevelCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStockLevelCacheWithClient(client, repo, logger, DefaultStockLevelTTL), nil
}

// NewRedisStockLevelCacheWithClient creates a cache with an existing Redis
// client. This is useful for testing or when sharing a client across
// components.
func NewRedisStockLevelCacheWithClient(client *redis.Client, repo stock.StockLevelRepository, logger *zap.Logger, ttl time.Duration) *RedisStockLevelCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = DefaultStockLevelTTL
	}
	return &RedisStockLevelCache{
		client:    client,
		repo:      repo,
		logger:    logger,
		keyPrefix: "stock:level:",
		ttl:       ttl,
	}
}

// FindByKey looks the stock level up in redis first and falls back to the
// repository on a miss. Cache failures degrade to direct reads rather than
// erroring.
func (c *RedisStockLevelCache) FindByKey(ctx context.Context, tenantID, productID, locationID uuid.UUID) (*stock.StockLevel, error) {
	key := c.key(tenantID, productID, locationID)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var level stock.StockLevel
		if err := json.Unmarshal(payload, &level); err == nil {
			return &level, nil
		}
		// Corrupt entry: drop it and fall through to the repository
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("stock level cache read failed, falling back to repository",
			zap.String("key", key),
			zap.Error(err),
		)
	}

	level, err := c.repo.FindByKey(ctx, tenantID, productID, locationID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(level); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("stock level cache write failed",
				zap.String("key", key),
				zap.Error(err),
			)
		}
	}

	return level, nil
}

// Invalidate drops the cached entry for the triple. Callers invoke this after
// mutations so display reads converge before the TTL expires.
func (c *RedisStockLevelCache) Invalidate(ctx context.Context, tenantID, productID, locationID uuid.UUID) error {
	return c.client.Del(ctx, c.key(tenantID, productID, locationID)).Err()
}

// Close closes the Redis client
func (c *RedisStockLevelCache) Close() error {
	return c.client.Close()
}

func (c *RedisStockLevelCache) key(tenantID, productID, locationID uuid.UUID) string {
	return c.keyPrefix + tenantID.String() + ":" + productID.String() + ":" + locationID.String()
}

// Ensure RedisStockLevelCache implements StockLevelReader
var _ appstock.StockLevelReader = (*RedisStockLevelCache)(nil)
