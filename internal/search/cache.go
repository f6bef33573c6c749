package search

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maltedev/salon-price-scout/internal/models"
)

// Cache stores search results by key. Failures are misses; a cache never fails a search.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.SearchCandidate, bool)
	Set(ctx context.Context, key string, value []models.SearchCandidate, ttl time.Duration)
}

type memoryEntry struct {
	value     []models.SearchCandidate
	expiresAt time.Time
}

// MemoryCache is an in-process TTL cache. Expired entries are dropped on read.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) ([]models.SearchCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	out := make([]models.SearchCandidate, len(entry.value))
	copy(out, entry.value)
	return out, true
}

func (c *MemoryCache) Set(_ context.Context, key string, value []models.SearchCandidate, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	stored := make([]models.SearchCandidate, len(value))
	copy(stored, value)

	c.mu.Lock()
	c.entries[key] = memoryEntry{value: stored, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

const redisKeyPrefix = "search:"

// RedisCache shares search results between processes as JSON strings.
type RedisCache struct {
	client redis.Cmdable
	logger *slog.Logger
}

func NewRedisCache(client redis.Cmdable, logger *slog.Logger) *RedisCache {
	return &RedisCache{
		client: client,
		logger: logger.With("component", "search_cache"),
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]models.SearchCandidate, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var value []models.SearchCandidate
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		c.logger.Warn("discarding corrupt cache entry", "key", key, "error", err)
		return nil, false
	}
	return value, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []models.SearchCandidate, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, redisKeyPrefix+key, string(data), ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}
