package services

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tarotlab/tarot-engine/pkg/logging"
	"github.com/tarotlab/tarot-engine/pkg/models"
)

// Cache defaults.
const (
	DefaultCacheCapacity = 100
	DefaultCacheTTL      = time.Hour
)

// ResponseCache stores AI text by request fingerprint. Caches are
// best-effort: backend failures read as misses and are logged, never returned.
type ResponseCache interface {
	Get(ctx context.Context, fingerprint string) (*models.CacheEntry, bool)
	Put(ctx context.Context, entry models.CacheEntry)
	Len(ctx context.Context) int
}

// MemoryResponseCache is a bounded in-process cache. When full, the entry
// written longest ago is evicted. Entries older than the TTL are misses.
type MemoryResponseCache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front is oldest; values are *models.CacheEntry
	index    map[string]*list.Element
	now      func() time.Time
}

// NewMemoryResponseCache creates a cache. Non-positive capacity or ttl use the defaults.
func NewMemoryResponseCache(capacity int, ttl time.Duration) *MemoryResponseCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryResponseCache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		index:    make(map[string]*list.Element, capacity),
		now:      time.Now,
	}
}

func (c *MemoryResponseCache) Get(_ context.Context, fingerprint string) (*models.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[fingerprint]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*models.CacheEntry)
	if c.now().Sub(entry.CreatedAt) > c.ttl {
		c.order.Remove(el)
		delete(c.index, fingerprint)
		return nil, false
	}
	cp := *entry
	return &cp, true
}

// Put stores entry. A second write for the same fingerprint replaces the
// first and counts as the newest entry.
func (c *MemoryResponseCache) Put(_ context.Context, entry models.CacheEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = c.now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[entry.Fingerprint]; ok {
		c.order.Remove(el)
		delete(c.index, entry.Fingerprint)
	}
	for c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*models.CacheEntry).Fingerprint)
	}
	c.index[entry.Fingerprint] = c.order.PushBack(&entry)
}

func (c *MemoryResponseCache) Len(_ context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of entries.
func (c *MemoryResponseCache) Capacity() int {
	return c.capacity
}

// redisKeyPrefix namespaces cache keys in a shared Redis.
const redisKeyPrefix = "tarot:ai:"

// RedisResponseCache shares AI text between instances. Expiry is delegated
// to Redis key TTLs, so capacity is unbounded here.
type RedisResponseCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisResponseCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisResponseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisResponseCache{
		client: client,
		ttl:    ttl,
		logger: logger.Named("redis-cache"),
	}
}

func (c *RedisResponseCache) Get(ctx context.Context, fingerprint string) (*models.CacheEntry, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Cache read failed", zap.String("error", logging.SanitizeError(err)))
		}
		return nil, false
	}

	var entry models.CacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.Warn("Discarding malformed cache entry", zap.Error(err))
		return nil, false
	}
	return &entry, true
}

func (c *RedisResponseCache) Put(ctx context.Context, entry models.CacheEntry) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn("Failed to encode cache entry", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+entry.Fingerprint, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.String("error", logging.SanitizeError(err)))
	}
}

// Len counts cached keys with SCAN. It is meant for health output, not hot paths.
func (c *RedisResponseCache) Len(ctx context.Context) int {
	n := 0
	iter := c.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("Cache scan failed", zap.String("error", logging.SanitizeError(err)))
	}
	return n
}

// TieredResponseCache reads the local tier first and the shared tier on a
// local miss, copying shared hits into the local tier. Writes go to both.
type TieredResponseCache struct {
	local  ResponseCache
	shared ResponseCache
}

func NewTieredResponseCache(local, shared ResponseCache) *TieredResponseCache {
	return &TieredResponseCache{local: local, shared: shared}
}

func (c *TieredResponseCache) Get(ctx context.Context, fingerprint string) (*models.CacheEntry, bool) {
	if entry, ok := c.local.Get(ctx, fingerprint); ok {
		return entry, true
	}
	entry, ok := c.shared.Get(ctx, fingerprint)
	if !ok {
		return nil, false
	}
	c.local.Put(ctx, *entry)
	return entry, true
}

func (c *TieredResponseCache) Put(ctx context.Context, entry models.CacheEntry) {
	c.local.Put(ctx, entry)
	c.shared.Put(ctx, entry)
}

// Len reports the local tier.
func (c *TieredResponseCache) Len(ctx context.Context) int {
	return c.local.Len(ctx)
}

var (
	_ ResponseCache = (*MemoryResponseCache)(nil)
	_ ResponseCache = (*RedisResponseCache)(nil)
	_ ResponseCache = (*TieredResponseCache)(nil)
)
