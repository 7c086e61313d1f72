package collection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"RestQueryAPI/internal/logger"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

// CountCache stores collection totals keyed by the compiled count query.
// A miss or a backend failure is never an error: the total is recomputed.
// Writes call Invalidate, a total may cover joined tables of any entity.
type CountCache interface {
	Get(ctx context.Context, key string) (int64, bool)
	Set(ctx context.Context, key string, n int64)
	Invalidate(ctx context.Context)
}

const countKeyPrefix = "count:"

// countKey hashes the count SQL with its arguments.
func countKey(sql string, args []any) string {
	d := xxhash.New()
	_, _ = d.WriteString(sql)
	for _, a := range args {
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(fmt.Sprintf("%T:%v", a, a))
	}
	return countKeyPrefix + strconv.FormatUint(d.Sum64(), 16)
}

type RedisCountCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func (c *RedisCountCache) Get(ctx context.Context, key string) (int64, bool) {
	n, err := c.Client.Get(ctx, key).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("count_cache_get_failed", map[string]any{
				"key":   key,
				"error": err.Error(),
			})
		}
		return 0, false
	}
	return n, true
}

func (c *RedisCountCache) Set(ctx context.Context, key string, n int64) {
	if err := c.Client.Set(ctx, key, n, c.TTL).Err(); err != nil {
		logger.Warn("count_cache_set_failed", map[string]any{
			"key":   key,
			"error": err.Error(),
		})
	}
}

// Invalidate drops every cached total.
func (c *RedisCountCache) Invalidate(ctx context.Context) {
	var cursor uint64
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, countKeyPrefix+"*", 100).Result()
		if err != nil {
			logger.Warn("count_cache_invalidate_failed", map[string]any{"error": err.Error()})
			return
		}
		if len(keys) > 0 {
			if err := c.Client.Del(ctx, keys...).Err(); err != nil {
				logger.Warn("count_cache_invalidate_failed", map[string]any{"error": err.Error()})
				return
			}
		}
		if next == 0 {
			return
		}
		cursor = next
	}
}

const memoryCacheSweepFreq = time.Minute

type memoryEntry struct {
	n         int64
	expiresAt time.Time
}

// MemoryCountCache is the in-process CountCache used when Redis is not
// configured.
type MemoryCountCache struct {
	TTL time.Duration
	Now func() time.Time

	mu        sync.Mutex
	items     map[string]memoryEntry
	lastSweep time.Time
}

func NewMemoryCountCache(ttl time.Duration) *MemoryCountCache {
	return &MemoryCountCache{TTL: ttl, items: map[string]memoryEntry{}}
}

func (c *MemoryCountCache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *MemoryCountCache) Get(_ context.Context, key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.maybeSweepLocked(now)
	e, ok := c.items[key]
	if !ok {
		return 0, false
	}
	if !now.Before(e.expiresAt) {
		delete(c.items, key)
		return 0, false
	}
	return e.n, true
}

func (c *MemoryCountCache) Set(_ context.Context, key string, n int64) {
	if c.TTL <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.maybeSweepLocked(now)
	if c.items == nil {
		c.items = map[string]memoryEntry{}
	}
	c.items[key] = memoryEntry{n: n, expiresAt: now.Add(c.TTL)}
}

func (c *MemoryCountCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = map[string]memoryEntry{}
}

func (c *MemoryCountCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *MemoryCountCache) maybeSweepLocked(now time.Time) {
	if now.Sub(c.lastSweep) < memoryCacheSweepFreq {
		return
	}
	c.lastSweep = now
	for k, e := range c.items {
		if !now.Before(e.expiresAt) {
			delete(c.items, k)
		}
	}
}
