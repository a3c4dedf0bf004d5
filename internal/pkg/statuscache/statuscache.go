package statuscache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores the last verified account status per operator UID so the status
// guard does not hit the database on every request. Entries expire after the
// configured TTL; Clear removes a single operator's entry immediately, used on
// logout and on moderation actions that change an operator's status.
type Cache interface {
	Get(ctx context.Context, uid string) (string, bool, error)
	Set(ctx context.Context, uid, status string) error
	Clear(ctx context.Context, uid string) error
}

type memoryEntry struct {
	status    string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache. It is the fallback when no Redis address
// is configured; entries are lost on restart, which only costs one extra
// database read per operator.
type MemoryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]memoryEntry
}

// NewMemoryCache creates an in-process status cache with the given TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryCache) Get(_ context.Context, uid string) (string, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[uid]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false, nil
	}
	return entry.status, true, nil
}

func (c *MemoryCache) Set(_ context.Context, uid, status string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[uid] = memoryEntry{status: status, expiresAt: time.Now().Add(c.ttl)}
	return nil
}

func (c *MemoryCache) Clear(_ context.Context, uid string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, uid)
	return nil
}

// Sweep drops expired entries. Run periodically; Get already ignores expired
// entries, so sweeping only bounds memory.
func (c *MemoryCache) Sweep() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for uid, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, uid)
		}
	}
}

const redisKeyPrefix = "operator:status:"

// RedisCache is a Cache backed by Redis, shared across console replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed status cache with the given TTL.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, uid string) (string, bool, error) {
	status, err := c.client.Get(ctx, redisKeyPrefix+uid).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return status, true, nil
}

func (c *RedisCache) Set(ctx context.Context, uid, status string) error {
	return c.client.Set(ctx, redisKeyPrefix+uid, status, c.ttl).Err()
}

func (c *RedisCache) Clear(ctx context.Context, uid string) error {
	return c.client.Del(ctx, redisKeyPrefix+uid).Err()
}
