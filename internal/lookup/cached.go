package lookup

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/kiwari-pos/tableside/internal/service"
	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL = 5 * time.Minute
	cachePrefix     = "tableside:name:"
)

// ErrMiss is returned by a Cache when the key is absent.
var ErrMiss = errors.New("cache miss")

// Cache is a string key/value store with expiry.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache adapts a go-redis client to Cache.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	v, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Cached puts a Cache in front of another NameLookup. Only found names are
// cached, so a table created after a miss shows up on the next call.
type Cached struct {
	next  service.NameLookup
	cache Cache
	ttl   time.Duration
}

// NewCached wraps next. A zero ttl uses five minutes.
func NewCached(next service.NameLookup, cache Cache, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Cached{next: next, cache: cache, ttl: ttl}
}

func (c *Cached) TableName(ctx context.Context, id int64) (string, bool) {
	return c.get(ctx, "table", id, c.next.TableName)
}

func (c *Cached) CustomerName(ctx context.Context, id int64) (string, bool) {
	return c.get(ctx, "customer", id, c.next.CustomerName)
}

func (c *Cached) WaiterName(ctx context.Context, id int64) (string, bool) {
	return c.get(ctx, "waiter", id, c.next.WaiterName)
}

func (c *Cached) BankName(ctx context.Context, id int64) (string, bool) {
	return c.get(ctx, "bank", id, c.next.BankName)
}

func cacheKey(kind string, id int64) string {
	return fmt.Sprintf("%s%s:%d", cachePrefix, kind, id)
}

func (c *Cached) get(ctx context.Context, kind string, id int64, load func(context.Context, int64) (string, bool)) (string, bool) {
	key := cacheKey(kind, id)
	v, err := c.cache.Get(ctx, key)
	if err == nil {
		return v, true
	}
	if !errors.Is(err, ErrMiss) {
		log.Printf("WARN: name cache get %s: %v", key, err)
	}

	name, ok := load(ctx, id)
	if !ok {
		return "", false
	}
	if err := c.cache.Set(ctx, key, name, c.ttl); err != nil {
		log.Printf("WARN: name cache set %s: %v", key, err)
	}
	return name, true
}
