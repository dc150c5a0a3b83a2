package redis

import (
	"context"
	"time"

	"github.com/apptrackr/jobcache/internal/core/ports"
	"github.com/apptrackr/jobcache/internal/infrastructure/cache"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// DefaultOpTimeout bounds each round-trip to Redis when no timeout is
// configured. Exceeding it is treated as a connectivity failure.
const DefaultOpTimeout = 2 * time.Second

// RedisCache implements ports.CacheBackend on a Redis client supplied by the
// caller. The client's lifecycle (including Close) belongs to the caller.
//
// Every operation is fail-open: connectivity failures and timeouts degrade to
// a miss or no-op and are reported through the logger and metrics only.
type RedisCache struct {
	r redis.Cmdable
	// optional key prefix to namespace entries
	prefix    string
	opTimeout time.Duration
	logger    *logrus.Logger
	metrics   *cache.Metrics
}

var _ ports.CacheBackend = (*RedisCache)(nil)
var _ ports.RemainingTTL = (*RedisCache)(nil)

// NewRedisCache creates a new Redis-backed cache. opTimeout <= 0 falls back
// to DefaultOpTimeout; metrics may be nil.
func NewRedisCache(r redis.Cmdable, prefix string, opTimeout time.Duration, logger *logrus.Logger, metrics *cache.Metrics) *RedisCache {
	if opTimeout <= 0 {
		opTimeout = DefaultOpTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RedisCache{r: r, prefix: prefix, opTimeout: opTimeout, logger: logger, metrics: metrics}
}

func (c *RedisCache) namespaced(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *RedisCache) opCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, c.opTimeout)
}

func (c *RedisCache) failed(op, key string, err error) {
	c.metrics.BackendFailure(cache.TierShared, op)
	c.logger.WithFields(logrus.Fields{"op": op, "key": key, "error": err}).Warn("shared cache backend unavailable")
}

// Get implements CacheBackend.Get.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	qctx, cancel := c.opCtx(ctx)
	defer cancel()
	val, err := c.r.Get(qctx, c.namespaced(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.failed("get", key, err)
		return nil, false
	}
	return val, true
}

// GetWithTTL implements ports.RemainingTTL. The value and its remaining TTL
// are fetched in one pipelined round-trip; a TTL of 0 means no expiry.
func (c *RedisCache) GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool) {
	qctx, cancel := c.opCtx(ctx)
	defer cancel()
	ns := c.namespaced(key)
	pipe := c.r.Pipeline()
	getCmd := pipe.Get(qctx, ns)
	ttlCmd := pipe.TTL(qctx, ns)
	if _, err := pipe.Exec(qctx); err != nil && err != redis.Nil {
		c.failed("get", key, err)
		return nil, 0, false
	}
	val, err := getCmd.Bytes()
	if err != nil {
		// redis.Nil after a successful Exec means plain absence.
		return nil, 0, false
	}
	ttl := ttlCmd.Val()
	if ttl < 0 {
		// -1: key exists without expiry; -2: gone between GET and TTL.
		ttl = 0
	}
	return val, ttl, true
}

// Set implements CacheBackend.Set. ttl <= 0 stores without expiration.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	qctx, cancel := c.opCtx(ctx)
	defer cancel()
	if ttl < 0 {
		ttl = 0
	}
	if err := c.r.Set(qctx, c.namespaced(key), value, ttl).Err(); err != nil {
		c.failed("set", key, err)
	}
}

// Delete implements CacheBackend.Delete.
func (c *RedisCache) Delete(ctx context.Context, key string) {
	qctx, cancel := c.opCtx(ctx)
	defer cancel()
	if err := c.r.Del(qctx, c.namespaced(key)).Err(); err != nil {
		c.failed("delete", key, err)
	}
}

// Exists implements CacheBackend.Exists.
func (c *RedisCache) Exists(ctx context.Context, key string) bool {
	qctx, cancel := c.opCtx(ctx)
	defer cancel()
	n, err := c.r.Exists(qctx, c.namespaced(key)).Result()
	if err != nil {
		c.failed("exists", key, err)
		return false
	}
	return n > 0
}
