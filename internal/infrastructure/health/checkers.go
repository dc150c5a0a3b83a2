package health

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/apptrackr/jobcache/internal/core/ports"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client *redis.Client }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// NewRedisHealthChecker creates a health checker for the shared tier's Redis client.
func NewRedisHealthChecker(client *redis.Client) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// cacheHealthChecker round-trips a probe key through a cache backend.
// Because backends are fail-open, a broken tier shows up as a read miss
// rather than an error from the backend itself.
type cacheHealthChecker struct {
	name    string
	backend ports.CacheBackend
}

func (c *cacheHealthChecker) Name() string { return c.name }

func (c *cacheHealthChecker) Check(ctx context.Context) error {
	key := "healthcheck:" + uuid.NewString()
	want := []byte("ok")
	c.backend.Set(ctx, key, want, 10*time.Second)
	got, ok := c.backend.Get(ctx, key)
	c.backend.Delete(ctx, key)
	if !ok || !bytes.Equal(got, want) {
		return fmt.Errorf("cache %s failed probe round-trip", c.name)
	}
	return nil
}

// NewCacheHealthChecker creates a health checker that verifies a backend can
// serve a set/get/delete round-trip.
func NewCacheHealthChecker(name string, backend ports.CacheBackend) ports.HealthChecker {
	return &cacheHealthChecker{name: name, backend: backend}
}
