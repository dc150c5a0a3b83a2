package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/apptrackr/jobcache/internal/infrastructure/cache"
	"github.com/apptrackr/jobcache/internal/infrastructure/memory"
	infraRedis "github.com/apptrackr/jobcache/internal/infrastructure/redis"
	"github.com/apptrackr/jobcache/test/mocks"
	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func setupTiers(t *testing.T) (*memory.MemoryCache, *infraRedis.RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	local := memory.NewMemoryCache(0)
	shared := infraRedis.NewRedisCache(client, "", time.Second, quietLogger(), nil)
	return local, shared, mr
}

func TestLayeredCache_SetThenGet(t *testing.T) {
	local, shared, _ := setupTiers(t)
	l := cache.NewLayeredCache(local, shared, 0, quietLogger(), nil)
	ctx := context.Background()

	l.Set(ctx, "user:42", []byte(`{"name":"Jo"}`), 30*time.Minute)

	got, ok := l.Get(ctx, "user:42")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"name":"Jo"}`), got)

	// both tiers were written
	_, ok = local.Get(ctx, "user:42")
	assert.True(t, ok)
	_, ok = shared.Get(ctx, "user:42")
	assert.True(t, ok)
}

func TestLayeredCache_SetCapsLocalTTL(t *testing.T) {
	local := mocks.NewRecordingBackend()
	shared := mocks.NewRecordingBackend()
	l := cache.NewLayeredCache(local, shared, 300*time.Second, quietLogger(), nil)
	ctx := context.Background()

	l.Set(ctx, "long", []byte("v"), 30*time.Minute)
	l.Set(ctx, "short", []byte("v"), 10*time.Second)
	l.Set(ctx, "unbounded", []byte("v"), 0)

	// local tier: min(ttl, cap); unbounded requests still capped
	assert.Equal(t, 300*time.Second, local.SetTTLs["long"])
	assert.Equal(t, 10*time.Second, local.SetTTLs["short"])
	assert.Equal(t, 300*time.Second, local.SetTTLs["unbounded"])

	// shared tier: full requested TTL
	assert.Equal(t, 30*time.Minute, shared.SetTTLs["long"])
	assert.Equal(t, 10*time.Second, shared.SetTTLs["short"])
	assert.Equal(t, time.Duration(0), shared.SetTTLs["unbounded"])
}

func TestLayeredCache_PromotionOnSharedHit(t *testing.T) {
	local, shared, _ := setupTiers(t)
	l := cache.NewLayeredCache(local, shared, 300*time.Second, quietLogger(), nil)
	ctx := context.Background()

	// write directly to the shared tier, bypassing the layered cache
	shared.Set(ctx, "user:7", []byte("v"), 30*time.Minute)

	got, ok := l.Get(ctx, "user:7")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	// the hit was promoted into the local tier
	_, ok = local.Get(ctx, "user:7")
	assert.True(t, ok)
}

func TestLayeredCache_PromotionTTLIsCapped(t *testing.T) {
	local := mocks.NewRecordingBackend()
	_, shared, _ := setupTiers(t)
	l := cache.NewLayeredCache(local, shared, 300*time.Second, quietLogger(), nil)
	ctx := context.Background()

	// remaining TTL above the cap: promotion uses the cap
	shared.Set(ctx, "above", []byte("v"), 30*time.Minute)
	_, ok := l.Get(ctx, "above")
	require.True(t, ok)
	assert.Equal(t, 300*time.Second, local.SetTTLs["above"])

	// remaining TTL below the cap: promotion uses the remaining TTL
	shared.Set(ctx, "below", []byte("v"), 10*time.Second)
	_, ok = l.Get(ctx, "below")
	require.True(t, ok)
	assert.LessOrEqual(t, local.SetTTLs["below"], 10*time.Second)
	assert.Greater(t, local.SetTTLs["below"], time.Duration(0))
}

func TestLayeredCache_LocalHitSkipsShared(t *testing.T) {
	local := mocks.NewRecordingBackend()
	sharedCalls := 0
	shared := &mocks.CacheBackendMock{
		GetFn: func(ctx context.Context, key string) ([]byte, bool) {
			sharedCalls++
			return nil, false
		},
	}
	l := cache.NewLayeredCache(local, shared, 0, quietLogger(), nil)
	ctx := context.Background()

	local.Set(ctx, "hot", []byte("v"), time.Minute)

	_, ok := l.Get(ctx, "hot")
	require.True(t, ok)
	assert.Equal(t, 0, sharedCalls)
}

func TestLayeredCache_MissInBothTiers(t *testing.T) {
	local, shared, _ := setupTiers(t)
	l := cache.NewLayeredCache(local, shared, 0, quietLogger(), nil)

	_, ok := l.Get(context.Background(), "nope")
	assert.False(t, ok)
}

func TestLayeredCache_DeleteRemovesBothTiers(t *testing.T) {
	local, shared, _ := setupTiers(t)
	l := cache.NewLayeredCache(local, shared, 0, quietLogger(), nil)
	ctx := context.Background()

	l.Set(ctx, "k", []byte("v"), time.Minute)
	l.Delete(ctx, "k")

	_, ok := local.Get(ctx, "k")
	assert.False(t, ok)
	_, ok = shared.Get(ctx, "k")
	assert.False(t, ok)
	assert.False(t, l.Exists(ctx, "k"))
}

func TestLayeredCache_ExistsIsLogicalOR(t *testing.T) {
	local, shared, _ := setupTiers(t)
	l := cache.NewLayeredCache(local, shared, 0, quietLogger(), nil)
	ctx := context.Background()

	// only the shared tier holds the key
	shared.Set(ctx, "shared-only", []byte("v"), time.Minute)
	assert.True(t, l.Exists(ctx, "shared-only"))

	// only the local tier holds the key
	local.Set(ctx, "local-only", []byte("v"), time.Minute)
	assert.True(t, l.Exists(ctx, "local-only"))

	assert.False(t, l.Exists(ctx, "neither"))
}

func TestLayeredCache_FailOpenWhenSharedDown(t *testing.T) {
	local, shared, mr := setupTiers(t)
	l := cache.NewLayeredCache(local, shared, 0, quietLogger(), nil)
	ctx := context.Background()

	l.Set(ctx, "k", []byte("v"), time.Minute)
	mr.Close()

	// local tier still serves the value
	got, ok := l.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	// writes and deletes degrade to the local tier without erroring
	l.Set(ctx, "k2", []byte("v2"), time.Minute)
	got, ok = l.Get(ctx, "k2")
	require.True(t, ok)
	assert.Equal(t, []byte("v2"), got)

	local.Delete(ctx, "k")
	_, ok = l.Get(ctx, "k")
	assert.False(t, ok)
}
