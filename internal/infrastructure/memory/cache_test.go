package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/apptrackr/jobcache/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_RoundTrip(t *testing.T) {
	c := memory.NewMemoryCache(0)
	ctx := context.Background()

	c.Set(ctx, "user:42", []byte(`{"name":"Jo"}`), time.Minute)

	got, ok := c.Get(ctx, "user:42")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"name":"Jo"}`), got)
	assert.True(t, c.Exists(ctx, "user:42"))
}

func TestMemoryCache_MissOnUnknownKey(t *testing.T) {
	c := memory.NewMemoryCache(0)

	_, ok := c.Get(context.Background(), "nope")
	assert.False(t, ok)
	assert.False(t, c.Exists(context.Background(), "nope"))
}

func TestMemoryCache_LazyExpiry(t *testing.T) {
	c := memory.NewMemoryCache(0)
	ctx := context.Background()

	c.Set(ctx, "temp:1", []byte("x"), 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get(ctx, "temp:1")
	assert.False(t, ok)
	// the expired entry was evicted on read, not merely hidden
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_NoTTLMeansNoExpiry(t *testing.T) {
	c := memory.NewMemoryCache(0)
	ctx := context.Background()

	c.Set(ctx, "pinned", []byte("v"), 0)
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get(ctx, "pinned")
	assert.True(t, ok)
}

func TestMemoryCache_SetOverwrites(t *testing.T) {
	c := memory.NewMemoryCache(0)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("old"), time.Minute)
	c.Set(ctx, "k", []byte("new"), time.Minute)

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestMemoryCache_Delete(t *testing.T) {
	c := memory.NewMemoryCache(0)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	c.Delete(ctx, "k")

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	// deleting an absent key is a no-op
	c.Delete(ctx, "missing")
}

func TestMemoryCache_Sweeper(t *testing.T) {
	c := memory.NewMemoryCache(10 * time.Millisecond)
	defer c.Stop()
	ctx := context.Background()

	c.Set(ctx, "short", []byte("v"), 15*time.Millisecond)
	c.Set(ctx, "long", []byte("v"), time.Minute)

	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, c.Exists(ctx, "long"))
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	c := memory.NewMemoryCache(0)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n%4)
			for j := 0; j < 100; j++ {
				c.Set(ctx, key, []byte("v"), time.Minute)
				c.Get(ctx, key)
				c.Exists(ctx, key)
				c.Delete(ctx, key)
			}
		}(i)
	}
	wg.Wait()
}
