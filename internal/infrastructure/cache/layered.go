package cache

import (
	"context"
	"time"

	"github.com/apptrackr/jobcache/internal/core/ports"
	"github.com/sirupsen/logrus"
)

// DefaultLocalTTLCap bounds how long any entry may live in the local tier,
// whatever TTL the caller requested for the shared tier.
const DefaultLocalTTLCap = 300 * time.Second

// LayeredCache composes exactly one local and one shared backend into a
// two-tier hierarchy: reads check the local tier first and promote shared
// hits back into it, writes fan out to both tiers. It holds no state of its
// own beyond the two backend references.
//
// Both backends are fail-open, so a dead shared tier degrades every
// operation to the local tier's answer, never to an error.
type LayeredCache struct {
	local    ports.CacheBackend
	shared   ports.CacheBackend
	localCap time.Duration
	logger   *logrus.Logger
	metrics  *Metrics
}

var _ ports.CacheBackend = (*LayeredCache)(nil)

// NewLayeredCache composes local and shared backends. localCap <= 0 falls
// back to DefaultLocalTTLCap; metrics may be nil.
func NewLayeredCache(local, shared ports.CacheBackend, localCap time.Duration, logger *logrus.Logger, metrics *Metrics) *LayeredCache {
	if localCap <= 0 {
		localCap = DefaultLocalTTLCap
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &LayeredCache{local: local, shared: shared, localCap: localCap, logger: logger, metrics: metrics}
}

// Get checks the local tier first; on a miss the shared tier is consulted
// and a hit is promoted into the local tier with
// min(remaining shared TTL, local cap).
func (l *LayeredCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, ok := l.local.Get(ctx, key); ok {
		l.metrics.Request(TierLocal, "get", ResultHit)
		return val, true
	}
	l.metrics.Request(TierLocal, "get", ResultMiss)

	val, remaining, ok := l.sharedGet(ctx, key)
	if !ok {
		l.metrics.Request(TierShared, "get", ResultMiss)
		return nil, false
	}
	l.metrics.Request(TierShared, "get", ResultHit)

	promoteTTL := l.localCap
	if remaining > 0 && remaining < promoteTTL {
		promoteTTL = remaining
	}
	l.local.Set(ctx, key, val, promoteTTL)
	l.metrics.Promotion()
	l.logger.WithFields(logrus.Fields{"key": key, "ttl": promoteTTL}).Debug("promoted entry to local tier")
	return val, true
}

// sharedGet reads from the shared tier, using the RemainingTTL upgrade when
// the backend supports it so promotion can honor the entry's remaining life.
func (l *LayeredCache) sharedGet(ctx context.Context, key string) ([]byte, time.Duration, bool) {
	if tr, ok := l.shared.(ports.RemainingTTL); ok {
		return tr.GetWithTTL(ctx, key)
	}
	val, ok := l.shared.Get(ctx, key)
	return val, 0, ok
}

// Set writes to the local tier with min(ttl, local cap) and then to the
// shared tier with the full requested TTL. Tier failures are independent.
func (l *LayeredCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	localTTL := l.localCap
	if ttl > 0 && ttl < localTTL {
		localTTL = ttl
	}
	l.local.Set(ctx, key, value, localTTL)
	l.shared.Set(ctx, key, value, ttl)
}

// Delete removes the key from both tiers unconditionally.
func (l *LayeredCache) Delete(ctx context.Context, key string) {
	l.local.Delete(ctx, key)
	l.shared.Delete(ctx, key)
}

// Exists reports presence in either tier; the local tier short-circuits.
func (l *LayeredCache) Exists(ctx context.Context, key string) bool {
	if l.local.Exists(ctx, key) {
		l.metrics.Request(TierLocal, "exists", ResultHit)
		return true
	}
	l.metrics.Request(TierLocal, "exists", ResultMiss)
	if l.shared.Exists(ctx, key) {
		l.metrics.Request(TierShared, "exists", ResultHit)
		return true
	}
	l.metrics.Request(TierShared, "exists", ResultMiss)
	return false
}
