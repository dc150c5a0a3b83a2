package ports

import (
	"context"
	"time"

	"github.com/apptrackr/jobcache/internal/core/domain/application"
	"github.com/apptrackr/jobcache/internal/core/domain/user"
	"github.com/google/uuid"
)

// CacheBackend is the capability contract every cache tier implements.
// All four operations are fail-open by construction: implementations must
// never surface internal failures (connectivity, timeout, serialization) to
// callers. A failing Get or Exists reports a miss, a failing Set or Delete is
// a no-op, and the failure is recorded through logging and metrics only.
type CacheBackend interface {
	// Get returns the raw bytes for key. ok=false if not found or expired.
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores value under key with TTL (ttl <= 0 means no expiration).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	// Delete removes the key; absence is not a failure.
	Delete(ctx context.Context, key string)
	// Exists reports whether key is present and unexpired.
	Exists(ctx context.Context, key string) bool
}

// RemainingTTL is an optional upgrade a CacheBackend may implement to expose
// the remaining TTL of an entry alongside its value. The layered cache uses it
// to promote shared-tier hits into the local tier with
// min(remaining TTL, local cap) instead of the blanket local cap.
type RemainingTTL interface {
	// GetWithTTL returns the value, its remaining TTL (0 if the entry has no
	// expiry) and whether the key was found.
	GetWithTTL(ctx context.Context, key string) ([]byte, time.Duration, bool)
}

// CacheManager is the only cache surface the rest of the system depends on.
// Operations never return errors: every internal failure degrades to a miss
// or a no-op.
type CacheManager interface {
	// GenerateKey builds a collision-safe cache key from a namespace prefix,
	// positional components in call order and named components sorted by
	// name. Oversized keys are transparently replaced by a content hash.
	GenerateKey(prefix string, args []any, named map[string]any) string
	// Get unmarshals the cached value for (domain, id) into dest.
	Get(ctx context.Context, domain, id string, dest any) bool
	// Set caches value under (domain, id). ttl <= 0 uses the configured default.
	Set(ctx context.Context, domain, id string, value any, ttl time.Duration)
	// GetCollection unmarshals the cached page for (domain, id, page, limit) into dest.
	GetCollection(ctx context.Context, domain, id string, page, limit int, dest any) bool
	// SetCollection caches a paginated value; the key includes page and limit.
	SetCollection(ctx context.Context, domain, id string, value any, page, limit int, ttl time.Duration)
	// Invalidate removes the primary (domain, id) key from both tiers,
	// along with every collection key issued for it by this instance.
	Invalidate(ctx context.Context, domain, id string)
	// GetOrLoad is a cache-aside helper: on a miss it invokes load (coalescing
	// concurrent misses for the same key), caches the result and unmarshals it
	// into dest. Only loader errors propagate; cache failures never do.
	GetOrLoad(ctx context.Context, domain, id string, ttl time.Duration, dest any, load func(ctx context.Context) (any, error)) error

	// Typed convenience wrappers over the generic operations.
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, bool)
	SetUser(ctx context.Context, u *user.User, ttl time.Duration)
	GetApplicationPage(ctx context.Context, userID uuid.UUID, page, limit int) (*application.Page, bool)
	SetApplicationPage(ctx context.Context, userID uuid.UUID, p *application.Page, ttl time.Duration)
	InvalidateUser(ctx context.Context, id uuid.UUID)
	InvalidateApplications(ctx context.Context, userID uuid.UUID)
}
