package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apptrackr/jobcache/internal/core/domain/application"
	"github.com/apptrackr/jobcache/internal/core/domain/user"
	"github.com/apptrackr/jobcache/internal/core/ports"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/singleflight"
)

const keyDelimiter = ":"

// Domain tags used by the typed convenience methods.
const (
	DomainUser         = "user"
	DomainApplications = "applications"
)

// CacheManagerConfig tunes key construction and default TTLs.
type CacheManagerConfig struct {
	// KeyHashThreshold is the key length above which the assembled key is
	// replaced by a fixed-length content hash. <= 0 uses 250.
	KeyHashThreshold int
	// EntityTTL is used by Set when the caller passes ttl <= 0.
	EntityTTL time.Duration
	// CollectionTTL is used by SetCollection when the caller passes ttl <= 0.
	CollectionTTL time.Duration
}

// CacheManager is the domain-facing entry point to the layered cache. It owns
// deterministic key construction and typed convenience operations; values
// cross the serialization boundary as msgpack.
//
// No operation ever returns an error to a caller (GetOrLoad propagates loader
// errors only): every cache-internal failure degrades to a miss or no-op.
type CacheManager struct {
	backend ports.CacheBackend
	cfg     CacheManagerConfig
	logger  *logrus.Logger
	sf      singleflight.Group

	// collection keys issued per entity key, so Invalidate can remove every
	// page/limit variant this instance has cached
	mu             sync.Mutex
	collectionKeys map[string]map[string]struct{}
}

var _ ports.CacheManager = (*CacheManager)(nil)

// NewCacheManager creates the cache manager over the given backend, which is
// normally a layered local+shared composition.
func NewCacheManager(backend ports.CacheBackend, cfg CacheManagerConfig, logger *logrus.Logger) ports.CacheManager {
	if cfg.KeyHashThreshold <= 0 {
		cfg.KeyHashThreshold = 250
	}
	if cfg.EntityTTL <= 0 {
		cfg.EntityTTL = 30 * time.Minute
	}
	if cfg.CollectionTTL <= 0 {
		cfg.CollectionTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CacheManager{
		backend:        backend,
		cfg:            cfg,
		logger:         logger,
		collectionKeys: make(map[string]map[string]struct{}),
	}
}

// GenerateKey implements ports.CacheManager. Named components are sorted so
// that call-site argument order never produces different keys for logically
// identical lookups.
func (s *CacheManager) GenerateKey(prefix string, args []any, named map[string]any) string {
	parts := make([]string, 0, 1+len(args)+len(named))
	parts = append(parts, prefix)
	for _, a := range args {
		parts = append(parts, stringify(a))
	}
	names := make([]string, 0, len(named))
	for n := range named {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		parts = append(parts, n+"="+stringify(named[n]))
	}
	key := strings.Join(parts, keyDelimiter)
	if len(key) > s.cfg.KeyHashThreshold {
		return hashKey(key)
	}
	return key
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

// hashKey replaces an oversized key with a fixed-length hex digest.
func hashKey(key string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

func (s *CacheManager) entityKey(domain, id string) string {
	return s.GenerateKey(domain, []any{id}, nil)
}

func (s *CacheManager) collectionKey(domain, id string, page, limit int) string {
	return s.GenerateKey(domain, []any{id}, map[string]any{"page": page, "limit": limit})
}

// Get implements ports.CacheManager.
func (s *CacheManager) Get(ctx context.Context, domain, id string, dest any) bool {
	return s.getKey(ctx, s.entityKey(domain, id), dest)
}

// Set implements ports.CacheManager.
func (s *CacheManager) Set(ctx context.Context, domain, id string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.cfg.EntityTTL
	}
	s.setKey(ctx, s.entityKey(domain, id), value, ttl)
}

// GetCollection implements ports.CacheManager.
func (s *CacheManager) GetCollection(ctx context.Context, domain, id string, page, limit int, dest any) bool {
	return s.getKey(ctx, s.collectionKey(domain, id, page, limit), dest)
}

// SetCollection implements ports.CacheManager. Every issued collection key is
// tracked against its entity key so Invalidate can delete all page/limit
// variants cached by this instance.
func (s *CacheManager) SetCollection(ctx context.Context, domain, id string, value any, page, limit int, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.cfg.CollectionTTL
	}
	key := s.collectionKey(domain, id, page, limit)
	s.trackCollectionKey(s.entityKey(domain, id), key)
	s.setKey(ctx, key, value, ttl)
}

// Invalidate implements ports.CacheManager. It removes the primary entity key
// and every collection key this instance has issued for it. Collection
// entries written by other instances age out through their own TTL.
func (s *CacheManager) Invalidate(ctx context.Context, domain, id string) {
	key := s.entityKey(domain, id)
	s.backend.Delete(ctx, key)
	for _, ck := range s.takeCollectionKeys(key) {
		s.backend.Delete(ctx, ck)
	}
}

// GetOrLoad implements ports.CacheManager. Concurrent misses for the same key
// are coalesced into a single load.
func (s *CacheManager) GetOrLoad(ctx context.Context, domain, id string, ttl time.Duration, dest any, load func(ctx context.Context) (any, error)) error {
	if ttl <= 0 {
		ttl = s.cfg.EntityTTL
	}
	key := s.entityKey(domain, id)
	if s.getKey(ctx, key, dest) {
		return nil
	}
	res, err, _ := s.sf.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have populated the
		// key while this one was queued.
		if data, ok := s.backend.Get(ctx, key); ok {
			return data, nil
		}
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := msgpack.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("failed to encode loaded value: %w", err)
		}
		s.backend.Set(ctx, key, data, ttl)
		return data, nil
	})
	if err != nil {
		return err
	}
	return msgpack.Unmarshal(res.([]byte), dest)
}

// GetUser implements ports.CacheManager.
func (s *CacheManager) GetUser(ctx context.Context, id uuid.UUID) (*user.User, bool) {
	var u user.User
	if !s.Get(ctx, DomainUser, id.String(), &u) {
		return nil, false
	}
	return &u, true
}

// SetUser implements ports.CacheManager.
func (s *CacheManager) SetUser(ctx context.Context, u *user.User, ttl time.Duration) {
	if u == nil {
		return
	}
	s.Set(ctx, DomainUser, u.ID.String(), u, ttl)
}

// GetApplicationPage implements ports.CacheManager.
func (s *CacheManager) GetApplicationPage(ctx context.Context, userID uuid.UUID, page, limit int) (*application.Page, bool) {
	var p application.Page
	if !s.GetCollection(ctx, DomainApplications, userID.String(), page, limit, &p) {
		return nil, false
	}
	return &p, true
}

// SetApplicationPage implements ports.CacheManager.
func (s *CacheManager) SetApplicationPage(ctx context.Context, userID uuid.UUID, p *application.Page, ttl time.Duration) {
	if p == nil {
		return
	}
	s.SetCollection(ctx, DomainApplications, userID.String(), p, p.Page, p.Limit, ttl)
}

// InvalidateUser implements ports.CacheManager.
func (s *CacheManager) InvalidateUser(ctx context.Context, id uuid.UUID) {
	s.Invalidate(ctx, DomainUser, id.String())
}

// InvalidateApplications implements ports.CacheManager.
func (s *CacheManager) InvalidateApplications(ctx context.Context, userID uuid.UUID) {
	s.Invalidate(ctx, DomainApplications, userID.String())
}

func (s *CacheManager) getKey(ctx context.Context, key string, dest any) bool {
	data, ok := s.backend.Get(ctx, key)
	if !ok {
		return false
	}
	if err := msgpack.Unmarshal(data, dest); err != nil {
		// A blob we wrote that no longer decodes points at a programming
		// error, not infrastructure; log it louder than a backend failure.
		s.logger.WithFields(logrus.Fields{"key": key, "error": err}).Error("failed to decode cached value")
		return false
	}
	return true
}

func (s *CacheManager) setKey(ctx context.Context, key string, value any, ttl time.Duration) {
	data, err := msgpack.Marshal(value)
	if err != nil {
		s.logger.WithFields(logrus.Fields{"key": key, "error": err}).Error("failed to encode value for cache")
		return
	}
	s.backend.Set(ctx, key, data, ttl)
}

func (s *CacheManager) trackCollectionKey(entityKey, collectionKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.collectionKeys[entityKey]
	if !ok {
		keys = make(map[string]struct{})
		s.collectionKeys[entityKey] = keys
	}
	keys[collectionKey] = struct{}{}
}

func (s *CacheManager) takeCollectionKeys(entityKey string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := s.collectionKeys[entityKey]
	if len(keys) == 0 {
		return nil
	}
	delete(s.collectionKeys, entityKey)
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	return out
}
