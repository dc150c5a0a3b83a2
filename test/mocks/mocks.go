package mocks

import (
	"context"
	"sync"
	"time"
)

// CacheBackendMock is a lightweight mock for ports.CacheBackend. Unset Fn
// fields fall back to miss/no-op, matching the fail-open contract.
type CacheBackendMock struct {
	GetFn    func(ctx context.Context, key string) ([]byte, bool)
	SetFn    func(ctx context.Context, key string, value []byte, ttl time.Duration)
	DeleteFn func(ctx context.Context, key string)
	ExistsFn func(ctx context.Context, key string) bool
}

func (m *CacheBackendMock) Get(ctx context.Context, key string) ([]byte, bool) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	return nil, false
}

func (m *CacheBackendMock) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if m.SetFn != nil {
		m.SetFn(ctx, key, value, ttl)
	}
}

func (m *CacheBackendMock) Delete(ctx context.Context, key string) {
	if m.DeleteFn != nil {
		m.DeleteFn(ctx, key)
	}
}

func (m *CacheBackendMock) Exists(ctx context.Context, key string) bool {
	if m.ExistsFn != nil {
		return m.ExistsFn(ctx, key)
	}
	return false
}

// RecordingBackend is an in-memory ports.CacheBackend that records the TTL of
// every write, for asserting tier TTL-capping behavior.
type RecordingBackend struct {
	mu      sync.Mutex
	values  map[string][]byte
	SetTTLs map[string]time.Duration
	Deleted []string
}

func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{
		values:  make(map[string][]byte),
		SetTTLs: make(map[string]time.Duration),
	}
}

func (b *RecordingBackend) Get(_ context.Context, key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.values[key]
	return v, ok
}

func (b *RecordingBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
	b.SetTTLs[key] = ttl
}

func (b *RecordingBackend) Delete(_ context.Context, key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
	b.Deleted = append(b.Deleted, key)
}

func (b *RecordingBackend) Exists(_ context.Context, key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.values[key]
	return ok
}
