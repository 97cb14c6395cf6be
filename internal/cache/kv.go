package cache

import (
	"context"
	"time"
)

// KV is the optional Tier-2 external key-value store. Implementations
// must be thread-safe; the no-op implementation lets the core run
// without a configured external store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// NoopKV is the degrade-to-in-process-only implementation used when
// REDIS_URL is unset.
type NoopKV struct{}

var _ KV = NoopKV{}

func (NoopKV) Get(_ context.Context, _ string) ([]byte, bool, error) { return nil, false, nil }
func (NoopKV) Put(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
