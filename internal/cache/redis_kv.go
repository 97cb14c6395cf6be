package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chartsrv/chartsrv/internal/chartserr"
)

// RedisKV is the Tier-2 external KV backed by a Redis-compatible store.
type RedisKV struct {
	client *redis.Client
}

var _ KV = (*RedisKV)(nil)

// NewRedisKV dials a Redis-compatible endpoint given its URL
// (redis://host:port/db form, as accepted by redis.ParseURL).
func NewRedisKV(url string) (*RedisKV, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, chartserr.New(chartserr.External, "NewRedisKV", err)
	}
	return &RedisKV{client: redis.NewClient(opts)}, nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, chartserr.New(chartserr.External, "RedisKV.Get", err)
	}
	return val, true, nil
}

func (r *RedisKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return chartserr.New(chartserr.External, "RedisKV.Put", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisKV) Close() error {
	return r.client.Close()
}
