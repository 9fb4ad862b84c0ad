package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces gateway keys in a shared Redis database.
const DefaultPrefix = "bucketgate"

// RedisOption configures a Redis cache.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix     string
	defaultTTL time.Duration
}

// WithPrefix sets the key namespace. Keys are stored as "{prefix}:{key}".
// An empty prefix stores keys unchanged.
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) { c.prefix = prefix }
}

// WithRedisDefaultTTL sets the expiry used when Set is called with a zero ttl.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(c *redisConfig) { c.defaultTTL = d }
}

// Redis is a Cache shared by every gateway replica pointing at the same
// Redis database.
type Redis[V any] struct {
	client redis.UniversalClient
	codec  Codec[V]
	cfg    redisConfig
}

// NewRedis returns a Redis cache on client. A nil codec selects JSON.
// The client is owned by the caller.
func NewRedis[V any](client redis.UniversalClient, codec Codec[V], opts ...RedisOption) *Redis[V] {
	cfg := redisConfig{prefix: DefaultPrefix, defaultTTL: time.Hour}
	for _, opt := range opts {
		opt(&cfg)
	}
	if codec == nil {
		codec = JSON[V]{}
	}
	return &Redis[V]{client: client, codec: codec, cfg: cfg}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	return r.codec.Decode(data)
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return err
	}
	if ttl == 0 {
		ttl = r.cfg.defaultTTL
	}
	// redis treats 0 as no expiry
	return r.client.Set(ctx, r.key(key), data, max(ttl, 0)).Err()
}

func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Close is a no-op; the client is closed with redis.Shutdown.
func (r *Redis[V]) Close() error { return nil }

func (r *Redis[V]) key(k string) string {
	if r.cfg.prefix == "" {
		return k
	}
	return r.cfg.prefix + ":" + k
}

var _ Cache[bool] = (*Redis[bool])(nil)
