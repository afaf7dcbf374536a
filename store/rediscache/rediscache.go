// Package rediscache implements domain.KeyValueCache over a real Redis
// connection, grounded on the teacher's
// sqsdomain/repository/redis/router/redis_router_repository.go client usage
// (direct *redis.Client calls rather than the teacher's pipelined
// transactions, since this adapter's operations are all single-key). This
// is the only cache in the module that must be shared across replicas: the
// sync worker's publish lease (domain.KeyValueCache.Lock) only works as a
// mutual exclusion mechanism when every replica talks to the same backing
// store.
package rediscache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache adapts a *redis.Client to domain.KeyValueCache.
type Cache struct {
	client *redis.Client
}

// New dials addr (host:port, spec.md §6 Config.RedisHost) and returns a
// Cache. It does not ping: callers that need to fail fast on a dead Redis
// should call Ping themselves before serving traffic.
func New(addr string) *Cache {
	return &Cache{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Ping verifies connectivity, mirroring the teacher's startup check in
// app/sidecar_query_server.go.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get implements domain.KeyValueCache.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// SetEX implements domain.KeyValueCache.
func (c *Cache) SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Lock implements domain.KeyValueCache's distributed lease: a Redis SET
// NX EX acquires the lease, and the returned release func best-effort
// deletes the key early so the next sync interval doesn't have to wait out
// the full TTL after a clean exit. Losing the race (another replica holds
// the lease) returns ok=false, never an error.
func (c *Cache) Lock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	acquired, err := c.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return func() {}, false, nil
	}

	release := func() {
		c.client.Del(context.Background(), key)
	}
	return release, true, nil
}
