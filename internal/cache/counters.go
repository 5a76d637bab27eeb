package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counters is the resilience wrapper over the remote and local counter
// stores. While the Redis backend is reachable it is the shared source for
// counters; any connection or command failure transparently redirects to the
// in-process store so the cache can never fail a request path.
type Counters struct {
	remote CounterStore // nil in degraded mode
	local  CounterStore
	client *redis.Client
	logger *slog.Logger
}

// NewCounters dials the Redis backend at addr. If the initial ping fails the
// instance starts degraded: all operations use the in-process store and no
// error is surfaced to callers.
func NewCounters(addr string, logger *slog.Logger) *Counters {
	c := &Counters{local: newLocalCounterStore(), logger: logger}

	client := dialRedis(addr)
	if client == nil {
		logger.Warn("invalid redis address, counter cache degraded to in-process store", slog.String("addr", addr))
		return c
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, counter cache degraded to in-process store", slog.String("error", err.Error()))
		_ = client.Close()
		return c
	}

	c.client = client
	c.remote = &redisCounterStore{client: client}
	logger.Info("counter cache connected to redis", slog.String("addr", addr))
	return c
}

// NewCountersWithClient wraps an existing Redis client (tests, shared pools).
// A nil client yields a degraded instance.
func NewCountersWithClient(client *redis.Client, logger *slog.Logger) *Counters {
	c := &Counters{local: newLocalCounterStore(), logger: logger}
	if client != nil {
		c.client = client
		c.remote = &redisCounterStore{client: client}
	}
	return c
}

// Degraded reports whether the remote backend was unavailable at startup.
func (c *Counters) Degraded() bool {
	return c.remote == nil
}

// Close releases the Redis connection pool.
func (c *Counters) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *Counters) fallback(op, key string, err error) {
	c.logger.Warn("counter cache remote operation failed, using in-process value",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
}

// Get returns the cached counter value and whether it was present.
func (c *Counters) Get(ctx context.Context, key string) (int64, bool) {
	if c.remote != nil {
		v, ok, err := c.remote.Get(ctx, key)
		if err == nil {
			return v, ok
		}
		c.fallback("get", key, err)
	}
	v, ok, _ := c.local.Get(ctx, key)
	return v, ok
}

// Set overwrites the counter with an authoritative value.
func (c *Counters) Set(ctx context.Context, key string, value int64) {
	if c.remote != nil {
		err := c.remote.Set(ctx, key, value, CounterTTL)
		if err == nil {
			return
		}
		c.fallback("set", key, err)
	}
	_ = c.local.Set(ctx, key, value, CounterTTL)
}

// Increment adds delta to the counter and returns the new value.
func (c *Counters) Increment(ctx context.Context, key string, delta int64) int64 {
	if c.remote != nil {
		v, err := c.remote.Increment(ctx, key, delta)
		if err == nil {
			return v
		}
		c.fallback("incr", key, err)
	}
	v, _ := c.local.Increment(ctx, key, delta)
	return v
}

// Decrement subtracts delta from the counter, clamping at zero.
func (c *Counters) Decrement(ctx context.Context, key string, delta int64) int64 {
	if c.remote != nil {
		v, err := c.remote.Decrement(ctx, key, delta)
		if err == nil {
			return v
		}
		c.fallback("decr", key, err)
	}
	v, _ := c.local.Decrement(ctx, key, delta)
	return v
}

// Invalidate removes the counter from the cache.
func (c *Counters) Invalidate(ctx context.Context, key string) {
	if c.remote != nil {
		err := c.remote.Invalidate(ctx, key)
		if err == nil {
			return
		}
		c.fallback("del", key, err)
	}
	_ = c.local.Invalidate(ctx, key)
}

// IncrementWithTTL is the remote-only increment-with-expiry primitive used by
// rate limiting. The expiry is attached when the key is created so the window
// slides from the first recorded action. Returns ok=false when the backend is
// degraded or the command fails; callers are expected to fail open.
func (c *Counters) IncrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, bool) {
	if c.client == nil {
		return 0, false
	}
	cnt, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		c.fallback("incr-ttl", key, err)
		return 0, false
	}
	if cnt == 1 {
		c.client.Expire(ctx, key, ttl)
	}
	return cnt, true
}

// RemoteGet reads a counter from the remote backend only. Returns ok=false
// when the backend is degraded, the command fails, or the key is absent.
func (c *Counters) RemoteGet(ctx context.Context, key string) (int64, bool) {
	if c.remote == nil {
		return 0, false
	}
	v, ok, err := c.remote.Get(ctx, key)
	if err != nil {
		c.fallback("get", key, err)
		return 0, false
	}
	return v, ok
}
