package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"bazaarhub/internal/observability"

	"github.com/redis/go-redis/v9"
)

// redisCounterStore implements CounterStore on a Redis backend.
type redisCounterStore struct {
	client *redis.Client
}

func (s *redisCounterStore) Get(ctx context.Context, key string) (int64, bool, error) {
	v, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

func (s *redisCounterStore) Set(ctx context.Context, key string, value int64, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Increment materializes an absent key at 0 before applying the delta, so
// the backend never increments a missing key.
func (s *redisCounterStore) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	if err := s.client.SetNX(ctx, key, 0, CounterTTL).Err(); err != nil {
		return 0, err
	}
	return s.client.IncrBy(ctx, key, delta).Result()
}

// Decrement applies the delta atomically and clamps the stored value at zero.
func (s *redisCounterStore) Decrement(ctx context.Context, key string, delta int64) (int64, error) {
	if err := s.client.SetNX(ctx, key, 0, CounterTTL).Err(); err != nil {
		return 0, err
	}
	v, err := s.client.DecrBy(ctx, key, delta).Result()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		if err := s.client.Set(ctx, key, 0, CounterTTL).Err(); err != nil {
			return 0, err
		}
		return 0, nil
	}
	return v, nil
}

func (s *redisCounterStore) Invalidate(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// metricsHook counts Redis command errors, excluding cache misses.
type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if err != nil && !errors.Is(err, redis.Nil) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// dialRedis builds a client with short operation timeouts and a bounded pool
// so an unreachable backend cannot stall request handling.
func dialRedis(addr string) *redis.Client {
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	opts.DialTimeout = 2 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	opts.PoolSize = 10

	client := redis.NewClient(opts)
	client.AddHook(metricsHook{})
	return client
}
