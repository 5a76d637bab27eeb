// Package cache implements the engagement counter cache: a key to integer
// mapping backed by Redis with a process-local fallback for degraded mode.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Key families for per-post counters and rate-limit windows.
const (
	likesKeyPrefix  = "likes:%d"
	sharesKeyPrefix = "shares:%d"
	rateKeyPrefix   = "rate:%s:%d:%s"
)

// CounterTTL bounds how long an unrefreshed counter stays cached. Every
// committed engagement overwrites the value, so staleness self-heals on the
// next mutation.
const CounterTTL = time.Hour

// LikesKey returns the cache key for a post's likes counter.
func LikesKey(postID uint) string {
	return fmt.Sprintf(likesKeyPrefix, postID)
}

// SharesKey returns the cache key for a post's shares counter.
func SharesKey(postID uint) string {
	return fmt.Sprintf(sharesKeyPrefix, postID)
}

// RateKey returns the cache key for a per-user, per-action rate window
// ("minute" or "hour").
func RateKey(action string, userID uint, window string) string {
	return fmt.Sprintf(rateKeyPrefix, action, userID, window)
}

// CounterStore is the contract shared by the Redis-backed store and the
// in-process fallback: get/set/increment/decrement/invalidate over integer
// counters, with decrement clamped at zero.
type CounterStore interface {
	Get(ctx context.Context, key string) (int64, bool, error)
	Set(ctx context.Context, key string, value int64, ttl time.Duration) error
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	Decrement(ctx context.Context, key string, delta int64) (int64, error)
	Invalidate(ctx context.Context, key string) error
}
