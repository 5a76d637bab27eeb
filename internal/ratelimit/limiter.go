// Package ratelimit enforces per-user, per-action ceilings on top of the
// counter cache's remote increment-with-expiry primitive.
package ratelimit

import (
	"context"
	"time"

	"bazaarhub/internal/cache"
)

// Default ceilings per (user, action).
const (
	DefaultPerMinute = 60
	DefaultPerHour   = 300
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Limiter tracks two windows per (user, action): rate:{action}:{user}:minute
// with a 60s TTL and rate:{action}:{user}:hour with a 3600s TTL. When the
// cache backend lacks the required atomic operations (degraded mode) the
// limiter fails open: rate limiting is a best-effort guard, never a blocker.
type Limiter struct {
	counters  *cache.Counters
	perMinute int64
	perHour   int64
}

// NewLimiter builds a limiter with the given ceilings; non-positive values
// fall back to the defaults.
func NewLimiter(counters *cache.Counters, perMinute, perHour int) *Limiter {
	if perMinute <= 0 {
		perMinute = DefaultPerMinute
	}
	if perHour <= 0 {
		perHour = DefaultPerHour
	}
	return &Limiter{
		counters:  counters,
		perMinute: int64(perMinute),
		perHour:   int64(perHour),
	}
}

// Check reports whether the user may perform the action. It reads both
// window counters without incrementing them, so rejected attempts consume no
// quota; callers must invoke Record only after the action is permitted.
func (l *Limiter) Check(ctx context.Context, userID uint, action string) bool {
	if l.counters.Degraded() {
		return true
	}

	if cnt, ok := l.counters.RemoteGet(ctx, cache.RateKey(action, userID, "minute")); ok && cnt >= l.perMinute {
		return false
	}
	if cnt, ok := l.counters.RemoteGet(ctx, cache.RateKey(action, userID, "hour")); ok && cnt >= l.perHour {
		return false
	}
	return true
}

// Record consumes one unit of quota in both windows. A no-op when the cache
// backend is unavailable.
func (l *Limiter) Record(ctx context.Context, userID uint, action string) {
	if l.counters.Degraded() {
		return
	}
	l.counters.IncrementWithTTL(ctx, cache.RateKey(action, userID, "minute"), minuteWindow)
	l.counters.IncrementWithTTL(ctx, cache.RateKey(action, userID, "hour"), hourWindow)
}
