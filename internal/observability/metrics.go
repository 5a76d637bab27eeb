// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaarhub_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// EngagementActions counts engagement outcomes by action and result
	// (applied, already_done, rate_limited, failed).
	EngagementActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bazaarhub_engagement_actions_total",
		Help: "Total number of engagement actions by action and result",
	}, []string{"action", "result"})

	// CacheDegradedMode reports whether the counter cache is running on the
	// in-process fallback (1) or the Redis backend (0).
	CacheDegradedMode = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bazaarhub_counter_cache_degraded",
		Help: "Whether the counter cache is in degraded (in-process) mode",
	})

	// FeedPagesServed counts feed pages assembled and served.
	FeedPagesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bazaarhub_feed_pages_served_total",
		Help: "Total number of feed pages served",
	})
)
