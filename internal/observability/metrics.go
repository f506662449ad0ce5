package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipa_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheResults counts cache-aside lookups by outcome (hit, miss, error).
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipa_cache_results_total",
		Help: "Cache-aside lookups by outcome",
	}, []string{"outcome"})

	// HotRankingDuration records how long ranking a category's threads takes.
	HotRankingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tipa_hot_ranking_duration_seconds",
		Help:    "Time spent scoring and sorting threads for the hot listing",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	}, []string{"category"})

	// MembershipResolutions counts resolver outcomes (trial, active, expired, pending, rejected).
	MembershipResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipa_membership_resolutions_total",
		Help: "Membership status resolutions by outcome",
	}, []string{"outcome"})

	// InvitesProcessed counts CSV invite rows by outcome.
	InvitesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipa_invites_processed_total",
		Help: "Bulk invite rows processed by outcome",
	}, []string{"outcome"})

	// ExpirySweepMembers counts members examined and expired by the sweep.
	ExpirySweepMembers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipa_expiry_sweep_members_total",
		Help: "Members examined and expired by the expiry sweep",
	}, []string{"result"})

	// WebSocketConnectionsTotal is the gauge of total WebSocket connections.
	WebSocketConnectionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tipa_websocket_connections_total",
		Help: "Total number of active WebSocket connections",
	})

	// WebSocketBackpressureDrops counts messages dropped because a client could not keep up.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tipa_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})
)

// ObserveHotRanking returns a func that records the ranking latency for category (use with defer).
func ObserveHotRanking(category string) func() {
	start := time.Now()
	return func() {
		HotRankingDuration.WithLabelValues(category).Observe(time.Since(start).Seconds())
	}
}
