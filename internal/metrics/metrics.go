package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rohmanhakim/scrapecache/pkg/breaker"
)

var (
	// Counters
	CacheOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapecache_cache_ops_total",
			Help: "Total cache operations by op and outcome",
		},
		[]string{"op", "outcome"}, // outcome: hit, miss, ok, degraded, error
	)

	SnapshotWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapecache_snapshot_writes_total",
			Help: "Total local snapshot writes",
		},
		[]string{"success"}, // "true" or "false"
	)

	BreakerTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapecache_breaker_transitions_total",
			Help: "Total circuit breaker state transitions",
		},
		[]string{"dependency", "from", "to"},
	)

	RateLimitDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrapecache_ratelimit_decisions_total",
			Help: "Total rate limit decisions",
		},
		[]string{"allowed"}, // "true" or "false"
	)

	ReconnectAttemptsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scrapecache_reconnect_attempts_total",
			Help: "Total backend reconnect attempts",
		},
	)

	// Gauges
	ConnState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrapecache_conn_state",
			Help: "Backend connection state (0=disconnected 1=connecting 2=connected 3=degraded)",
		},
	)

	ActiveJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrapecache_active_jobs",
			Help: "Active jobs observed at the last index read",
		},
	)

	BackendMemoryUsedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrapecache_backend_memory_used_bytes",
			Help: "Backend-reported used memory in bytes",
		},
	)

	BackendMemoryMaxBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrapecache_backend_memory_max_bytes",
			Help: "Backend-configured max memory in bytes (0 = unlimited)",
		},
	)
)

// BreakerObserver adapts the prometheus transition counter to the
// breaker.Observer interface.
type BreakerObserver struct{}

func (BreakerObserver) RecordTransition(name string, from breaker.State, to breaker.State) {
	BreakerTransitionsTotal.WithLabelValues(name, from.String(), to.String()).Inc()
}

// Register initializes all metrics (already done via promauto, but keep for explicit initialization)
func Register() {
	// Metrics are auto-registered via promauto
	// This function exists for explicit initialization if needed
}
