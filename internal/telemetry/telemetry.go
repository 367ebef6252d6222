package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics ───────────────────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "libra",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "libra",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)

// ── Metric computation ─────────────────────────────────────────────────

var (
	ComputeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "libra",
		Subsystem: "compute",
		Name:      "total",
		Help:      "Metric computations by kind and outcome.",
	}, []string{"kind", "status"})

	ComputeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "libra",
		Subsystem: "compute",
		Name:      "duration_seconds",
		Help:      "Duration of a metric computation including network round trips.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"kind"})

	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "libra",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Memo lookups by kind and result (hit, miss).",
	}, []string{"kind", "result"})
)

// ── Last published values ──────────────────────────────────────────────

var (
	PublishedUSD = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "libra",
		Subsystem: "published",
		Name:      "usd",
		Help:      "Last computed USD figure (tvl_total, tvl_base, tvl_meta, tvl_locked, market_cap, price).",
	}, []string{"figure"})

	PublishedAPR = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "libra",
		Subsystem: "published",
		Name:      "apr",
		Help:      "Last computed APR per pool as a fraction.",
	}, []string{"pool"})
)
