// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the indexer.
type Metrics struct {
	// Cycle metrics
	CyclesTotal   *prometheus.CounterVec
	CycleDuration prometheus.Histogram
	CyclesSkipped prometheus.Counter

	// Pool metrics
	PoolsSnapshotted prometheus.Counter
	PoolsSkipped     *prometheus.CounterVec

	// Chain-access metrics
	RPCCallLatency       *prometheus.HistogramVec
	RPCEndpointRotations prometheus.Counter
	WatcherDirtyPools    prometheus.Gauge

	// Write metrics
	CandlesWritten     prometheus.Counter
	AggregatesComputed prometheus.Counter
	ArchiveBatchErrors prometheus.Counter

	// Health metrics
	LastSuccessfulCycle prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "pool_indexer"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_total",
			Help:      "Total number of snapshot cycles by status",
		}, []string{"status"}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycle_duration_seconds",
			Help:      "Snapshot cycle duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		CyclesSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "cycles_skipped_total",
			Help:      "Total number of ticks skipped because a cycle was still running",
		}),
		PoolsSnapshotted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "pools_snapshotted_total",
			Help:      "Total number of pools successfully snapshotted",
		}),
		PoolsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "pools_skipped_total",
			Help:      "Total number of pools skipped in a cycle by reason",
		}, []string{"reason"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCEndpointRotations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_endpoint_rotations_total",
			Help:      "Total number of RPC endpoint rotations after retryable errors",
		}),
		WatcherDirtyPools: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "watch",
			Name:      "dirty_pools",
			Help:      "Pools flagged by the account watcher awaiting the next cycle",
		}),
		CandlesWritten: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "candles_written_total",
			Help:      "Total number of candle upserts",
		}),
		AggregatesComputed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "aggregates_computed_total",
			Help:      "Total number of per-mint aggregates computed",
		}),
		ArchiveBatchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "archive_batch_errors_total",
			Help:      "Total number of failed snapshot archive batches",
		}),
		LastSuccessfulCycle: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_cycle_timestamp",
			Help:      "Unix timestamp of the last completed snapshot cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCycle records one finished cycle.
func RecordCycle(status string, durationSeconds float64) {
	DefaultMetrics.CyclesTotal.WithLabelValues(status).Inc()
	DefaultMetrics.CycleDuration.Observe(durationSeconds)
}

// RecordCycleSkipped increments the skipped-tick counter.
func RecordCycleSkipped() {
	DefaultMetrics.CyclesSkipped.Inc()
}

// RecordPoolSnapshotted increments the snapshotted-pool counter.
func RecordPoolSnapshotted() {
	DefaultMetrics.PoolsSnapshotted.Inc()
}

// RecordPoolSkipped records one pool skipped this cycle.
func RecordPoolSkipped(reason string) {
	DefaultMetrics.PoolsSkipped.WithLabelValues(reason).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordCandleWritten increments the candle upsert counter.
func RecordCandleWritten() {
	DefaultMetrics.CandlesWritten.Inc()
}

// RecordAggregateComputed increments the aggregate counter.
func RecordAggregateComputed() {
	DefaultMetrics.AggregatesComputed.Inc()
}
