// Package metrics exposes Prometheus collectors for the record store, the
// connection pool and the tombstone reaper.
//
// # Basic Usage
//
//	start := time.Now()
//	_, err := st.Insert("products", "P1", fields)
//	metrics.ObserveOperation("insert", "products", start, err)
//
//	// Serve the default registry
//	http.Handle("/metrics", metrics.Handler())
//
// # Metric Types
//
// Counter: store operations by outcome, purged tombstones, index fallbacks, pool exhaustion
// Gauge: active pool connections
// Histogram: operation latency, pool acquisition wait
package metrics

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajitpratap0/memstore/pkg/errors"
)

const namespace = "memstore"

var (
	// StoreOperations counts store operations.
	// Labels: operation, collection, status (ok or the error kind)
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Total number of store operations by outcome",
		},
		[]string{"operation", "collection", "status"},
	)

	// StoreLatency tracks how long store operations hold the store, in seconds.
	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Store operation latency in seconds",
			Buckets: []float64{
				1e-6, // 1μs - map lookups
				1e-5, // 10μs - small scans
				1e-4, // 100μs
				1e-3, // 1ms - full scans of mid-sized collections
				1e-2, // 10ms - index builds
				1e-1, // 100ms
				1,    // 1s - pathological scans
			},
		},
		[]string{"operation"},
	)

	// IndexFallbacks counts FindByIndex calls served by a full scan.
	IndexFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_fallback_scans_total",
			Help:      "Index lookups that fell back to a collection scan",
		},
		[]string{"collection", "field"},
	)

	// TombstonesPurged counts records permanently removed by retention.
	TombstonesPurged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tombstones_purged_total",
			Help:      "Soft-deleted records purged after the retention horizon",
		},
		[]string{"collection"},
	)

	// PoolActiveConnections tracks checked-out pool slots.
	PoolActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pool_active_connections",
			Help:      "Number of active pooled connections",
		},
		[]string{"pool"},
	)

	// PoolAcquireWait tracks time spent waiting for a slot, in seconds.
	PoolAcquireWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pool_acquire_wait_seconds",
			Help:      "Time spent waiting for a pool slot",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 10, 7),
		},
		[]string{"pool"},
	)

	// PoolExhausted counts acquisitions that timed out.
	PoolExhausted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pool_exhausted_total",
			Help:      "Acquisitions that failed because no slot became free in time",
		},
		[]string{"pool"},
	)
)

// Status maps an operation outcome to a low-cardinality label value.
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	var e *errors.Error
	if stderrors.As(err, &e) {
		return string(e.Type)
	}
	return "error"
}

// ObserveOperation records one store operation that started at start.
func ObserveOperation(operation, collection string, start time.Time, err error) {
	StoreOperations.WithLabelValues(operation, collection, Status(err)).Inc()
	StoreLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
