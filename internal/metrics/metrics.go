package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CyclesTotal counts sampling cycles by terminal outcome
	// (success, skipped, failed).
	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sampling_cycles_total",
			Help: "Total number of sampling cycles by outcome",
		},
		[]string{"outcome"},
	)

	// FetchDuration tracks outbound weather API call latency.
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weather_fetch_duration_seconds",
			Help:    "Duration of outbound weather API fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// StoreOpsTotal counts record store operations by status.
	StoreOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "record_store_operations_total",
			Help: "Total number of record store operations executed",
		},
		[]string{"operation", "status"},
	)

	// StoreOpDuration tracks record store operation latency.
	StoreOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "record_store_operation_duration_seconds",
			Help:    "Duration of record store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// SeriesCacheLookups counts read-side cache hits and misses.
	SeriesCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "series_cache_lookups_total",
			Help: "Total number of read-side series cache lookups",
		},
		[]string{"result"},
	)
)

// RecordStoreOp records one record store operation execution.
func RecordStoreOp(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StoreOpsTotal.WithLabelValues(operation, status).Inc()
	StoreOpDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordFetch records one outbound weather API fetch.
func RecordFetch(endpoint string, duration time.Duration) {
	FetchDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// RecordCycle records a sampling cycle's terminal outcome.
func RecordCycle(outcome string) {
	CyclesTotal.WithLabelValues(outcome).Inc()
}
