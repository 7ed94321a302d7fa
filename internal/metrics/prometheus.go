package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the ingestion service

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_ingest_runs_total",
			Help: "Total number of ingestion runs",
		},
		[]string{"feed", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickem_ingest_run_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"feed"},
	)

	RecordsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_ingest_records_written_total",
			Help: "Total number of child records committed",
		},
		[]string{"feed"},
	)

	LastSuccessfulRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pickem_ingest_last_successful_run_timestamp",
			Help: "Timestamp of last committed run",
		},
		[]string{"feed"},
	)

	// Resolution and validation errors
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_ingest_errors_total",
			Help: "Total number of rejected input entries",
		},
		[]string{"feed", "category"},
	)

	ReportsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickem_reports_dropped_total",
			Help: "Total number of error reports dropped because the sink was busy",
		},
	)

	// Registry metrics
	RegistryAliases = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pickem_registry_aliases",
			Help: "Number of distinct aliases in the most recently loaded registry",
		},
		[]string{"kind"},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickem_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	// Cache metrics
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickem_cache_hits_total",
			Help: "Total number of cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pickem_cache_misses_total",
			Help: "Total number of cache misses",
		},
	)

	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pickem_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Scrape metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_feed_fetches_total",
			Help: "Total number of ratings page fetches",
		},
		[]string{"status"},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pickem_feed_fetch_duration_seconds",
			Help:    "Duration of ratings page fetches in seconds, retries included",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	// Trigger metrics
	TriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pickem_triggers_total",
			Help: "Total number of run triggers received",
		},
		[]string{"source"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pickem_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)
)

// RecordRun records the outcome of one ingestion run
func RecordRun(feed, status string, duration float64) {
	RunsTotal.WithLabelValues(feed, status).Inc()
	RunDuration.WithLabelValues(feed).Observe(duration)

	if status == "success" {
		LastSuccessfulRun.WithLabelValues(feed).SetToCurrentTime()
	}
}

// RecordWritten records committed child records
func RecordWritten(feed string, n int) {
	RecordsWritten.WithLabelValues(feed).Add(float64(n))
}

// RecordError records a rejected entry
func RecordError(feed, category string) {
	ErrorsTotal.WithLabelValues(feed, category).Inc()
}

// RecordReportDropped records a report that never reached its sink
func RecordReportDropped() {
	ReportsDropped.Inc()
}

// UpdateRegistryStats updates the alias gauge for one kind
func UpdateRegistryStats(kind string, aliases int) {
	RegistryAliases.WithLabelValues(kind).Set(float64(aliases))
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheHit records a cache hit
func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordFetch records a ratings page fetch
func RecordFetch(status string, duration float64) {
	FetchesTotal.WithLabelValues(status).Inc()
	FetchDuration.Observe(duration)
}

// RecordTrigger records a run trigger
func RecordTrigger(source string) {
	TriggersTotal.WithLabelValues(source).Inc()
}
