package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediagate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 16), // 10ms to ~5 minutes
		},
		[]string{"method", "endpoint"},
	)

	// Extractor Metrics
	ExtractorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagate_extractor_runs_total",
			Help: "Total number of extractor invocations",
		},
		[]string{"mode", "outcome"},
	)

	ExtractorRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediagate_extractor_run_duration_seconds",
			Help:    "Extractor run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 14), // 100ms to ~27 minutes
		},
		[]string{"mode"},
	)

	ExtractorProcessesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediagate_extractor_processes_active",
			Help: "Number of extractor processes currently running",
		},
	)

	// Download Metrics
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagate_downloads_total",
			Help: "Total number of download attempts by final state",
		},
		[]string{"container", "state"},
	)

	DownloadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagate_download_bytes_total",
			Help: "Total media bytes streamed to clients",
		},
		[]string{"container"},
	)

	DownloadsCancelledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagate_downloads_cancelled_total",
			Help: "Downloads aborted by client disconnect",
		},
		[]string{"container"},
	)

	// Cache Metrics
	CacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagate_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMissesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagate_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	// Database Metrics
	DatabaseOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagate_database_operations_total",
			Help: "Total number of database operations",
		},
		[]string{"operation", "status"},
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediagate_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)
)

// RecordHTTPRequest records an HTTP request
func RecordHTTPRequest(method, endpoint, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration)
}

// RecordExtractorRun records a finished extractor invocation
func RecordExtractorRun(mode, outcome string, duration float64) {
	ExtractorRunsTotal.WithLabelValues(mode, outcome).Inc()
	ExtractorRunDuration.WithLabelValues(mode).Observe(duration)
}

// ProcessStarted marks an extractor process as running
func ProcessStarted() {
	ExtractorProcessesActive.Inc()
}

// ProcessFinished marks an extractor process as gone
func ProcessFinished() {
	ExtractorProcessesActive.Dec()
}

// RecordDownload records the final state of a download
func RecordDownload(container, state string, bytes int64, cancelled bool) {
	DownloadsTotal.WithLabelValues(container, state).Inc()
	DownloadBytesTotal.WithLabelValues(container).Add(float64(bytes))
	if cancelled {
		DownloadsCancelledTotal.WithLabelValues(container).Inc()
	}
}

// RecordCacheAccess records cache hit or miss
func RecordCacheAccess(cacheType string, hit bool) {
	if hit {
		CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

// RecordDatabaseOperation records a database operation
func RecordDatabaseOperation(operation, status string) {
	DatabaseOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}
