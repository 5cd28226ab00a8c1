// Package metrics provides Prometheus metrics for the propline bet engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Submission path
	betsSubmitted        *prometheus.CounterVec
	betsMatched          prometheus.Counter
	betsUnmatched        prometheus.Counter
	submissionsRejected  *prometheus.CounterVec
	submissionsDuplicate prometheus.Counter
	matchConfidence      prometheus.Histogram

	// Resolution path
	resolutions      *prometheus.CounterVec
	resolutionErrors prometheus.Counter
	oracleUnresolved prometheus.Counter
	worstMissPicks   prometheus.Counter
	pendingBets      prometheus.Gauge

	// Catalog
	catalogSize    prometheus.Gauge
	catalogRefresh prometheus.Counter

	// Queue and workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueUtilization prometheus.Gauge
	queueEnqueues    prometheus.Counter
	queueDequeues    prometheus.Counter
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerErrors     prometheus.Counter

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "propline",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.betsSubmitted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "bets_submitted_total",
			Help:      "Total number of accepted bet submissions by category",
		},
		[]string{"category"},
	)

	m.betsMatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bets_matched_total",
		Help:      "Total number of submissions matched to a catalog line",
	})

	m.betsUnmatched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bets_unmatched_total",
		Help:      "Total number of submissions with no catalog match",
	})

	m.submissionsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "submissions_rejected_total",
			Help:      "Total number of submissions rejected by the validator",
		},
		[]string{"reason"},
	)

	m.submissionsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "submissions_duplicate_total",
		Help:      "Total number of duplicate submissions detected",
	})

	m.matchConfidence = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_confidence",
		Help:      "Histogram of matcher confidence for matched submissions",
		Buckets:   []float64{0.5, 0.7, 0.8, 0.9, 1.0},
	})

	m.resolutions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "resolutions_total",
			Help:      "Total number of bets resolved by terminal status",
		},
		[]string{"status"},
	)

	m.resolutionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_errors_total",
		Help:      "Total number of per-bet failures during resolution passes",
	})

	m.oracleUnresolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "oracle_unresolved_total",
		Help:      "Total number of oracle lookups that had no outcome yet",
	})

	m.worstMissPicks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worst_miss_picks_total",
		Help:      "Total number of worst-miss designations computed",
	})

	m.pendingBets = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pending_bets",
		Help:      "Current number of bets awaiting resolution",
	})

	m.catalogSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_lines",
		Help:      "Current number of lines in the catalog",
	})

	m.catalogRefresh = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "catalog_refreshes_total",
		Help:      "Total number of catalog ingestion refreshes",
	})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_queue_size",
		Help:      "Current size of the resolution job queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_queue_capacity",
		Help:      "Maximum resolution job queue capacity",
	})

	m.queueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_queue_utilization_ratio",
		Help:      "Resolution queue utilization ratio (size / capacity)",
	})

	m.queueEnqueues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_queue_enqueue_total",
		Help:      "Total number of resolution jobs enqueued",
	})

	m.queueDequeues = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_queue_dequeue_total",
		Help:      "Total number of resolution jobs dequeued",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_workers",
		Help:      "Current number of resolution workers",
	})

	m.workerLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_latency_milliseconds",
		Help:      "Per-bet resolution latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_worker_errors_total",
		Help:      "Total number of worker errors during resolution",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Submission metrics.

// RecordBetSubmitted increments the accepted submissions counter.
func RecordBetSubmitted(category string) {
	globalManager.betsSubmitted.WithLabelValues(category).Inc()
}

// RecordBetMatched increments the matched submissions counter.
func RecordBetMatched() {
	globalManager.betsMatched.Inc()
}

// RecordBetUnmatched increments the unmatched submissions counter.
func RecordBetUnmatched() {
	globalManager.betsUnmatched.Inc()
}

// RecordSubmissionRejected increments the rejected submissions counter.
func RecordSubmissionRejected(reason string) {
	globalManager.submissionsRejected.WithLabelValues(reason).Inc()
}

// RecordSubmissionDuplicate increments the duplicate submissions counter.
func RecordSubmissionDuplicate() {
	globalManager.submissionsDuplicate.Inc()
}

// RecordMatchConfidence observes the confidence of a successful match.
func RecordMatchConfidence(confidence float64) {
	globalManager.matchConfidence.Observe(confidence)
}

// Resolution metrics.

// RecordResolution increments the resolution counter for a terminal status.
func RecordResolution(status string) {
	globalManager.resolutions.WithLabelValues(status).Inc()
}

// RecordResolutionError increments the per-bet resolution failure counter.
func RecordResolutionError() {
	globalManager.resolutionErrors.Inc()
}

// RecordOracleUnresolved increments the unresolved-oracle counter.
func RecordOracleUnresolved() {
	globalManager.oracleUnresolved.Inc()
}

// RecordWorstMissPick increments the worst-miss designation counter.
func RecordWorstMissPick() {
	globalManager.worstMissPicks.Inc()
}

// UpdatePendingBets sets the pending bet gauge.
func UpdatePendingBets(count int) {
	globalManager.pendingBets.Set(float64(count))
}

// Catalog metrics.

// UpdateCatalogSize sets the catalog line count gauge.
func UpdateCatalogSize(count int) {
	globalManager.catalogSize.Set(float64(count))
}

// RecordCatalogRefresh increments the catalog refresh counter.
func RecordCatalogRefresh() {
	globalManager.catalogRefresh.Inc()
}

// Queue metrics.

// UpdateQueueSize sets the resolution queue size gauge.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the resolution queue capacity gauge.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio gauge.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueues.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeues.Inc()
}

// Worker metrics.

// UpdateWorkerCount sets the resolution worker gauge.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerLatency records per-bet resolution latency.
func RecordWorkerLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records an HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
