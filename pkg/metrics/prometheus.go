// Package metrics provides Prometheus metrics for the askdesk service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ask outcome label values.
const (
	OutcomeMatched  = "matched"
	OutcomeNoMatch  = "no_match"
	OutcomeEmpty    = "empty"
	OutcomeRejected = "rejected"
)

// Manager manages all Prometheus metrics for the askdesk service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Ask path
	asks             *prometheus.CounterVec
	askLatency       prometheus.Histogram
	candidatesScored prometheus.Histogram
	bestConfidence   prometheus.Histogram
	entriesTotal     prometheus.Gauge

	// Interaction log pipeline
	logEnqueued      prometheus.Counter
	logDropped       prometheus.Counter
	logWritten       prometheus.Counter
	logFailed        prometheus.Counter
	logQueueSize     prometheus.Gauge
	logQueueCapacity prometheus.Gauge
	logWriteLatency  prometheus.Histogram
	logWorkers       prometheus.Gauge

	// Analytics and store
	analyticsLatency prometheus.Histogram
	storeLatency     *prometheus.HistogramVec
	storeErrors      *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "askdesk",
		subsystem:        "faq",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.asks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "asks_total",
		Help:        "Total number of ask requests by outcome",
		ConstLabels: m.constLabels,
	}, []string{"outcome"})

	m.askLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "ask_latency_milliseconds",
		Help:        "Time spent matching a question against a snapshot",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.candidatesScored = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "candidates_scored",
		Help:        "Number of entries scored per ask",
		Buckets:     []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})

	m.bestConfidence = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "best_confidence",
		Help:        "Normalized score of the top candidate (unbounded)",
		Buckets:     []float64{0, 10, 15, 20, 30, 50, 75, 100, 150, 200, 400},
		ConstLabels: m.constLabels,
	})

	m.entriesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "entries_total",
		Help:        "Number of knowledge-base entries in the last snapshot",
		ConstLabels: m.constLabels,
	})

	m.logEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "interaction_log_enqueued_total",
		Help:        "Interaction records accepted by the log queue",
		ConstLabels: m.constLabels,
	})

	m.logDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "interaction_log_dropped_total",
		Help:        "Interaction records dropped because the log queue was full or closed",
		ConstLabels: m.constLabels,
	})

	m.logWritten = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "interaction_log_written_total",
		Help:        "Interaction records persisted to the store",
		ConstLabels: m.constLabels,
	})

	m.logFailed = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "interaction_log_failed_total",
		Help:        "Interaction records the store refused to persist",
		ConstLabels: m.constLabels,
	})

	m.logQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "interaction_log_queue_size",
		Help:        "Current backlog of the interaction log queue",
		ConstLabels: m.constLabels,
	})

	m.logQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "interaction_log_queue_capacity",
		Help:        "Capacity of the interaction log queue",
		ConstLabels: m.constLabels,
	})

	m.logWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "interaction_log_write_latency_milliseconds",
		Help:        "Latency of a single interaction append",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.logWorkers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "interaction_log_workers",
		Help:        "Number of interaction log writer goroutines",
		ConstLabels: m.constLabels,
	})

	m.analyticsLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "analytics_latency_milliseconds",
		Help:        "Time to assemble an analytics summary",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_operation_latency_milliseconds",
		Help:        "Store operation latency by operation",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"operation"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "store_errors_total",
		Help:        "Store operation failures by operation",
		ConstLabels: m.constLabels,
	}, []string{"operation"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_requests_total",
		Help:        "Total number of HTTP requests by endpoint and method",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_component_total",
		Help:        "Errors by component and type",
		ConstLabels: m.constLabels,
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_type_total",
		Help:        "Errors by type and severity",
		ConstLabels: m.constLabels,
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "errors_by_endpoint_total",
		Help:        "Errors by HTTP endpoint",
		ConstLabels: m.constLabels,
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_memory_usage_bytes",
		Help:        "System memory usage in bytes",
		ConstLabels: m.constLabels,
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_goroutine_count",
		Help:        "Number of goroutines",
		ConstLabels: m.constLabels,
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
		ConstLabels: m.constLabels,
	})
}

// RecordAsk increments the ask counter for an outcome.
func RecordAsk(outcome string) {
	globalManager.asks.WithLabelValues(outcome).Inc()
}

// RecordAskLatency records ask matching latency in milliseconds.
func RecordAskLatency(latencyMs float64) {
	globalManager.askLatency.Observe(latencyMs)
}

// RecordCandidatesScored records the snapshot size of one ask.
func RecordCandidatesScored(n int) {
	globalManager.candidatesScored.Observe(float64(n))
}

// RecordBestConfidence records the top candidate's normalized score.
func RecordBestConfidence(score float64) {
	globalManager.bestConfidence.Observe(score)
}

// UpdateEntriesTotal sets the knowledge-base size.
func UpdateEntriesTotal(count int) {
	globalManager.entriesTotal.Set(float64(count))
}

// Interaction log pipeline.

// RecordInteractionEnqueued increments the accepted-records counter.
func RecordInteractionEnqueued() {
	globalManager.logEnqueued.Inc()
}

// RecordInteractionDropped increments the dropped-records counter.
func RecordInteractionDropped() {
	globalManager.logDropped.Inc()
}

// RecordInteractionWritten increments the persisted-records counter.
func RecordInteractionWritten() {
	globalManager.logWritten.Inc()
}

// RecordInteractionFailed increments the failed-append counter.
func RecordInteractionFailed() {
	globalManager.logFailed.Inc()
}

// UpdateLogQueueSize sets the current log queue backlog.
func UpdateLogQueueSize(size int) {
	globalManager.logQueueSize.Set(float64(size))
}

// UpdateLogQueueCapacity sets the log queue capacity.
func UpdateLogQueueCapacity(capacity int) {
	globalManager.logQueueCapacity.Set(float64(capacity))
}

// RecordInteractionWriteLatency records a single append latency.
func RecordInteractionWriteLatency(latencyMs float64) {
	globalManager.logWriteLatency.Observe(latencyMs)
}

// UpdateLogWorkers sets the number of log writer goroutines.
func UpdateLogWorkers(count int) {
	globalManager.logWorkers.Set(float64(count))
}

// Analytics and store.

// RecordAnalyticsLatency records analytics assembly latency.
func RecordAnalyticsLatency(latencyMs float64) {
	globalManager.analyticsLatency.Observe(latencyMs)
}

// RecordStoreLatency records a store operation latency.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError increments the store error counter for an operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Errors.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
