// Package metrics provides Prometheus metrics for the matchday service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the matchday service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	trainingBuckets  []float64
	registry         prometheus.Registerer

	auto promauto.Factory

	// Model lifecycle
	trainingRuns     *prometheus.CounterVec
	trainingDuration prometheus.Histogram
	trainingRows     prometheus.Gauge
	validationAUC    *prometheus.GaugeVec

	// Model cache
	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheEvictions     prometheus.Counter
	cacheInvalidations prometheus.Counter
	cacheSize          prometheus.Gauge

	// Valuation and simulation
	actionsValued  prometheus.Counter
	simulations    prometheus.Counter
	dataWarnings   *prometheus.CounterVec
	datasetActions prometheus.Gauge
	datasetMatches prometheus.Gauge

	// Training queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueueTotal  prometheus.Counter
	queueDequeueTotal  prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Trainer workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
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
		namespace:        "matchday",
		subsystem:        "vaep",
		histogramBuckets: prometheus.DefBuckets,
		trainingBuckets:  []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.auto = promauto.With(m.registry)
	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return m.auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return m.auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return m.auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return m.auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.trainingRuns = m.counterVec("training_runs_total", "Model training runs by outcome", "outcome")
	m.trainingDuration = m.histogram("training_duration_milliseconds", "Wall time of a full scoring+conceding training run", m.trainingBuckets)
	m.trainingRows = m.gauge("training_rows", "Feature rows used by the last successful training run")
	m.validationAUC = m.auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "validation_auc",
		Help:      "ROC-AUC of the last trained model on its validation games",
	}, []string{"model"})

	m.cacheHits = m.counter("model_cache_hits_total", "Model artifact cache hits")
	m.cacheMisses = m.counter("model_cache_misses_total", "Model artifact cache misses")
	m.cacheEvictions = m.counter("model_cache_evictions_total", "Artifacts evicted from the model cache")
	m.cacheInvalidations = m.counter("model_cache_invalidations_total", "Whole-cache invalidations caused by a new freshness token")
	m.cacheSize = m.gauge("model_cache_size", "Number of cached model artifacts")

	m.actionsValued = m.counter("actions_valued_total", "Actions run through the value engine")
	m.simulations = m.counter("simulations_total", "Pre-match simulations computed")
	m.dataWarnings = m.counterVec("data_integrity_warnings_total", "Row-level defects absorbed with a default value", "kind")
	m.datasetActions = m.gauge("dataset_actions", "Normalized actions currently loaded")
	m.datasetMatches = m.gauge("dataset_matches", "Matches currently loaded")

	m.queueSize = m.gauge("queue_size", "Pending training jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum training queue capacity")
	m.queueUtilization = m.gauge("queue_utilization_ratio", "Training queue utilization ratio (current size / capacity)")
	m.queueEnqueueTotal = m.counter("queue_enqueue_total", "Training jobs enqueued")
	m.queueDequeueTotal = m.counter("queue_dequeue_total", "Training jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Training jobs rejected by the queue")

	m.workerActiveCount = m.gauge("worker_active_count", "Number of trainer workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Trainer worker job latency in milliseconds", m.trainingBuckets)
	m.workerErrors = m.counter("worker_errors_total", "Training jobs that finished with an error")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = m.auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Total number of errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Total number of errors by type", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordTrainingRun counts a training run; outcome is "success", "insufficient_data" or "error".
func RecordTrainingRun(outcome string) {
	globalManager.trainingRuns.WithLabelValues(outcome).Inc()
}

// RecordTrainingDuration records a training run duration in milliseconds.
func RecordTrainingDuration(ms float64) {
	globalManager.trainingDuration.Observe(ms)
}

// UpdateTrainingRows sets the row count of the last successful training run.
func UpdateTrainingRows(rows int) {
	globalManager.trainingRows.Set(float64(rows))
}

// UpdateValidationAUC sets the validation AUC for "scoring" or "conceding".
func UpdateValidationAUC(model string, auc float64) {
	globalManager.validationAUC.WithLabelValues(model).Set(auc)
}

// RecordModelCacheHit increments the cache hit counter.
func RecordModelCacheHit() { globalManager.cacheHits.Inc() }

// RecordModelCacheMiss increments the cache miss counter.
func RecordModelCacheMiss() { globalManager.cacheMisses.Inc() }

// RecordModelCacheEviction increments the cache eviction counter.
func RecordModelCacheEviction() { globalManager.cacheEvictions.Inc() }

// RecordModelCacheInvalidation increments the cache invalidation counter.
func RecordModelCacheInvalidation() { globalManager.cacheInvalidations.Inc() }

// UpdateModelCacheSize sets the number of cached artifacts.
func UpdateModelCacheSize(size int) {
	globalManager.cacheSize.Set(float64(size))
}

// RecordActionsValued adds n to the valued actions counter.
func RecordActionsValued(n int) {
	if n > 0 {
		globalManager.actionsValued.Add(float64(n))
	}
}

// RecordSimulation increments the simulation counter.
func RecordSimulation() { globalManager.simulations.Inc() }

// RecordDataIntegrityWarning adds n absorbed row defects of the given kind.
func RecordDataIntegrityWarning(kind string, n int) {
	if n > 0 {
		globalManager.dataWarnings.WithLabelValues(kind).Add(float64(n))
	}
}

// UpdateDatasetSize sets the loaded action and match counts.
func UpdateDatasetSize(actions, matches int) {
	globalManager.datasetActions.Set(float64(actions))
	globalManager.datasetMatches.Set(float64(matches))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() { globalManager.queueEnqueueTotal.Inc() }

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() { globalManager.queueDequeueTotal.Inc() }

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() { globalManager.queueEnqueueErrors.Inc() }

// UpdateWorkerActiveCount sets the number of trainer workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records a training job latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() { globalManager.workerErrors.Inc() }

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

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
