// Package metrics provides Prometheus metrics for the OSC score router.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the router.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Routing - what happens to every inbound datagram
	datagramsReceived prometheus.Counter
	eventsByOutcome   *prometheus.CounterVec
	routingErrors     *prometheus.CounterVec
	handleLatency     prometheus.Histogram
	sendLatency       prometheus.Histogram
	bytesSent         prometheus.Counter

	// Correlation - paired stations
	pairsCompleted     prometheus.Counter
	partsOverwritten   *prometheus.CounterVec
	pendingCorrelation prometheus.Gauge

	// Router state
	running        prometheus.Gauge
	cachedClients  prometheus.Gauge
	routingEntries prometheus.Gauge
	eventLogSize   prometheus.Gauge

	// Inbound queue and handler workers
	queueSize               prometheus.Gauge
	queueCapacity           prometheus.Gauge
	queueEnqueueErrors      prometheus.Counter
	workerCount             prometheus.Gauge
	workerProcessingLatency prometheus.Histogram

	// HTTP admin surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error breakdowns
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

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
		namespace:        "oscrouter",
		subsystem:        "router",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: m.histogramBuckets,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics on the configured registry.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.datagramsReceived = m.counter("datagrams_received_total", "Total number of inbound datagrams read from the OSC socket")
	m.eventsByOutcome = m.counterVec("events_total", "Router events by outcome", "outcome")
	m.routingErrors = m.counterVec("routing_errors_total", "Dropped datagrams by error kind", "kind")
	m.handleLatency = m.histogram("handle_latency_milliseconds", "Time to handle one datagram end to end", m.histogramBuckets)
	m.sendLatency = m.histogram("send_latency_milliseconds", "Time spent writing one outbound datagram", m.histogramBuckets)
	m.bytesSent = m.counter("bytes_sent_total", "Total outbound OSC bytes written")

	m.pairsCompleted = m.counter("correlation_pairs_total", "Number of completed numeric/string pairs")
	m.partsOverwritten = m.counterVec("correlation_overwrites_total", "Pending parts replaced before being paired", "part")
	m.pendingCorrelation = m.gauge("correlation_pending", "Stations currently holding a half pair")

	m.running = m.gauge("running", "1 while the OSC listener is bound")
	m.cachedClients = m.gauge("cached_clients", "Outbound UDP clients cached per destination")
	m.routingEntries = m.gauge("routing_entries", "Number of routing table entries")
	m.eventLogSize = m.gauge("event_log_size", "Events held in the recent event log")

	m.queueSize = m.gauge("queue_size", "Inbound datagrams waiting for a handler")
	m.queueCapacity = m.gauge("queue_capacity", "Inbound queue capacity")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Datagrams rejected by a full or closed queue")
	m.workerCount = m.gauge("worker_count", "Number of datagram handler workers")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Worker time per datagram including dequeue", m.histogramBuckets)

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component and type", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "HTTP errors by endpoint", "endpoint", "method", "error_type")
	m.errorLatency = m.histogramVec("error_latency_milliseconds", "Latency of operations that failed", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordDatagramReceived increments the inbound datagram counter.
func RecordDatagramReceived() {
	globalManager.datagramsReceived.Inc()
}

// RecordEvent counts a router event by its outcome label.
func RecordEvent(outcome string) {
	globalManager.eventsByOutcome.WithLabelValues(outcome).Inc()
}

// RecordRoutingError counts a dropped datagram by error kind.
func RecordRoutingError(kind string) {
	globalManager.routingErrors.WithLabelValues(kind).Inc()
	globalManager.errorRateByComponent.WithLabelValues("router", kind).Inc()
}

// RecordHandleLatency records end to end handling latency in milliseconds.
func RecordHandleLatency(latencyMs float64) {
	globalManager.handleLatency.Observe(latencyMs)
}

// RecordSend records a completed outbound write.
func RecordSend(bytes int, latencyMs float64) {
	globalManager.bytesSent.Add(float64(bytes))
	globalManager.sendLatency.Observe(latencyMs)
}

// RecordPairCompleted increments the completed pair counter.
func RecordPairCompleted() {
	globalManager.pairsCompleted.Inc()
}

// RecordPartOverwritten counts a pending part replaced by a newer one.
func RecordPartOverwritten(part string) {
	globalManager.partsOverwritten.WithLabelValues(part).Inc()
}

// UpdatePendingCorrelations sets the number of stations holding a half pair.
func UpdatePendingCorrelations(count int) {
	globalManager.pendingCorrelation.Set(float64(count))
}

// UpdateRunning sets the listener state gauge.
func UpdateRunning(running bool) {
	v := 0.0
	if running {
		v = 1
	}
	globalManager.running.Set(v)
}

// UpdateCachedClients sets the number of cached outbound clients.
func UpdateCachedClients(count int) {
	globalManager.cachedClients.Set(float64(count))
}

// UpdateRoutingEntries sets the routing table size.
func UpdateRoutingEntries(count int) {
	globalManager.routingEntries.Set(float64(count))
}

// UpdateEventLogSize sets the number of events held in the log.
func UpdateEventLogSize(count int) {
	globalManager.eventLogSize.Set(float64(count))
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the maximum queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerCount sets the current worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records worker processing latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

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

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
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
