// Package metrics provides Prometheus metrics for the olyrank rating engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rating delta buckets in rating points; the hard loss cap sits at 200.
var deltaBuckets = []float64{1, 2, 5, 10, 20, 35, 50, 75, 100, 150, 200, 300} //nolint:gochecknoglobals // fixed bucket layout

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace      string
	subsystem      string
	metricPrefix   string
	latencyBuckets []float64
	constLabels    prometheus.Labels
	registry       prometheus.Registerer

	// Engine metrics
	tournamentsProcessed *prometheus.CounterVec
	rankingsSkipped      *prometheus.CounterVec
	ratingUpdates        *prometheus.CounterVec
	reclassifications    *prometheus.CounterVec
	cappedLosses         *prometheus.CounterVec
	noShowTeams          *prometheus.CounterVec
	droppedSquads        *prometheus.CounterVec
	fatalInputErrors     *prometheus.CounterVec
	ratingDelta          *prometheus.HistogramVec
	divisionRunDuration  *prometheus.HistogramVec
	nationalsLoss        *prometheus.GaugeVec
	storeRecords         *prometheus.GaugeVec

	// Loader and sink metrics
	filesLoaded  *prometheus.CounterVec
	sinkWrites   *prometheus.CounterVec
	sinkDuration *prometheus.HistogramVec

	// Queue metrics
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueueRate   prometheus.Counter
	queueDequeueRate   prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Worker metrics
	workerActiveCount       prometheus.Gauge
	workerBusyCount         prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrorRate         prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:      "olyrank",
		subsystem:      "ratings",
		latencyBuckets: prometheus.DefBuckets,
		registry:       prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// Configure replaces the package-level manager with one built from opts on a
// fresh registry, which GetRegistry then returns. Call it once at startup,
// before anything records.
func Configure(opts ...Option) {
	reg := prometheus.NewRegistry()
	globalManager = NewManager(append(append([]Option(nil), opts...), WithPrometheusRegistry(reg))...)
	customRegistry = reg
}

func (m *Manager) name(base string) string {
	if m.metricPrefix == "" {
		return base
	}
	return m.metricPrefix + "_" + base
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name(name),
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	})
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	m.tournamentsProcessed = m.counterVec("tournaments_processed_total", "Tournaments folded into the rating store", "division")
	m.rankingsSkipped = m.counterVec("rankings_skipped_total", "Rankings skipped before a rating update", "division", "reason")
	m.ratingUpdates = m.counterVec("rating_updates_total", "Rating records updated", "division", "scope")
	m.reclassifications = m.counterVec("reclassifications_total", "Primary squads relabeled as secondary", "division")
	m.cappedLosses = m.counterVec("capped_losses_total", "Rating deltas clamped by the maximum loss", "division")
	m.noShowTeams = m.counterVec("no_show_teams_total", "Registered teams with no recorded place", "division")
	m.droppedSquads = m.counterVec("dropped_squads_total", "Third and later squads of a school left unrated", "division")
	m.fatalInputErrors = m.counterVec("fatal_input_errors_total", "Division runs aborted by invalid input", "division")
	m.ratingDelta = m.histogramVec("rating_delta_points", "Absolute applied rating delta per update", deltaBuckets, "division")
	m.divisionRunDuration = m.histogramVec("division_run_duration_milliseconds", "Wall time of a full division recomputation", m.latencyBuckets, "division")
	m.nationalsLoss = m.gaugeVec("nationals_prediction_loss", "Weighted placement error of pre-tournament ratings at nationals", "division")
	m.storeRecords = m.gaugeVec("store_records", "Rating records held by the division store", "division")

	m.filesLoaded = m.counterVec("result_files_loaded_total", "Tournament result files parsed", "division")
	m.sinkWrites = m.counterVec("sink_writes_total", "Division outputs written per sink", "sink", "status")
	m.sinkDuration = m.histogramVec("sink_write_duration_milliseconds", "Sink write latency", m.latencyBuckets, "sink")

	m.queueSize = m.gauge("queue_size", "Current number of queued division jobs")
	m.queueCapacity = m.gauge("queue_capacity", "Maximum number of queued division jobs")
	m.queueEnqueueRate = m.counter("queue_enqueue_total", "Division jobs enqueued")
	m.queueDequeueRate = m.counter("queue_dequeue_total", "Division jobs dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Division jobs rejected by the queue")

	m.workerActiveCount = m.gauge("worker_active_count", "Workers in the pool")
	m.workerBusyCount = m.gauge("worker_busy_count", "Workers currently running a division")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Division job processing latency", m.latencyBuckets)
	m.workerErrorRate = m.counter("worker_errors_total", "Division jobs that ended with an error")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.latencyBuckets, "endpoint", "method", "status_code")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByType = m.counterVec("errors_by_type_total", "Errors by type and severity", "error_type", "severity")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by HTTP endpoint", "endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

// RecordTournamentProcessed counts one tournament folded into a division.
func RecordTournamentProcessed(division string) {
	globalManager.tournamentsProcessed.WithLabelValues(division).Inc()
}

// RecordRankingSkipped counts a ranking that produced no update.
func RecordRankingSkipped(division, reason string) {
	globalManager.rankingsSkipped.WithLabelValues(division, reason).Inc()
}

// RecordRatingUpdate counts one applied update and observes its magnitude.
// Scope is "overall" or "event".
func RecordRatingUpdate(division, scope string, absDelta float64) {
	globalManager.ratingUpdates.WithLabelValues(division, scope).Inc()
	globalManager.ratingDelta.WithLabelValues(division).Observe(absDelta)
}

// RecordReclassification counts one relabeled primary squad.
func RecordReclassification(division string) {
	globalManager.reclassifications.WithLabelValues(division).Inc()
}

// RecordCappedLoss counts one delta clamped to the maximum loss.
func RecordCappedLoss(division string) {
	globalManager.cappedLosses.WithLabelValues(division).Inc()
}

// RecordNoShows adds detected no-show teams.
func RecordNoShows(division string, count int) {
	globalManager.noShowTeams.WithLabelValues(division).Add(float64(count))
}

// RecordDroppedSquads adds squads beyond the second of a school.
func RecordDroppedSquads(division string, count int) {
	globalManager.droppedSquads.WithLabelValues(division).Add(float64(count))
}

// RecordFatalInputError counts an aborted division run.
func RecordFatalInputError(division string) {
	globalManager.fatalInputErrors.WithLabelValues(division).Inc()
}

// RecordDivisionRunDuration observes a division run in milliseconds.
func RecordDivisionRunDuration(division string, ms float64) {
	globalManager.divisionRunDuration.WithLabelValues(division).Observe(ms)
}

// UpdateNationalsLoss sets the accumulated nationals prediction loss.
func UpdateNationalsLoss(division string, loss float64) {
	globalManager.nationalsLoss.WithLabelValues(division).Set(loss)
}

// UpdateStoreRecords sets the number of rating records in a division store.
func UpdateStoreRecords(division string, count int) {
	globalManager.storeRecords.WithLabelValues(division).Set(float64(count))
}

// RecordFilesLoaded adds parsed result files.
func RecordFilesLoaded(division string, count int) {
	globalManager.filesLoaded.WithLabelValues(division).Add(float64(count))
}

// RecordSinkWrite counts a sink write and observes its latency.
func RecordSinkWrite(sink, status string, ms float64) {
	globalManager.sinkWrites.WithLabelValues(sink, status).Inc()
	globalManager.sinkDuration.WithLabelValues(sink).Observe(ms)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueueRate.Inc()
}

// RecordQueueDequeue counts a dequeued job.
func RecordQueueDequeue() {
	globalManager.queueDequeueRate.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// UpdateWorkerActiveCount sets the pool size.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// AddWorkerBusy moves the busy worker gauge by delta.
func AddWorkerBusy(delta int) {
	globalManager.workerBusyCount.Add(float64(delta))
}

// RecordWorkerProcessingLatency observes one job in milliseconds.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() {
	globalManager.workerErrorRate.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error by component.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error by HTTP endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime observes a GC pause in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom registry used by the service.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
