// Package metrics provides Prometheus metrics for the gigradar pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the gigradar service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Run lifecycle
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	runQueueDepth prometheus.Gauge
	runActive     prometheus.Gauge

	// Batches and providers
	batchesTotal          *prometheus.CounterVec
	providerRequests      *prometheus.CounterVec
	providerLatency       *prometheus.HistogramVec
	eventsFetched         *prometheus.CounterVec
	circuitBreakerState   *prometheus.GaugeVec
	cooldownWaitsTotal    prometheus.Counter
	callbackErrorsTotal   prometheus.Counter
	dateParseFailureTotal prometheus.Counter

	// Matching
	matchesTotal    prometheus.Counter
	matchingLatency prometheus.Histogram

	// Duplicate resolution
	entriesTotal       *prometheus.CounterVec
	duplicatesDeleted  prometheus.Counter
	deletionErrors     prometheus.Counter
	scheduledEntries   prometheus.Gauge
	notificationErrors *prometheus.CounterVec

	// HTTP surface
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "gigradar",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.customLabels)

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("runs_total"),
		Help:        "Total number of pipeline runs by kind and terminal state",
		ConstLabels: constLabels,
	}, []string{"kind", "state"})

	m.runDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_duration_seconds"),
		Help:        "Wall-clock duration of pipeline runs, cooldowns included",
		Buckets:     []float64{1, 5, 30, 60, 120, 300, 600, 1200, 2400},
		ConstLabels: constLabels,
	}, []string{"kind"})

	m.runQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_queue_depth"),
		Help:        "Number of run triggers waiting behind the active run",
		ConstLabels: constLabels,
	})

	m.runActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("run_active"),
		Help:        "1 while a run is executing",
		ConstLabels: constLabels,
	})

	m.batchesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batches_total"),
		Help:        "Total number of artist batches fetched per source",
		ConstLabels: constLabels,
	}, []string{"source"})

	m.providerRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("provider_requests_total"),
		Help:        "Total number of event provider requests by outcome",
		ConstLabels: constLabels,
	}, []string{"source", "outcome"})

	m.providerLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("provider_latency_milliseconds"),
		Help:        "Event provider request latency in milliseconds",
		Buckets:     []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		ConstLabels: constLabels,
	}, []string{"source"})

	m.eventsFetched = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("events_fetched_total"),
		Help:        "Total number of catalog events returned by providers",
		ConstLabels: constLabels,
	}, []string{"source"})

	m.circuitBreakerState = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("circuit_breaker_state"),
		Help:        "Provider circuit breaker state (0=closed, 1=half-open, 2=open)",
		ConstLabels: constLabels,
	}, []string{"source"})

	m.cooldownWaitsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("cooldown_waits_total"),
		Help:        "Total number of inter-batch cooldowns observed",
		ConstLabels: constLabels,
	})

	m.callbackErrorsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("batch_callback_errors_total"),
		Help:        "Total number of failed per-batch callbacks",
		ConstLabels: constLabels,
	})

	m.dateParseFailureTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("date_parse_failures_total"),
		Help:        "Total number of catalog events dropped for an unparseable date",
		ConstLabels: constLabels,
	})

	m.matchesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matches_total"),
		Help:        "Total number of listener/event matches produced",
		ConstLabels: constLabels,
	})

	m.matchingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("matching_latency_milliseconds"),
		Help:        "Time spent matching an event set against listener profiles",
		Buckets:     m.histogramBuckets,
		ConstLabels: constLabels,
	})

	m.entriesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("entries_total"),
		Help:        "Calendar entry create decisions by outcome",
		ConstLabels: constLabels,
	}, []string{"outcome"})

	m.duplicatesDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("duplicates_deleted_total"),
		Help:        "Total number of duplicate scheduled entries removed",
		ConstLabels: constLabels,
	})

	m.deletionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("deletion_errors_total"),
		Help:        "Total number of duplicate entries the store failed to remove",
		ConstLabels: constLabels,
	})

	m.scheduledEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("scheduled_entries"),
		Help:        "Number of entries seen in the calendar store at the last scan",
		ConstLabels: constLabels,
	})

	m.notificationErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        m.name("notification_errors_total"),
		Help:        "Total number of notification sink failures",
		ConstLabels: constLabels,
	}, []string{"sink"})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_requests_total"),
			Help:        "Total number of HTTP requests by endpoint and method",
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   m.namespace,
			Subsystem:   m.subsystem,
			Name:        m.name("http_request_duration_milliseconds"),
			Help:        "HTTP request duration in milliseconds",
			Buckets:     m.histogramBuckets,
			ConstLabels: constLabels,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Run lifecycle.

// RecordRun counts a finished run.
func RecordRun(kind, state string, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.runsTotal.WithLabelValues(kind, state).Inc()
	globalManager.runDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// UpdateRunQueueDepth sets the number of pending run triggers.
func UpdateRunQueueDepth(depth int) {
	globalManager.runQueueDepth.Set(float64(depth))
}

// SetRunActive flags whether a run is executing.
func SetRunActive(active bool) {
	if active {
		globalManager.runActive.Set(1)
		return
	}
	globalManager.runActive.Set(0)
}

// Batches and providers.

// RecordBatch counts a completed artist batch for a source.
func RecordBatch(source string) {
	globalManager.batchesTotal.WithLabelValues(source).Inc()
}

// RecordProviderRequest records one provider call with its outcome and latency.
func RecordProviderRequest(source, outcome string, latency time.Duration) {
	globalManager.providerRequests.WithLabelValues(source, outcome).Inc()
	globalManager.providerLatency.WithLabelValues(source).Observe(float64(latency.Milliseconds()))
}

// RecordEventsFetched adds n fetched catalog events for a source.
func RecordEventsFetched(source string, n int) {
	globalManager.eventsFetched.WithLabelValues(source).Add(float64(n))
}

// UpdateCircuitBreakerState sets the breaker state gauge for a source.
func UpdateCircuitBreakerState(source string, state float64) {
	globalManager.circuitBreakerState.WithLabelValues(source).Set(state)
}

// RecordCooldown counts an inter-batch cooldown.
func RecordCooldown() {
	globalManager.cooldownWaitsTotal.Inc()
}

// RecordCallbackError counts a failed batch callback.
func RecordCallbackError() {
	globalManager.callbackErrorsTotal.Inc()
}

// RecordDateParseFailure counts an event dropped for its date.
func RecordDateParseFailure() {
	globalManager.dateParseFailureTotal.Inc()
}

// Matching.

// RecordMatches adds n produced matches.
func RecordMatches(n int) {
	globalManager.matchesTotal.Add(float64(n))
}

// RecordMatchingLatency records matching latency.
func RecordMatchingLatency(d time.Duration) {
	globalManager.matchingLatency.Observe(float64(d.Milliseconds()))
}

// Duplicate resolution.

// RecordEntry counts one create decision.
func RecordEntry(outcome string) {
	globalManager.entriesTotal.WithLabelValues(outcome).Inc()
}

// RecordDuplicatesDeleted adds n removed duplicates.
func RecordDuplicatesDeleted(n int) {
	globalManager.duplicatesDeleted.Add(float64(n))
}

// RecordDeletionError counts a failed duplicate removal.
func RecordDeletionError() {
	globalManager.deletionErrors.Inc()
}

// UpdateScheduledEntries sets the size of the last calendar scan.
func UpdateScheduledEntries(n int) {
	globalManager.scheduledEntries.Set(float64(n))
}

// RecordNotificationError counts a failed notification for a sink.
func RecordNotificationError(sink string) {
	globalManager.notificationErrors.WithLabelValues(sink).Inc()
}

// HTTP surface.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
