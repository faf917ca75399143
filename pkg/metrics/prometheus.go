// Package metrics provides Prometheus metrics for the matchday scoreboard service.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the matchday service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          atomic.Bool
	refreshInterval  atomic.Int64 // nanoseconds
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Match metrics
	mutations        *prometheus.CounterVec
	phaseTransitions *prometheus.CounterVec
	clockTicks       prometheus.Counter
	clockRunning     prometheus.Gauge
	elapsedSeconds   prometheus.Gauge
	ledgerEvents     *prometheus.CounterVec
	subscriberCount  prometheus.Gauge

	// Snapshot persistence
	snapshotWrites       prometheus.Counter
	snapshotErrors       prometheus.Counter
	snapshotDropped      prometheus.Counter
	snapshotCoalesced    prometheus.Counter
	snapshotQueueSize    prometheus.Gauge
	snapshotWriteLatency prometheus.Histogram
	snapshotLoads        *prometheus.CounterVec

	// Live feed
	liveConnections prometheus.Gauge
	liveBroadcasts  prometheus.Counter
	liveDropped     prometheus.Counter

	// Admin gate
	loginAttempts *prometheus.CounterVec
	duplicateKeys prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByType      *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec
	errorLatency         *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "matchday",
		subsystem:        "scoreboard",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}
	m.enabled.Store(true)
	m.refreshInterval.Store(int64(defaultRefreshInterval))

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	if m.metricPrefix == "" {
		return n
	}
	return m.metricPrefix + "_" + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.mutations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("mutations_total"),
		Help: "Match state operations by operation and result (applied, rejected)",
	}, []string{"operation", "result"})

	m.phaseTransitions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("phase_transitions_total"),
		Help: "Match phase transitions",
	}, []string{"from", "to"})

	m.clockTicks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("clock_ticks_total"),
		Help: "Clock ticks applied to the match",
	})

	m.clockRunning = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("clock_running"),
		Help: "1 while the match clock ticker is armed",
	})

	m.elapsedSeconds = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("match_elapsed_seconds"),
		Help: "Elapsed match time in seconds",
	})

	m.ledgerEvents = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("ledger_events_total"),
		Help: "Goals and cards recorded, by kind",
	}, []string{"kind"})

	m.subscriberCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("subscribers"),
		Help: "Subscribers attached to the match state store",
	})

	m.snapshotWrites = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("snapshot_writes_total"),
		Help: "Snapshots written to storage",
	})

	m.snapshotErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("snapshot_errors_total"),
		Help: "Snapshot writes that failed",
	})

	m.snapshotDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("snapshot_dropped_total"),
		Help: "Snapshots dropped because the write queue was full or closed",
	})

	m.snapshotCoalesced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("snapshot_coalesced_total"),
		Help: "Snapshots skipped because a newer one was already pending",
	})

	m.snapshotQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("snapshot_queue_size"),
		Help: "Snapshots waiting to be written",
	})

	m.snapshotWriteLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("snapshot_write_latency_milliseconds"),
		Help:    "Snapshot write latency in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.snapshotLoads = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("snapshot_loads_total"),
		Help: "Snapshot loads at startup by result (restored, missing, corrupt)",
	}, []string{"result"})

	m.liveConnections = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("live_connections"),
		Help: "Open spectator WebSocket connections",
	})

	m.liveBroadcasts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("live_broadcasts_total"),
		Help: "Board updates fanned out to spectators",
	})

	m.liveDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("live_dropped_total"),
		Help: "Board updates dropped because a buffer was full",
	})

	m.loginAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("login_attempts_total"),
		Help: "Admin login attempts by result",
	}, []string{"result"})

	m.duplicateKeys = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("idempotency_duplicates_total"),
		Help: "Requests ignored because their Idempotency-Key was already seen",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("http_requests_total"),
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("errors_by_component_total"),
		Help: "Errors by component and type",
	}, []string{"component", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("errors_by_type_total"),
		Help: "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("errors_by_endpoint_total"),
		Help: "HTTP errors by endpoint",
	}, []string{"endpoint", "method", "error_type"})

	m.errorLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("error_latency_milliseconds"),
		Help:    "Latency of failed operations in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"component", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_memory_bytes"),
		Help: "Allocated heap memory in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_goroutines"),
		Help: "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("system_gc_pause_time_milliseconds"),
		Help:    "GC pause time in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

func enabled() bool { return globalManager.Enabled() }

// Match metrics.

// RecordMutation counts a store operation and whether it was applied.
func RecordMutation(operation string, applied bool) {
	if !enabled() {
		return
	}
	result := "applied"
	if !applied {
		result = "rejected"
	}
	globalManager.mutations.WithLabelValues(operation, result).Inc()
}

// RecordPhaseTransition counts a phase change.
func RecordPhaseTransition(from, to string) {
	if !enabled() {
		return
	}
	globalManager.phaseTransitions.WithLabelValues(from, to).Inc()
}

// RecordClockTick counts an applied tick.
func RecordClockTick() {
	if !enabled() {
		return
	}
	globalManager.clockTicks.Inc()
}

// UpdateClockRunning reports whether the ticker is armed.
func UpdateClockRunning(running bool) {
	if !enabled() {
		return
	}
	if running {
		globalManager.clockRunning.Set(1)
		return
	}
	globalManager.clockRunning.Set(0)
}

// UpdateElapsedSeconds sets the elapsed match time.
func UpdateElapsedSeconds(seconds int) {
	if !enabled() {
		return
	}
	globalManager.elapsedSeconds.Set(float64(seconds))
}

// RecordLedgerEvent counts a recorded goal or card.
func RecordLedgerEvent(kind string) {
	if !enabled() {
		return
	}
	globalManager.ledgerEvents.WithLabelValues(kind).Inc()
}

// UpdateSubscriberCount sets the number of store subscribers.
func UpdateSubscriberCount(count int) {
	if !enabled() {
		return
	}
	globalManager.subscriberCount.Set(float64(count))
}

// Snapshot metrics.

// RecordSnapshotWrite counts a successful write and its latency.
func RecordSnapshotWrite(latencyMs float64) {
	if !enabled() {
		return
	}
	globalManager.snapshotWrites.Inc()
	globalManager.snapshotWriteLatency.Observe(latencyMs)
}

// RecordSnapshotError counts a failed write.
func RecordSnapshotError() {
	if !enabled() {
		return
	}
	globalManager.snapshotErrors.Inc()
}

// RecordSnapshotDropped counts a snapshot the queue refused.
func RecordSnapshotDropped() {
	if !enabled() {
		return
	}
	globalManager.snapshotDropped.Inc()
}

// RecordSnapshotCoalesced counts snapshots superseded before being written.
func RecordSnapshotCoalesced(n int) {
	if !enabled() {
		return
	}
	globalManager.snapshotCoalesced.Add(float64(n))
}

// UpdateSnapshotQueueSize sets the number of pending snapshots.
func UpdateSnapshotQueueSize(size int) {
	if !enabled() {
		return
	}
	globalManager.snapshotQueueSize.Set(float64(size))
}

// RecordSnapshotLoad counts the startup load outcome.
func RecordSnapshotLoad(result string) {
	if !enabled() {
		return
	}
	globalManager.snapshotLoads.WithLabelValues(result).Inc()
}

// Live feed metrics.

// UpdateLiveConnections sets the number of spectator connections.
func UpdateLiveConnections(count int) {
	if !enabled() {
		return
	}
	globalManager.liveConnections.Set(float64(count))
}

// RecordLiveBroadcast counts a board fan-out.
func RecordLiveBroadcast() {
	if !enabled() {
		return
	}
	globalManager.liveBroadcasts.Inc()
}

// RecordLiveDropped counts a dropped board update.
func RecordLiveDropped() {
	if !enabled() {
		return
	}
	globalManager.liveDropped.Inc()
}

// Admin gate metrics.

// RecordLoginAttempt counts a login by result.
func RecordLoginAttempt(success bool) {
	if !enabled() {
		return
	}
	if success {
		globalManager.loginAttempts.WithLabelValues("success").Inc()
		return
	}
	globalManager.loginAttempts.WithLabelValues("failure").Inc()
}

// RecordDuplicateRequest counts a replayed Idempotency-Key.
func RecordDuplicateRequest() {
	if !enabled() {
		return
	}
	globalManager.duplicateKeys.Inc()
}

// HTTP metrics.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !enabled() {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !enabled() {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics.

// RecordErrorByComponent records an error for a component.
func RecordErrorByComponent(component, errorType string) {
	if !enabled() {
		return
	}
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error by type and severity.
func RecordErrorByType(errorType, severity string) {
	if !enabled() {
		return
	}
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an HTTP error for an endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !enabled() {
		return
	}
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records how long a failed operation took.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	if !enabled() {
		return
	}
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics.

// UpdateSystemMemoryUsage sets allocated memory.
func UpdateSystemMemoryUsage(bytes uint64) {
	if !enabled() {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(count int) {
	if !enabled() {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records an average GC pause.
func RecordSystemGCPauseTime(pauseMs float64) {
	if !enabled() {
		return
	}
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Enabled reports whether the manager records observations.
func (m *Manager) Enabled() bool {
	return m.enabled.Load()
}

// RefreshInterval is how often polled gauges should be refreshed.
func (m *Manager) RefreshInterval() time.Duration {
	return time.Duration(m.refreshInterval.Load())
}

// Configure applies runtime options to the global manager. Naming and
// registry options only take effect when a manager is created.
func Configure(opts ...Option) {
	for _, opt := range opts {
		opt(globalManager)
	}
}

// RefreshInterval returns the global manager's gauge refresh interval.
func RefreshInterval() time.Duration {
	return globalManager.RefreshInterval()
}

// GetRegistry returns the registry backing the package-level helpers.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
