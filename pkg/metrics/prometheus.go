// Package metrics provides Prometheus metrics for the tally prediction pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tally service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Source Metrics - Per-source scrape health and yield
	predictionsCollected *prometheus.CounterVec
	sourceFetchErrors    *prometheus.CounterVec
	sourceFetchDuration  *prometheus.HistogramVec

	// Results Metrics - Official results client
	resultsFetched       prometheus.Counter
	resultsFetchErrors   prometheus.Counter
	resultsFetchDuration prometheus.Histogram

	// Matching Metrics - Fuzzy pairing quality
	matchAttempts      prometheus.Counter
	matchesAccepted    prometheus.Counter
	matchCombinedScore prometheus.Histogram

	// Scoring Metrics - Verdict production
	verdicts        *prometheus.CounterVec
	scoringDuration prometheus.Histogram

	// Leaderboard Metrics - Rebuild timings and scale
	leaderboardRebuilds        prometheus.Counter
	leaderboardRebuildDuration prometheus.Histogram
	leaderboardSources         prometheus.Gauge
	ledgerRows                 prometheus.Gauge

	// Pipeline Metrics - Run outcomes and step timings
	pipelineRuns         *prometheus.CounterVec
	pipelineStepDuration *prometheus.HistogramVec
	pipelineLastRunUnix  prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error Metrics - Component-level tracking
	errorsByComponent *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// similarityBuckets covers the 0-100 combined match score range.
var similarityBuckets = []float64{0, 10, 20, 30, 40, 50, 60, 70, 75, 80, 85, 90, 95, 100} //nolint:gochecknoglobals // static bucket layout

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tally",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Source Metrics - Yield and health per prediction source
	m.predictionsCollected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "predictions_collected_total",
			Help:      "Total number of predictions collected, by source",
		},
		[]string{"source"},
	)

	m.sourceFetchErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_fetch_errors_total",
			Help:      "Total number of failed source fetches, by source",
		},
		[]string{"source"},
	)

	m.sourceFetchDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "source_fetch_duration_milliseconds",
			Help:      "Source fetch duration in milliseconds, by source",
			Buckets:   m.histogramBuckets,
		},
		[]string{"source"},
	)

	// Results Metrics - Official results client health
	m.resultsFetched = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_fetched_total",
		Help:      "Total number of finished match results fetched",
	})

	m.resultsFetchErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_fetch_errors_total",
		Help:      "Total number of failed results fetches",
	})

	m.resultsFetchDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "results_fetch_duration_milliseconds",
		Help:      "Results fetch duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Matching Metrics - How well fuzzy pairing is doing
	m.matchAttempts = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_attempts_total",
		Help:      "Total number of prediction-to-result match attempts",
	})

	m.matchesAccepted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "matches_accepted_total",
		Help:      "Total number of match attempts that cleared the similarity threshold",
	})

	m.matchCombinedScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "match_combined_score",
		Help:      "Histogram of best combined similarity scores per match attempt (0-100)",
		Buckets:   similarityBuckets,
	})

	// Scoring Metrics - Verdict production
	m.verdicts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "verdicts_total",
			Help:      "Total number of verdicts produced, by source and status",
		},
		[]string{"source", "status"},
	)

	m.scoringDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "scoring_duration_milliseconds",
		Help:      "Duration of a full scoring pass in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Leaderboard Metrics - Rebuild timings and scale
	m.leaderboardRebuilds = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_rebuilds_total",
		Help:      "Total number of leaderboard rebuilds from ledger history",
	})

	m.leaderboardRebuildDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_rebuild_duration_milliseconds",
		Help:      "Leaderboard rebuild duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.leaderboardSources = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "leaderboard_sources",
		Help:      "Number of sources on the current leaderboard",
	})

	m.ledgerRows = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_rows",
		Help:      "Number of rows in the verdict ledger",
	})

	// Pipeline Metrics - Run outcomes and per-step timings
	m.pipelineRuns = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "runs_total",
			Help:      "Total number of pipeline runs, by mode and final status",
		},
		[]string{"mode", "status"},
	)

	m.pipelineStepDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "step_duration_milliseconds",
			Help:      "Pipeline step duration in milliseconds, by step",
			Buckets:   m.histogramBuckets,
		},
		[]string{"step"},
	)

	m.pipelineLastRunUnix = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "last_run_unix",
		Help:      "Unix timestamp of the last completed pipeline run",
	})

	// HTTP Performance Metrics - User experience indicators
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

	// Error Metrics - Component-level tracking
	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component",
		},
		[]string{"component", "error_type"},
	)

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Source Metrics Functions.

// RecordPredictionsCollected adds to a source's collected prediction count.
func RecordPredictionsCollected(source string, count int) {
	globalManager.predictionsCollected.WithLabelValues(source).Add(float64(count))
}

// RecordSourceFetchError increments a source's fetch error counter.
func RecordSourceFetchError(source string) {
	globalManager.sourceFetchErrors.WithLabelValues(source).Inc()
}

// RecordSourceFetchDuration records a source fetch duration in milliseconds.
func RecordSourceFetchDuration(source string, durationMs float64) {
	globalManager.sourceFetchDuration.WithLabelValues(source).Observe(durationMs)
}

// Results Metrics Functions.

// RecordResultsFetched adds to the fetched results counter.
func RecordResultsFetched(count int) {
	globalManager.resultsFetched.Add(float64(count))
}

// RecordResultsFetchError increments the results fetch error counter.
func RecordResultsFetchError() {
	globalManager.resultsFetchErrors.Inc()
}

// RecordResultsFetchDuration records a results fetch duration in milliseconds.
func RecordResultsFetchDuration(durationMs float64) {
	globalManager.resultsFetchDuration.Observe(durationMs)
}

// Matching Metrics Functions.

// RecordMatchAttempt increments the match attempts counter.
func RecordMatchAttempt() {
	globalManager.matchAttempts.Inc()
}

// RecordMatchAccepted increments the accepted matches counter.
func RecordMatchAccepted() {
	globalManager.matchesAccepted.Inc()
}

// RecordMatchCombinedScore records the best combined similarity score of an attempt.
func RecordMatchCombinedScore(score float64) {
	globalManager.matchCombinedScore.Observe(score)
}

// Scoring Metrics Functions.

// RecordVerdict increments the verdict counter for a source and status.
func RecordVerdict(source, status string) {
	globalManager.verdicts.WithLabelValues(source, status).Inc()
}

// RecordScoringDuration records the duration of a scoring pass.
func RecordScoringDuration(durationMs float64) {
	globalManager.scoringDuration.Observe(durationMs)
}

// Leaderboard Metrics Functions.

// RecordLeaderboardRebuild increments the rebuild counter.
func RecordLeaderboardRebuild() {
	globalManager.leaderboardRebuilds.Inc()
}

// RecordLeaderboardRebuildDuration records a rebuild duration in milliseconds.
func RecordLeaderboardRebuildDuration(durationMs float64) {
	globalManager.leaderboardRebuildDuration.Observe(durationMs)
}

// UpdateLeaderboardSources sets the number of sources on the leaderboard.
func UpdateLeaderboardSources(count int) {
	globalManager.leaderboardSources.Set(float64(count))
}

// UpdateLedgerRows sets the current ledger row count.
func UpdateLedgerRows(count int) {
	globalManager.ledgerRows.Set(float64(count))
}

// Pipeline Metrics Functions.

// RecordPipelineRun increments the run counter for a mode and final status.
func RecordPipelineRun(mode, status string) {
	globalManager.pipelineRuns.WithLabelValues(mode, status).Inc()
}

// RecordPipelineStepDuration records a single step's duration in milliseconds.
func RecordPipelineStepDuration(step string, durationMs float64) {
	globalManager.pipelineStepDuration.WithLabelValues(step).Observe(durationMs)
}

// UpdatePipelineLastRun sets the timestamp of the last completed run.
func UpdatePipelineLastRun(ts time.Time) {
	globalManager.pipelineLastRunUnix.Set(float64(ts.Unix()))
}

// HTTP Metrics Functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error Metrics Functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System Performance Metrics Functions.

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
