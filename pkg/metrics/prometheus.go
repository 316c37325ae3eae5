// Package metrics provides Prometheus metrics for the StepFlow engine service.
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

// Manager manages all Prometheus metrics for the StepFlow service.
type Manager struct {
	namespace       string
	subsystem       string
	latencyBuckets  []float64
	enabled         bool
	refreshInterval time.Duration
	registry        prometheus.Registerer

	// Prediction pipeline metrics
	predictionsTotal prometheus.Counter
	predictionErrors prometheus.Counter
	analysisLatency  prometheus.Histogram
	overallScore     prometheus.Histogram
	motionFrames     prometheus.Histogram
	beatsDetected    prometheus.Counter
	feedbackItems    *prometheus.CounterVec

	// HTTP performance metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
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
		namespace:       "stepflow",
		subsystem:       "engine",
		latencyBuckets:  prometheus.DefBuckets,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		registry:        prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.predictionsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predictions_total",
		Help:      "Total number of motions analyzed successfully",
	})

	m.predictionErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "prediction_errors_total",
		Help:      "Total number of motions rejected as structurally invalid",
	})

	m.analysisLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "analysis_latency_milliseconds",
		Help:      "Histogram of end-to-end analysis latency in milliseconds",
		Buckets:   m.latencyBuckets,
	})

	m.overallScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "overall_score",
		Help:      "Distribution of overall performance scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})

	m.motionFrames = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "motion_frames",
		Help:      "Distribution of frame counts per submitted motion",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
	})

	m.beatsDetected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "beats_detected_total",
		Help:      "Total number of movement beats detected across all motions",
	})

	m.feedbackItems = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "feedback_items_total",
		Help:      "Total feedback items emitted, by category and severity",
	}, []string{"category", "severity"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by endpoint, method, and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "Histogram of HTTP request duration in milliseconds",
		Buckets:   m.latencyBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_bytes",
		Help:      "Current heap memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})
}

// RecordPrediction records one successful analysis.
func RecordPrediction(latencyMS, overallScore float64, frames, beats int) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.predictionsTotal.Inc()
	globalManager.analysisLatency.Observe(latencyMS)
	globalManager.overallScore.Observe(overallScore)
	globalManager.motionFrames.Observe(float64(frames))
	globalManager.beatsDetected.Add(float64(beats))
}

// RecordPredictionError records a rejected motion.
func RecordPredictionError() {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.predictionErrors.Inc()
}

// RecordFeedbackItem records one emitted feedback item.
func RecordFeedbackItem(category, severity string) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.feedbackItems.WithLabelValues(category, severity).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records the duration of an HTTP request.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMS float64) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMS)
}

// UpdateSystemMemoryUsage updates the heap usage gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount updates the goroutine count gauge.
func UpdateSystemGoroutineCount(count int) {
	if globalManager == nil || !globalManager.enabled {
		return
	}
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom registry used by the global manager.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
