package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the converter.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Conversion outcomes
	filesConverted   prometheus.Counter
	filesFailed      *prometheus.CounterVec
	filesDuplicate   prometheus.Counter
	eventsConverted  prometheus.Counter
	conversionTiming prometheus.Histogram

	// Truncation, per species
	particlesTruncated *prometheus.CounterVec
	eventsTruncated    *prometheus.CounterVec

	// Pipeline state
	queueSize         prometheus.Gauge
	queueCapacity     prometheus.Gauge
	workerActiveCount prometheus.Gauge

	// Status server
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "root2hdf5",
		subsystem:        "converter",
		histogramBuckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000, 120000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.filesConverted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_converted_total",
		Help:      "Total number of input files written as HDF5",
	})

	m.filesFailed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "files_failed_total",
			Help:      "Total number of input files that failed, by stage",
		},
		[]string{"stage"},
	)

	m.filesDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "files_duplicate_total",
		Help:      "Total number of input files skipped because their output id was already claimed",
	})

	m.eventsConverted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_converted_total",
		Help:      "Total number of events written",
	})

	m.conversionTiming = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "file_conversion_duration_milliseconds",
		Help:      "Histogram of per-file conversion time in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.particlesTruncated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "particles_truncated_total",
			Help:      "Total number of particles dropped beyond capacity, by species",
		},
		[]string{"species"},
	)

	m.eventsTruncated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_truncated_total",
			Help:      "Total number of events with at least one dropped particle, by species",
		},
		[]string{"species"},
	)

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_size",
		Help:      "Current number of files waiting for a worker",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "queue_capacity",
		Help:      "Capacity of the file queue",
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of workers currently converting a file",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of status server requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "Status server request duration in milliseconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordFileConverted counts a written file and its events.
func (m *Manager) RecordFileConverted(events int, d time.Duration) {
	m.filesConverted.Inc()
	m.eventsConverted.Add(float64(events))
	m.conversionTiming.Observe(float64(d.Microseconds()) / 1000)
}

// RecordFileFailed counts a failed file under its stage.
func (m *Manager) RecordFileFailed(stage string) {
	m.filesFailed.WithLabelValues(stage).Inc()
}

// RecordFileDuplicate counts a file skipped for an already-claimed output id.
func (m *Manager) RecordFileDuplicate() {
	m.filesDuplicate.Inc()
}

// RecordTruncation adds truncation statistics for a species.
func (m *Manager) RecordTruncation(species string, events, particles int) {
	if events == 0 && particles == 0 {
		return
	}
	m.eventsTruncated.WithLabelValues(species).Add(float64(events))
	m.particlesTruncated.WithLabelValues(species).Add(float64(particles))
}

// Global helpers, backed by the custom registry.

// RecordFileConverted counts a written file and its events.
func RecordFileConverted(events int, d time.Duration) {
	globalManager.RecordFileConverted(events, d)
}

// RecordFileFailed counts a failed file under its stage.
func RecordFileFailed(stage string) {
	globalManager.RecordFileFailed(stage)
}

// RecordFileDuplicate counts a duplicate output id.
func RecordFileDuplicate() {
	globalManager.RecordFileDuplicate()
}

// RecordTruncation adds truncation statistics for a species.
func RecordTruncation(species string, events, particles int) {
	globalManager.RecordTruncation(species, events, particles)
}

// UpdateQueueSize sets the current queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateWorkerActiveCount sets the number of busy workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

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

// WriteTextfile dumps the custom registry in the node_exporter textfile format.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, customRegistry); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrTextfileWrite, path, err)
	}
	return nil
}
