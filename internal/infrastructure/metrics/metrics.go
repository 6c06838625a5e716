package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the collector service
type Metrics struct {
	// Run metrics
	RunsTotal    prometheus.Counter
	RunErrors    prometheus.Counter
	RunDuration  prometheus.Histogram
	RunCollected prometheus.Histogram

	// Channel metrics
	ChannelErrors prometheus.Counter

	// Post metrics
	PostsProcessed prometheus.Counter
	PostsCollected prometheus.Counter
	PostsDropped   prometheus.Counter
	Duplicates     prometheus.Counter
	Forwards       prometheus.Counter

	// Image metrics
	ImagesStored         prometheus.Counter
	ImageErrors          prometheus.Counter
	ImageOriginalBytes   prometheus.Counter
	ImageCompressedBytes prometheus.Counter
}

var (
	// DefaultMetrics is the default metrics instance
	DefaultMetrics *Metrics
	once           sync.Once
)

// GetDefaultMetrics returns the singleton metrics instance
func GetDefaultMetrics() *Metrics {
	once.Do(func() {
		DefaultMetrics = NewMetrics()
	})
	return DefaultMetrics
}

// NewMetrics creates a new Metrics instance with all counters and gauges
func NewMetrics() *Metrics {
	return &Metrics{
		RunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_runs_total",
			Help: "Total number of collection runs",
		}),
		RunErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_run_errors_total",
			Help: "Total number of collection runs aborted before any channel was processed",
		}),
		RunDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "collector_run_duration_seconds",
			Help:    "Duration of collection runs",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		RunCollected: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "collector_run_collected_posts",
			Help:    "Number of posts collected per run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		ChannelErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_channel_errors_total",
			Help: "Total number of channel passes that aborted",
		}),
		PostsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_posts_processed_total",
			Help: "Total number of posts seen by the pipeline",
		}),
		PostsCollected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_posts_collected_total",
			Help: "Total number of posts persisted",
		}),
		PostsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_posts_dropped_total",
			Help: "Total number of posts dropped by filtering rules",
		}),
		Duplicates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_duplicates_total",
			Help: "Total number of posts recorded as text duplicates",
		}),
		Forwards: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_forwards_total",
			Help: "Total number of forwarded posts recorded",
		}),
		ImagesStored: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_images_stored_total",
			Help: "Total number of images downloaded and stored",
		}),
		ImageErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_image_errors_total",
			Help: "Total number of photo download or processing failures",
		}),
		ImageOriginalBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_image_original_bytes_total",
			Help: "Total raw bytes downloaded for images",
		}),
		ImageCompressedBytes: promauto.NewCounter(prometheus.CounterOpts{
			Name: "collector_image_compressed_bytes_total",
			Help: "Total bytes written for compressed images",
		}),
	}
}

// RecordRun records a completed collection run
func (m *Metrics) RecordRun(collected int, durationSeconds float64) {
	m.RunsTotal.Inc()
	m.RunDuration.Observe(durationSeconds)
	m.RunCollected.Observe(float64(collected))
}

// RecordRunError records a run that failed before processing channels
func (m *Metrics) RecordRunError() {
	m.RunErrors.Inc()
}

// RecordChannelError records an aborted channel pass
func (m *Metrics) RecordChannelError() {
	m.ChannelErrors.Inc()
}

// RecordPostProcessed records a post seen by the pipeline
func (m *Metrics) RecordPostProcessed() {
	m.PostsProcessed.Inc()
}

// RecordPostCollected records a persisted post
func (m *Metrics) RecordPostCollected() {
	m.PostsCollected.Inc()
}

// RecordPostDropped records a post dropped by filtering
func (m *Metrics) RecordPostDropped() {
	m.PostsDropped.Inc()
}

// RecordDuplicate records a detected text duplicate
func (m *Metrics) RecordDuplicate() {
	m.Duplicates.Inc()
}

// RecordForward records a forwarded post
func (m *Metrics) RecordForward() {
	m.Forwards.Inc()
}

// RecordImageStored records a stored image and its byte sizes
func (m *Metrics) RecordImageStored(originalSize, compressedSize int64) {
	m.ImagesStored.Inc()
	m.ImageOriginalBytes.Add(float64(originalSize))
	m.ImageCompressedBytes.Add(float64(compressedSize))
}

// RecordImageError records a photo-level failure
func (m *Metrics) RecordImageError() {
	m.ImageErrors.Inc()
}
