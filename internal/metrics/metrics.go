package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoview_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoview_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Preload cache metrics
var (
	PreloadCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoview_preload_cache_entries",
			Help: "Number of decoded rasters currently held by the preload cache",
		},
	)

	PreloadCacheCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoview_preload_cache_capacity",
			Help: "Maximum number of rasters the preload cache may hold at the current view size",
		},
	)

	PreloadCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoview_preload_cache_hits_total",
			Help: "Navigations served from the preload cache",
		},
	)

	PreloadCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoview_preload_cache_misses_total",
			Help: "Navigations that required an interactive decode",
		},
	)

	PreloadCacheEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_preload_cache_evictions_total",
			Help: "Entries evicted from the preload cache",
		},
		[]string{"side"}, // "behind", "ahead", "rejected"
	)

	PreloadCacheClears = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoview_preload_cache_clears_total",
			Help: "Times the preload cache was cleared because the view size changed",
		},
	)

	PreloadRequestsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoview_preload_requests_total",
			Help: "Background decode requests issued by the fill policy",
		},
	)
)

// Decode metrics
var (
	DecodeRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_decode_requests_total",
			Help: "Decode requests submitted",
		},
		[]string{"priority"},
	)

	DecodeResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_decode_results_total",
			Help: "Decode results delivered by status",
		},
		[]string{"priority", "status"}, // status: success, error, canceled
	)

	DecodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoview_decode_duration_seconds",
			Help:    "Time spent decoding and scaling one item",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"priority"},
	)

	DecodeQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photoview_decode_queue_depth",
			Help: "Decode requests waiting for a worker",
		},
		[]string{"priority"},
	)

	DecodeStaleResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_decode_stale_total",
			Help: "Decode results discarded because they no longer matched the view",
		},
		[]string{"reason"}, // "size", "angle", "item", "unknown"
	)

	DecodeBackpressureWaits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoview_decode_backpressure_waits_total",
			Help: "Background decodes delayed by memory pressure",
		},
	)
)

// Display metrics
var (
	FramesRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoview_frames_rendered_total",
			Help: "Frames cropped and scaled for the display surface",
		},
	)

	FrameRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photoview_frame_render_duration_seconds",
			Help:    "Time to crop, scale and filter one frame",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
	)

	ZoomRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_zoom_rejected_total",
			Help: "Zoom requests ignored",
		},
		[]string{"reason"}, // "ceiling", "empty"
	)

	ViewerBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoview_viewer_busy",
			Help: "Outstanding interactive decode requests",
		},
	)

	FullSizeLoads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoview_full_size_loads_total",
			Help: "Full resolution decodes requested to replace a preview",
		},
	)

	ContentUnavailable = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoview_content_unavailable_total",
			Help: "Times the current item could not be shown",
		},
	)

	SequenceLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoview_sequence_length",
			Help: "Number of items in the browsing sequence",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoview_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_filesystem_retry_attempts_total",
			Help: "Retries performed after NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_filesystem_retry_success_total",
			Help: "Operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_filesystem_retry_failures_total",
			Help: "Operations that failed after exhausting retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoview_filesystem_stale_errors_total",
			Help: "ESTALE errors observed",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoview_filesystem_retry_duration_seconds",
			Help:    "Total time spent in retrying filesystem operations",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoview_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoview_memory_paused",
			Help: "Whether background decoding is paused for memory (1 = paused)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoview_memory_gc_pauses_total",
			Help: "Times the memory monitor forced a pause and GC",
		},
	)
)

// Priority labels shared by the decode metrics.
const (
	PriorityInteractive = "interactive"
	PriorityBackground  = "background"
)
