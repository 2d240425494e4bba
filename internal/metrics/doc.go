// Package metrics provides Prometheus instrumentation for the viewer.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "photoview_".
//
// # Metric Categories
//
// ## Preload Cache
//   - PreloadCacheEntries / PreloadCacheCapacity: current fill and bound
//   - PreloadCacheHits / PreloadCacheMisses: lookups on navigation
//   - PreloadCacheEvictions: evictions by side ("behind", "ahead", "rejected")
//   - PreloadCacheClears: full clears caused by resizes
//
// ## Decoding
//   - DecodeRequestsTotal, DecodeResultsTotal, DecodeDuration by priority
//   - DecodeQueueDepth: queued requests per priority
//   - DecodeStaleResults: results that matched nothing current
//
// ## Display
//   - FramesRendered, FrameRenderDuration, ZoomRejected, ViewerBusy,
//     FullSizeLoads, ContentUnavailable, SequenceLength
//
// ## HTTP, filesystem and memory
//   - HTTP request counters for the rendering surface
//   - NFS retry counters recorded through filesystem.Observer
//   - Memory monitor gauges
//
// Call InitializeMetrics once at startup so every label combination is
// exported from the first scrape.
package metrics
