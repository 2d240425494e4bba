// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - MEDIA_DIR: folder whose images form the sequence (default: /media)
//   - DATABASE_DIR: where rotations and the resume point are kept (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_ENABLED: expose /metrics (default: true)
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: log health check requests (default: true)
//   - VIEWER_CACHE_MB: preload cache budget; 0 derives it from GOMEMLIMIT
//   - VIEW_SIZE_MODE: fit, natural or natural-if-fits (default: fit)
//   - FULL_SIZE_THRESHOLD: size ratio above which the full image is decoded (default: 1.5)
//   - MAX_SCALED_PIXELS: zoom ceiling on the scaled raster area
//   - DECODE_WORKERS: decode worker count (default: one per CPU)
//   - VIEW_WIDTH, VIEW_HEIGHT: initial view size for the HTTP surface
//   - FILTERS: comma-separated display filters (grayscale, stretch, equalize)
//   - SORT, SORT_DESCENDING: sequence order (name, date, size)
//   - UI_MODE: http or tui (default: http)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
