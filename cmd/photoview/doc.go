// Package main is the entry point for photoview, an image sequence viewer
// that preloads neighbouring images in the direction of travel and renders
// zoomed, cropped and scaled frames.
//
// # Application Lifecycle
//
//  1. Memory Configuration: sets GOMEMLIMIT from MEMORY_LIMIT or the cgroup
//     limit and derives the preload cache budget from it
//  2. Configuration Loading: reads environment variables and validates
//     directories
//  3. Decoder: starts the decode worker pool, with libvips when available
//  4. Sequence: scans MEDIA_DIR for images, sorted by SORT
//  5. Database: opens the SQLite store holding rotations and the last viewed
//     item
//  6. Session: starts the control loop that owns the display pipeline and
//     resumes at the last viewed item
//  7. Front end: an HTTP server, or a terminal viewer when UI_MODE=tui and
//     stdout is a terminal
//  8. Graceful Shutdown: SIGINT/SIGTERM (or q in the terminal viewer) stops
//     every component in reverse order
//
// # HTTP API
//
//	GET    /api/frame          current frame (JPEG, ?format=png)
//	GET    /api/state          pipeline state as JSON
//	GET    /api/stream         multipart JPEG stream of frames
//	POST   /api/next|prev|first|last
//	POST   /api/goto           {"index": n} or {"id": "path"}
//	POST   /api/zoom           {"x0","y0","x1","y1","screen"}
//	POST   /api/zoom/in|out|reset
//	POST   /api/pan            {"dx","dy","screen"}
//	POST   /api/resize         {"width","height"}
//	POST   /api/rotate         {"degrees"}
//	POST   /api/filters        {"filters": "grayscale,stretch"}
//	DELETE /api/item           ?id=path, defaults to the current item
//
// Health endpoints are /health, /healthz, /livez and /readyz; Prometheus
// metrics are served on /metrics when METRICS_ENABLED is true.
//
// # Build Requirements
//
// CGO is required for SQLite and libvips:
//
//	go build -o photoview ./cmd/photoview
package main
