// Package memory keeps the viewer's decoded rasters inside the memory the
// process is allowed to use.
//
// Decoded photos are large: a 24MP image is ~96MB as RGBA. The package
// provides three pieces:
//   - [ConfigureFromEnv] sets GOMEMLIMIT from a container limit
//     (MEMORY_LIMIT, MEMORY_RATIO) unless GOMEMLIMIT is already set.
//   - [CacheBudget] derives the preload cache budget, either from an explicit
//     VIEWER_CACHE_MB setting or as a share of the Go memory limit.
//   - [Monitor] samples heap usage and lets background decoders wait while
//     usage is above the critical water mark.
//
// Interactive decodes never wait on the monitor; only speculative preloads
// are throttled.
package memory
