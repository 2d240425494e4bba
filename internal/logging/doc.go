// Package logging provides the leveled, printf-style logger used across the
// viewer.
//
// Levels, lowest first:
//   - DEBUG: cache fills, evictions, stale decode results
//   - INFO: startup, navigation summaries
//   - WARN: recoverable decode or storage problems
//   - ERROR: failures the operator should look at
//
// The level is read once from DEBUG or LOG_LEVEL and may be overridden with
// SetLevel (tests, the vips log bridge).
package logging
