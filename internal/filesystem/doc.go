// Package filesystem wraps the file operations the decoder performs on media
// volumes with retry handling for NFS stale file handles (ESTALE).
//
// Photos are frequently browsed from network shares. When the server
// re-exports a volume, open file handles go stale and the first open or stat
// after that fails with ESTALE even though the file is still there. The
// helpers here retry only that error, with exponential backoff:
//
//	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
//
// Metrics are recorded through an Observer installed at startup with
// SetObserver; without one, recording is skipped.
//
// A VolumeResolver maps paths to short volume labels ("media", "database")
// for metric labels using longest-prefix matching.
package filesystem
