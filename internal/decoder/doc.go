// Package decoder turns item identifiers into decoded, oriented and scaled
// rasters on a pool of worker goroutines.
//
// Callers submit a request and later receive a [Result] on the channel
// returned by [Service.Results]. Every result echoes the item, the requested
// size and the angle it was produced for, so the consumer can tell whether it
// still matches what is on screen.
//
// Requests have one of two priorities. Interactive requests (the image the
// user is waiting for) are always taken before Background ones (speculative
// preloads). Background work also waits while the memory monitor reports
// pressure.
//
// The default [FileLoader] reads files through the NFS-aware open in
// internal/filesystem and decodes them with imaging. When libvips has been
// initialised with [InitVips], preview-sized loads use decode-time
// shrinking instead, which keeps peak memory low for large JPEGs.
package decoder
