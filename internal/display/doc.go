// Package display owns the image on screen: which item is current, the
// loaded raster and its zoom window, and the frame produced by cropping and
// scaling that raster to the view.
//
// A [Pipeline] is driven from a single goroutine. It submits decode
// requests and is handed their results through [Pipeline.HandleResult]; it
// never blocks on the decoder and holds no locks.
//
// # Two-tier loading
//
// Navigation loads a preview fitted to the view. When the user zooms in,
// asks for natural size, or enlarges the view past the preview, the pipeline
// requests the full-resolution raster. The zoom window is kept in the
// coordinates of whatever raster is loaded, so when the full raster arrives
// the window is scaled by full/preview on each axis and the visible region
// does not jump.
//
// # Staleness
//
// Every result echoes the item, size and angle it was requested for. A
// preview whose size no longer matches the view, or whose angle no longer
// matches the item's rotation, is counted and dropped. Results for other
// items are offered to the preload cache as neighbours.
package display
