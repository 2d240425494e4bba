// Package geometry holds the pure coordinate math of the viewer: mapping
// between image space (pixels of the currently loaded raster) and screen
// space (pixels of the display widget), and deriving zoom windows that fill
// the widget without letterboxing.
//
// Nothing in this package allocates rasters or performs I/O. All values are
// float64 so that repeated zoom, pan and resize steps do not accumulate
// integer rounding drift; callers round once when cropping.
package geometry
