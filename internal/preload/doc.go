// Package preload holds decoded neighbours of the current item so that
// stepping through a sequence does not wait on the decoder.
//
// The cache is keyed by sequence index rather than item id, since the
// neighbourhood it serves is defined by position. Its capacity is derived
// from a memory budget and the view size:
//
//	capacity = budget / (width * height * bytesPerPixel), at least 1
//
// Changing the view size recomputes the capacity and drops every entry,
// because entries were scaled for the old size.
//
// # Fill policy
//
// [Cache.Fill] walks away from the current index in the travel direction
// for up to capacity steps and requests every position that is neither
// resident nor already requested. Resident entries, outstanding requests and
// a reservation for the current index all occupy slots. When the cache is
// full a single victim is evicted before each new request:
//
//  1. entries behind the travel direction, farthest from current first
//  2. entries ahead, farthest first, but only when farther than both the
//     position being requested and the look-ahead window
//
// The cycle stops once the first ceil(capacity/2) positions ahead are all
// resident or requested and the cache is full, or when no victim exists.
//
// The cache is not safe for concurrent use. It belongs to the display
// pipeline and is driven from the session goroutine.
package preload
