// Package handlers provides the HTTP surface of the viewer.
//
// It includes handlers for:
//   - The rendered frame, as a single JPEG or PNG and as a motion-JPEG stream
//   - Viewer state as JSON
//   - Navigation, zoom, pan, resize, rotation and filter commands
//   - Health checks, version and Prometheus metrics
//
// Commands run on the session's control loop through [session.Session.Do];
// read-only endpoints serve the latest published snapshot.
package handlers
