// Package middleware provides HTTP middleware for the viewer.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics labelled by route template
//   - Gzip compression of JSON responses
//
// Frame and stream endpoints are binary or long-lived; compression skips
// them and the logger records them like any other request.
package middleware
