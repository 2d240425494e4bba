package handlers

import (
	"time"

	"photoview/internal/session"
	"photoview/internal/streaming"
)

// DefaultJPEGQuality is the quality frames are encoded with.
const DefaultJPEGQuality = 85

// Handlers contains all HTTP handlers and their dependencies
type Handlers struct {
	session   *session.Session
	startTime time.Time

	// JPEGQuality is used for /api/frame and /api/stream.
	JPEGQuality int
	// CommandTimeout bounds how long a command waits for the control loop.
	CommandTimeout time.Duration
	// Stream configures /api/stream.
	Stream streaming.TimeoutWriterConfig
	// KeepAlive is how often an unchanged frame is resent on a stream.
	KeepAlive time.Duration
}

// New creates a new Handlers instance serving s.
func New(s *session.Session) *Handlers {
	return &Handlers{
		session:        s,
		startTime:      time.Now(),
		JPEGQuality:    DefaultJPEGQuality,
		CommandTimeout: 10 * time.Second,
		Stream:         streaming.DefaultTimeoutWriterConfig(),
		KeepAlive:      15 * time.Second,
	}
}
