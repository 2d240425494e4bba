package streaming

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"
)

// FrameStream writes a multipart/x-mixed-replace response: each part
// replaces the previous one in the client, which is how browsers show a
// motion-JPEG stream.
type FrameStream struct {
	tw     *TimeoutWriter
	mw     *multipart.Writer
	frames int
}

// NewFrameStream sets the response headers and returns a stream ready for
// WriteFrame.
func NewFrameStream(ctx context.Context, w http.ResponseWriter, config TimeoutWriterConfig) *FrameStream {
	tw := NewTimeoutWriter(ctx, w, config)
	mw := multipart.NewWriter(tw)

	h := w.Header()
	h.Set("Content-Type", "multipart/x-mixed-replace; boundary="+mw.Boundary())
	h.Set("Cache-Control", "no-cache, no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	return &FrameStream{tw: tw, mw: mw}
}

// WriteFrame sends one part.
func (s *FrameStream) WriteFrame(contentType string, data []byte) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.Itoa(len(data)))

	part, err := s.mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to start frame %d: %w", s.frames, err)
	}
	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("failed to write frame %d: %w", s.frames, err)
	}
	s.frames++
	return nil
}

// Done is closed when the client goes away or the stream times out.
func (s *FrameStream) Done() <-chan struct{} {
	return s.tw.Done()
}

// Frames returns the number of frames written so far.
func (s *FrameStream) Frames() int {
	return s.frames
}

// Stats returns bytes written, frames written and stream duration.
func (s *FrameStream) Stats() (bytesWritten int64, frames int, duration time.Duration) {
	bytesWritten, duration = s.tw.Stats()
	return bytesWritten, s.frames, duration
}

// Close ends the stream. The closing boundary is written only when the
// client is still connected.
func (s *FrameStream) Close() error {
	select {
	case <-s.tw.Done():
	default:
		if err := s.mw.Close(); err != nil {
			_ = s.tw.Close()
			return err
		}
	}
	return s.tw.Close()
}
