package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"
	"time"

	"photoview/internal/logging"
	"photoview/internal/session"
	"photoview/internal/streaming"

	"github.com/disintegration/imaging"
)

// encodeFrame encodes img as JPEG, or PNG when format is "png".
func (h *Handlers) encodeFrame(img image.Image, format string) ([]byte, string, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return nil, "", fmt.Errorf("failed to encode frame: %w", err)
		}
		return buf.Bytes(), "image/png", nil
	case "", "jpeg", "jpg":
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(h.JPEGQuality)); err != nil {
			return nil, "", fmt.Errorf("failed to encode frame: %w", err)
		}
		return buf.Bytes(), "image/jpeg", nil
	default:
		return nil, "", fmt.Errorf("unsupported format %q", format)
	}
}

func frameETag(snap *session.Snapshot) string {
	return `W/"frame-` + strconv.FormatUint(snap.Seq, 10) + `"`
}

// GetFrame serves the current frame. Clients poll it with If-None-Match;
// an unchanged snapshot yields 304.
func (h *Handlers) GetFrame(w http.ResponseWriter, r *http.Request) {
	snap := h.session.Snapshot()
	st := snap.State

	if snap.Frame == nil {
		switch {
		case st.Count == 0:
			writeJSONError(w, "sequence is empty", http.StatusNotFound)
		case st.Unavailable:
			writeJSONError(w, "content unavailable", http.StatusNotFound)
		default:
			w.Header().Set("Retry-After", "1")
			writeJSONError(w, "frame not ready", http.StatusServiceUnavailable)
		}
		return
	}

	etag := frameETag(snap)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	data, contentType, err := h.encodeFrame(snap.Frame, r.URL.Query().Get("format"))
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	w.Header().Set("X-Item-Index", strconv.Itoa(st.Index))
	if _, err := w.Write(data); err != nil {
		logging.Debug("failed to write frame: %v", err)
	}
}

// GetState returns the latest viewer state
func (h *Handlers) GetState(w http.ResponseWriter, _ *http.Request) {
	snap := h.session.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", frameETag(snap))
	writeJSON(w, snap.State)
}

// StreamFrames pushes every new frame as motion JPEG until the client
// disconnects. The last frame is resent every KeepAlive so idle viewers are
// not cut off.
func (h *Handlers) StreamFrames(w http.ResponseWriter, r *http.Request) {
	updates, unsubscribe := h.session.Subscribe()
	defer unsubscribe()

	stream := streaming.NewFrameStream(r.Context(), w, h.Stream)
	defer func() {
		if err := stream.Close(); err != nil {
			logging.Debug("failed to close frame stream: %v", err)
		}
	}()

	keepAlive := h.KeepAlive
	if keepAlive <= 0 {
		keepAlive = 15 * time.Second
	}
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	var sent image.Image
	send := func(force bool) error {
		frame := h.session.Snapshot().Frame
		if frame == nil || (!force && frame == sent) {
			return nil
		}
		data, contentType, err := h.encodeFrame(frame, "jpeg")
		if err != nil {
			return err
		}
		sent = frame
		return stream.WriteFrame(contentType, data)
	}

	if err := send(true); err != nil {
		endStream(stream, err)
		return
	}
	for {
		var err error
		select {
		case <-stream.Done():
			endStream(stream, nil)
			return
		case <-updates:
			err = send(false)
		case <-ticker.C:
			err = send(true)
		}
		if err != nil {
			endStream(stream, err)
			return
		}
	}
}

func endStream(stream *streaming.FrameStream, err error) {
	if err != nil && !errors.Is(err, streaming.ErrClientGone) {
		logging.Warn("frame stream ended: %v", err)
	}
	bytesWritten, frames, d := stream.Stats()
	logging.Debug("frame stream closed after %d frames, %d bytes, %v", frames, bytesWritten, d)
}
