/*
Package streaming pushes rendered frames to HTTP clients.

[TimeoutWriter] wraps an http.ResponseWriter with per-write and idle
timeouts so a stalled or vanished client cannot pin a goroutine. Every write
is flushed.

[FrameStream] builds on it to serve multipart/x-mixed-replace responses: each
frame is one part, and the browser replaces the displayed image whenever a new
part arrives.

	stream := streaming.NewFrameStream(r.Context(), w, streaming.DefaultTimeoutWriterConfig())
	defer stream.Close()
	for frame := range frames {
		if err := stream.WriteFrame("image/jpeg", frame); err != nil {
			return
		}
	}

Callers that may go a long time without a new frame must resend the last one
before IdleTimeout expires.
*/
package streaming
