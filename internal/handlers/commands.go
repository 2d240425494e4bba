package handlers

import (
	"context"
	"errors"
	"image"
	"net/http"
	"strings"

	"photoview/internal/display"
	"photoview/internal/filters"
	"photoview/internal/geometry"
	"photoview/internal/logging"
	"photoview/internal/sequence"
	"photoview/internal/session"
)

// CommandResponse is returned by every command endpoint. Changed is false
// when the command was valid but had no effect, such as Next on the last
// item or a zoom past the ceiling.
type CommandResponse struct {
	Changed bool          `json:"changed"`
	State   display.State `json:"state"`
}

// ZoomRequest selects a region by two corners.
type ZoomRequest struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	// Screen gives the corners in view pixels rather than raster pixels.
	Screen bool `json:"screen"`
}

// PanRequest moves the zoom window.
type PanRequest struct {
	DX     float64 `json:"dx"`
	DY     float64 `json:"dy"`
	Screen bool    `json:"screen"`
}

// GotoRequest names the item to show, by index or by ID.
type GotoRequest struct {
	Index *int   `json:"index,omitempty"`
	ID    string `json:"id,omitempty"`
}

// ResizeRequest sets the view size.
type ResizeRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// RotateRequest turns the current item clockwise by Degrees, a multiple of
// 90. It defaults to 90.
type RotateRequest struct {
	Degrees int `json:"degrees"`
}

// FiltersRequest replaces the display filters.
type FiltersRequest struct {
	Filters string `json:"filters"`
}

// runCommand executes fn on the control loop and responds with its outcome
// and the resulting state.
func (h *Handlers) runCommand(w http.ResponseWriter, r *http.Request, name string, fn func(p *display.Pipeline) bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.CommandTimeout)
	defer cancel()

	var resp CommandResponse
	err := h.session.Do(ctx, func(p *display.Pipeline) {
		resp.Changed = fn(p)
		resp.State = p.State()
	})
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		if !errors.Is(err, session.ErrStopped) {
			logging.Warn("Command %s failed: %v", name, err)
		}
		writeJSONError(w, err.Error(), status)
		return
	}

	logging.Debug("Command %s: changed=%v index=%d", name, resp.Changed, resp.State.Index)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp)
}

// Next moves to the next item
func (h *Handlers) Next(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, "next", (*display.Pipeline).Next)
}

// Prev moves to the previous item
func (h *Handlers) Prev(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, "prev", (*display.Pipeline).Prev)
}

// First moves to the first item
func (h *Handlers) First(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, "first", (*display.Pipeline).First)
}

// Last moves to the last item
func (h *Handlers) Last(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, "last", (*display.Pipeline).Last)
}

// Goto shows the item given by index or ID
func (h *Handlers) Goto(w http.ResponseWriter, r *http.Request) {
	var req GotoRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Index == nil && req.ID == "" {
		writeJSONError(w, "index or id is required", http.StatusBadRequest)
		return
	}

	h.runCommand(w, r, "goto", func(p *display.Pipeline) bool {
		if req.Index != nil {
			return p.GoTo(*req.Index)
		}
		return p.GoTo(p.IndexOf(sequence.ItemID(req.ID)))
	})
}

// Zoom shows the region spanned by two corners
func (h *Handlers) Zoom(w http.ResponseWriter, r *http.Request) {
	var req ZoomRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	a, b := geometry.Pt(req.X0, req.Y0), geometry.Pt(req.X1, req.Y1)
	h.runCommand(w, r, "zoom", func(p *display.Pipeline) bool {
		if req.Screen {
			return p.ZoomScreen(a, b)
		}
		return p.Zoom(a, b)
	})
}

// ZoomIn magnifies about the view centre
func (h *Handlers) ZoomIn(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, "zoom-in", (*display.Pipeline).ZoomIn)
}

// ZoomOut undoes one ZoomIn
func (h *Handlers) ZoomOut(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, "zoom-out", (*display.Pipeline).ZoomOut)
}

// ZoomReset returns to the standard view for the current mode
func (h *Handlers) ZoomReset(w http.ResponseWriter, r *http.Request) {
	h.runCommand(w, r, "zoom-reset", (*display.Pipeline).ZoomFull)
}

// Pan moves the zoom window
func (h *Handlers) Pan(w http.ResponseWriter, r *http.Request) {
	var req PanRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	d := geometry.Pt(req.DX, req.DY)
	h.runCommand(w, r, "pan", func(p *display.Pipeline) bool {
		if req.Screen {
			return p.PanScreen(d)
		}
		return p.Pan(d)
	})
}

// Resize changes the view size
func (h *Handlers) Resize(w http.ResponseWriter, r *http.Request) {
	var req ResizeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Width <= 0 || req.Height <= 0 || req.Width > 16384 || req.Height > 16384 {
		writeJSONError(w, "width and height must be between 1 and 16384", http.StatusBadRequest)
		return
	}
	size := image.Pt(req.Width, req.Height)
	h.runCommand(w, r, "resize", func(p *display.Pipeline) bool {
		changed := p.State().Geometry.ViewSize != size
		p.Resize(size)
		return changed
	})
}

// Rotate turns the current item
func (h *Handlers) Rotate(w http.ResponseWriter, r *http.Request) {
	req := RotateRequest{Degrees: 90}
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Degrees%90 != 0 {
		writeJSONError(w, "degrees must be a multiple of 90", http.StatusBadRequest)
		return
	}
	h.runCommand(w, r, "rotate", func(p *display.Pipeline) bool {
		return p.Rotate(req.Degrees)
	})
}

// RemoveItem drops an item from the sequence. Without an id query
// parameter the current item is removed. Files on disk are not touched.
func (h *Handlers) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := sequence.ItemID(r.URL.Query().Get("id"))
	h.runCommand(w, r, "remove", func(p *display.Pipeline) bool {
		target := id
		if target == "" {
			target = p.State().ItemID
		}
		if target == "" {
			return false
		}
		return p.RemoveItem(target)
	})
}

// SetFilters replaces the display filters
func (h *Handlers) SetFilters(w http.ResponseWriter, r *http.Request) {
	var req FiltersRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	f, unknown := filters.Parse(req.Filters)
	if len(unknown) > 0 {
		writeJSONError(w, "unknown filters: "+strings.Join(unknown, ", "), http.StatusBadRequest)
		return
	}
	names := filters.Known(req.Filters)
	h.runCommand(w, r, "filters", func(p *display.Pipeline) bool {
		if len(names) == 0 {
			p.SetFilters(nil, nil)
		} else {
			p.SetFilters(f, names)
		}
		return true
	})
}
