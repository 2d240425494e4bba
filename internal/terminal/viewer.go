package terminal

import (
	"context"
	"errors"
	"image"
	"time"

	"photoview/internal/display"
	"photoview/internal/filters"
	"photoview/internal/geometry"
	"photoview/internal/logging"
	"photoview/internal/session"

	"github.com/gdamore/tcell/v2"
)

// filterCycle is the order the f key steps through.
var filterCycle = []string{"", "grayscale", "stretch", "equalize"}

// Viewer connects a tcell screen to a session.
type Viewer struct {
	screen  tcell.Screen
	session *session.Session

	message    string
	filterStep int
	dragStart  *image.Point
	quit       bool
}

// New creates a viewer on an initialised screen.
func New(screen tcell.Screen, s *session.Session) *Viewer {
	return &Viewer{screen: screen, session: s}
}

// Run draws frames and handles input until the user quits or ctx is
// cancelled. The caller owns the screen and calls Fini.
func (v *Viewer) Run(ctx context.Context) error {
	updates, unsubscribe := v.session.Subscribe()
	defer unsubscribe()

	v.screen.EnableMouse()
	cols, rows := v.screen.Size()
	v.resize(ctx, cols, rows)
	v.draw()

	events := make(chan tcell.Event)
	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for !v.quit {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pollDone:
			return nil
		case ev := <-events:
			v.HandleEvent(ctx, ev)
		case <-updates:
		}
		v.draw()
	}
	return nil
}

// Quit reports whether the user asked to leave.
func (v *Viewer) Quit() bool {
	return v.quit
}

func (v *Viewer) draw() {
	snap := v.session.Snapshot()
	if snap == nil {
		return
	}
	drawFrame(v.screen, snap.Frame)
	drawStatus(v.screen, formatStatus(snap.State, v.message))
	v.screen.Show()
}

// do runs fn on the session loop. A stopped session ends the viewer.
func (v *Viewer) do(ctx context.Context, fn func(p *display.Pipeline)) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := v.session.Do(ctx, fn); err != nil {
		if errors.Is(err, session.ErrStopped) {
			v.quit = true
			return
		}
		logging.Warn("Terminal: command failed: %v", err)
		v.message = err.Error()
	}
}

func (v *Viewer) resize(ctx context.Context, cols, rows int) {
	size := viewSize(cols, rows)
	v.do(ctx, func(p *display.Pipeline) { p.Resize(size) })
}

// HandleEvent applies one terminal event.
func (v *Viewer) HandleEvent(ctx context.Context, ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		cols, rows := ev.Size()
		v.resize(ctx, cols, rows)
		v.screen.Sync()
	case *tcell.EventKey:
		v.message = ""
		v.handleKey(ctx, ev)
	case *tcell.EventMouse:
		v.handleMouse(ctx, ev)
	}
}

func (v *Viewer) handleKey(ctx context.Context, ev *tcell.EventKey) {
	var fn func(p *display.Pipeline) bool

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		v.quit = true
		return
	case tcell.KeyRight, tcell.KeyPgDn:
		fn = (*display.Pipeline).Next
	case tcell.KeyLeft, tcell.KeyPgUp, tcell.KeyBackspace, tcell.KeyBackspace2:
		fn = (*display.Pipeline).Prev
	case tcell.KeyHome:
		fn = (*display.Pipeline).First
	case tcell.KeyEnd:
		fn = (*display.Pipeline).Last
	case tcell.KeyDelete:
		fn = removeCurrent
	case tcell.KeyUp:
		fn = v.pan(0, -1)
	case tcell.KeyDown:
		fn = v.pan(0, 1)
	case tcell.KeyRune:
		fn = v.runeCommand(ev.Rune())
	}

	if fn == nil {
		return
	}
	v.do(ctx, func(p *display.Pipeline) { fn(p) })
}

func (v *Viewer) runeCommand(r rune) func(p *display.Pipeline) bool {
	switch r {
	case 'q':
		v.quit = true
	case ' ', 'n':
		return (*display.Pipeline).Next
	case 'p':
		return (*display.Pipeline).Prev
	case 'g':
		return (*display.Pipeline).First
	case 'G':
		return (*display.Pipeline).Last
	case '+', '=':
		return (*display.Pipeline).ZoomIn
	case '-':
		return (*display.Pipeline).ZoomOut
	case '0':
		return (*display.Pipeline).ZoomFull
	case 'h':
		return v.pan(-1, 0)
	case 'l':
		return v.pan(1, 0)
	case 'k':
		return v.pan(0, -1)
	case 'j':
		return v.pan(0, 1)
	case 'r':
		return func(p *display.Pipeline) bool { return p.Rotate(90) }
	case 'R':
		return func(p *display.Pipeline) bool { return p.Rotate(-90) }
	case 'd':
		return removeCurrent
	case 'f':
		v.filterStep = (v.filterStep + 1) % len(filterCycle)
		name := filterCycle[v.filterStep]
		return func(p *display.Pipeline) bool {
			if name == "" {
				p.SetFilters(nil, nil)
				return true
			}
			p.SetFilters(filters.Names[name], []string{name})
			return true
		}
	}
	return nil
}

// pan moves an eighth of the view per key press.
func (v *Viewer) pan(dx, dy float64) func(p *display.Pipeline) bool {
	return func(p *display.Pipeline) bool {
		view := p.State().Geometry.ViewSize
		return p.PanScreen(geometry.Pt(dx*float64(view.X)/8, dy*float64(view.Y)/8))
	}
}

func removeCurrent(p *display.Pipeline) bool {
	id := p.State().ItemID
	if id == "" {
		return false
	}
	return p.RemoveItem(id)
}

// handleMouse zooms to a rectangle dragged with the left button. Cell
// coordinates map to view pixels with two pixel rows per cell.
func (v *Viewer) handleMouse(ctx context.Context, ev *tcell.EventMouse) {
	x, y := ev.Position()
	pt := image.Pt(x, y*2)

	if ev.Buttons()&tcell.Button1 != 0 {
		if v.dragStart == nil {
			v.dragStart = &pt
		}
		return
	}
	if v.dragStart == nil {
		return
	}
	start := *v.dragStart
	v.dragStart = nil
	if start == pt {
		return
	}
	a := geometry.Pt(float64(start.X), float64(start.Y))
	b := geometry.Pt(float64(pt.X+1), float64(pt.Y+2))
	v.do(ctx, func(p *display.Pipeline) {
		if !p.ZoomScreen(a, b) {
			v.message = "zoom rejected"
		}
	})
}
