package terminal

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"photoview/internal/display"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const halfBlock = '▄'

// viewSize returns the pipeline view size for a terminal of cols x rows.
func viewSize(cols, rows int) image.Point {
	rows-- // status line
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return image.Pt(cols, rows*2)
}

// drawFrame paints frame into the image area. Cells outside the frame are
// cleared.
func drawFrame(s tcell.Screen, frame image.Image) {
	cols, rows := s.Size()
	rows--
	var b image.Rectangle
	if frame != nil {
		b = frame.Bounds()
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			top := image.Pt(b.Min.X+x, b.Min.Y+2*y)
			bottom := top.Add(image.Pt(0, 1))
			if frame == nil || !top.In(b) {
				s.SetContent(x, y, ' ', nil, tcell.StyleDefault)
				continue
			}
			bg := toColor(frame, top)
			fg := bg
			if bottom.In(b) {
				fg = toColor(frame, bottom)
			}
			r := halfBlock
			if fg == bg {
				r = ' '
			}
			s.SetContent(x, y, r, nil, tcell.StyleDefault.Foreground(fg).Background(bg))
		}
	}
}

func toColor(img image.Image, p image.Point) tcell.Color {
	r, g, b, _ := img.At(p.X, p.Y).RGBA()
	return tcell.NewRGBColor(int32(r>>8), int32(g>>8), int32(b>>8))
}

// formatStatus describes st for the status line.
func formatStatus(st display.State, message string) string {
	if st.Count == 0 {
		return " (no images)" + suffix(message)
	}

	var b strings.Builder
	fmt.Fprintf(&b, " [%d/%d] %s", st.Index+1, st.Count, filepath.Base(string(st.ItemID)))
	if st.FullSize.X > 0 {
		fmt.Fprintf(&b, "  %dx%d", st.FullSize.X, st.FullSize.Y)
	}
	if st.Angle != 0 {
		fmt.Fprintf(&b, "  %d°", st.Angle)
	}
	if ratio := st.Geometry.SizeRatio; ratio > 0 {
		fmt.Fprintf(&b, "  %.0f%%", ratio*100)
	}
	if len(st.Filters) > 0 {
		fmt.Fprintf(&b, "  [%s]", strings.Join(st.Filters, ","))
	}
	switch {
	case st.Unavailable:
		b.WriteString("  unavailable")
	case st.Busy > 0:
		b.WriteString("  loading…")
	}
	b.WriteString(suffix(message))
	return b.String()
}

func suffix(message string) string {
	if message == "" {
		return ""
	}
	return "  " + message
}

// drawStatus writes text on the last row, truncated to the screen width.
func drawStatus(s tcell.Screen, text string) {
	cols, rows := s.Size()
	if rows < 1 {
		return
	}
	y := rows - 1
	style := tcell.StyleDefault.Reverse(true)
	text = runewidth.Truncate(text, cols, "…")

	x := 0
	for _, r := range text {
		w := runewidth.RuneWidth(r)
		if w <= 0 {
			continue
		}
		if x+w > cols {
			break
		}
		s.SetContent(x, y, r, nil, style)
		x += w
	}
	for ; x < cols; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}
