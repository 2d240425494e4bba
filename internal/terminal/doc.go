// Package terminal shows the viewer in a terminal using tcell.
//
// Each character cell shows two image pixels with the lower half block
// glyph: the cell background is the upper pixel and the foreground the
// lower one. The pipeline's view size is therefore the terminal width by
// twice the height of the image area. The bottom row is a status line.
//
// Keys:
//
//	→ space n PgDn   next            ← backspace p PgUp   previous
//	Home g           first           End G                last
//	+ =              zoom in         -                    zoom out
//	0                whole image     h j k l ↑ ↓          pan
//	r / R            rotate cw/ccw   f                    cycle filters
//	d Delete         drop item       q Esc Ctrl-C         quit
//
// Dragging with the left mouse button zooms to the dragged rectangle.
package terminal
