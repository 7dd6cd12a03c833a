// Package hittest resolves drag targets from abstract screen rectangles.
// It is geometry only: callers describe column drop zones and item cards as
// rects in any consistent unit (the TUI feeds terminal cells) and get back a
// single authoritative drop target per frame.
package hittest

import "math"

// Point is a pointer location.
type Point struct {
	X int
	Y int
}

// Rect is an axis-aligned region. W and H are extents, so a 1x1 rect covers
// exactly one cell.
type Rect struct {
	X int
	Y int
	W int
	H int
}

// Contains reports whether the point lies inside the rect.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Overlaps reports whether two rects share any area. Partial overlap counts;
// touching edges do not.
func (r Rect) Overlaps(o Rect) bool {
	if r.W <= 0 || r.H <= 0 || o.W <= 0 || o.H <= 0 {
		return false
	}
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// CenterDistance returns the euclidean distance between two rect centers.
func (r Rect) CenterDistance(o Rect) float64 {
	rx := float64(r.X) + float64(r.W)/2
	ry := float64(r.Y) + float64(r.H)/2
	ox := float64(o.X) + float64(o.W)/2
	oy := float64(o.Y) + float64(o.H)/2
	return math.Hypot(rx-ox, ry-oy)
}

// Offset returns the rect translated by dx, dy.
func (r Rect) Offset(dx, dy int) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}
