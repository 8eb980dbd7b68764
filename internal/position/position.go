// Package position places the history panel next to the pointer, on the
// monitor that holds it.
package position

import (
	"context"
	"log/slog"
	"sync"
)

// BottomPadding keeps the fallback placement clear of bottom panels.
const BottomPadding = 45

// Point is a position in root-window coordinates.
type Point struct{ X, Y int }

// Size is a width and height in pixels.
type Size struct{ W, H int }

// Rect is a monitor's geometry in root-window coordinates. Name is the
// output name (e.g. "DP-1") when the display reports one.
type Rect struct {
	X, Y, W, H int
	Name       string
}

// Contains reports whether p lies inside r.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// distance2 is the squared distance from p to the nearest point of r.
func (r Rect) distance2(p Point) int {
	dx := max(r.X-p.X, 0, p.X-(r.X+r.W-1))
	dy := max(r.Y-p.Y, 0, p.Y-(r.Y+r.H-1))
	return dx*dx + dy*dy
}

// Monitor returns the monitor containing p, or the nearest one. ok is false
// when monitors is empty.
func Monitor(p Point, monitors []Rect) (Rect, bool) {
	if len(monitors) == 0 {
		return Rect{}, false
	}
	best := monitors[0]
	bestD := best.distance2(p)
	for _, m := range monitors[1:] {
		if d := m.distance2(p); d < bestD {
			best, bestD = m, d
		}
	}
	return best, true
}

// Compute returns the panel's top-left corner: at the cursor, moved inward
// so the panel stays margin pixels inside the cursor's monitor. A panel
// that does not fit is pinned to the monitor's top-left.
func Compute(cursor Point, monitors []Rect, panel Size, margin int) Point {
	m, ok := Monitor(cursor, monitors)
	if !ok {
		return cursor
	}
	return Point{
		X: clamp(cursor.X, m.X+margin, m.X+m.W-panel.W-margin, m.X),
		Y: clamp(cursor.Y, m.Y+margin, m.Y+m.H-panel.H-margin, m.Y),
	}
}

// clamp bounds v to [lo, hi]; when the range is empty it returns pin.
func clamp(v, lo, hi, pin int) int {
	if hi < lo {
		return pin
	}
	return min(max(v, lo), hi)
}

// Fallback centres the panel horizontally at the bottom of the first
// monitor, or returns the origin when no monitor is known.
func Fallback(monitors []Rect, panel Size) Point {
	if len(monitors) == 0 {
		return Point{}
	}
	m := monitors[0]
	return Point{
		X: m.X + m.W/2 - panel.W/2,
		Y: m.Y + m.H - panel.H - BottomPadding,
	}
}

// Display answers geometry queries.
type Display interface {
	Cursor(ctx context.Context) (Point, error)
	Monitors(ctx context.Context) ([]Rect, error)
}

// Positioner combines a Display with the panel's size. When Saved is set,
// a position the user moved the panel to wins over cursor placement for as
// long as its monitor stays connected.
type Positioner struct {
	Display Display // nil when no X connection is available
	Panel   Size
	Margin  int
	Saved   SavedStore

	mu     sync.Mutex
	saved  Saved
	has    bool
	loaded bool
}

// Place returns where the panel should appear. It never fails: query errors
// are logged and the fallback placement is used.
func (p *Positioner) Place(ctx context.Context) Point {
	if p.Display == nil {
		return Fallback(nil, p.Panel)
	}
	monitors, err := p.Display.Monitors(ctx)
	if err != nil {
		slog.Warn("monitor query failed", "err", err)
	}
	if s, ok := p.savedPosition(ctx); ok {
		if pt, ok := Restore(s, monitors, p.Panel); ok {
			return pt
		}
		slog.Debug("saved panel position no longer valid", "monitor", s.Monitor, "x", s.X, "y", s.Y)
	}
	cursor, err := p.Display.Cursor(ctx)
	if err != nil {
		slog.Warn("pointer query failed, using fallback placement", "err", err)
		return Fallback(monitors, p.Panel)
	}
	if len(monitors) == 0 {
		return cursor
	}
	return Compute(cursor, monitors, p.Panel, p.Margin)
}
