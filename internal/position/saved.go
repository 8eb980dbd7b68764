package position

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Saved is a panel position the user chose, tied to the monitor it was on.
type Saved struct {
	Monitor string `json:"monitor"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
}

// SavedStore persists the user's panel position.
type SavedStore interface {
	LoadPanelPosition(ctx context.Context) (Saved, bool, error)
	SavePanelPosition(ctx context.Context, s Saved) error
}

// ErrNoDisplay is returned when a position cannot be tied to a monitor.
var ErrNoDisplay = errors.New("no display to resolve monitors")

// Restore returns the saved point when its monitor is still connected and
// the point lies on it with the top half of the panel above the bottom edge.
func Restore(s Saved, monitors []Rect, panel Size) (Point, bool) {
	for _, m := range monitors {
		if m.Name != s.Monitor {
			continue
		}
		ok := s.X >= m.X && s.X < m.X+m.W &&
			s.Y >= m.Y && s.Y < m.Y+m.H-panel.H/2
		return Point{X: s.X, Y: s.Y}, ok
	}
	return Point{}, false
}

// Remember records pt, the panel's new top-left corner after the user moved
// it, against the monitor containing it.
func (p *Positioner) Remember(ctx context.Context, pt Point) error {
	if p.Display == nil {
		return ErrNoDisplay
	}
	monitors, err := p.Display.Monitors(ctx)
	if err != nil {
		return fmt.Errorf("remember panel position: %w", err)
	}
	var on *Rect
	for i := range monitors {
		if monitors[i].Contains(pt) {
			on = &monitors[i]
			break
		}
	}
	if on == nil {
		return fmt.Errorf("point %d,%d is not on any monitor", pt.X, pt.Y)
	}
	s := Saved{Monitor: on.Name, X: pt.X, Y: pt.Y}

	p.mu.Lock()
	p.saved, p.has, p.loaded = s, true, true
	p.mu.Unlock()

	if p.Saved != nil {
		if err := p.Saved.SavePanelPosition(ctx, s); err != nil {
			return fmt.Errorf("save panel position: %w", err)
		}
	}
	slog.Debug("panel position remembered", "monitor", s.Monitor, "x", s.X, "y", s.Y)
	return nil
}

// savedPosition loads the persisted position on first use.
func (p *Positioner) savedPosition(ctx context.Context) (Saved, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded && p.Saved != nil {
		s, ok, err := p.Saved.LoadPanelPosition(ctx)
		if err != nil {
			slog.Warn("load panel position", "err", err)
		} else {
			p.saved, p.has = s, ok
		}
		p.loaded = true
	}
	return p.saved, p.has
}
