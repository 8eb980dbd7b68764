package position

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/xproto"

	"go.klb.dev/clipd/internal/session"
)

// X11Display queries an X server over one long-lived connection. On Wayland
// sessions it talks to XWayland, the only place ordinary clients may read
// the pointer position.
type X11Display struct {
	mu    sync.Mutex
	conn  *xgb.Conn
	root  xproto.Window
	randr bool
	saved xproto.Window
}

// DisplayName picks the X display for info, falling back to :0 when a
// Wayland session does not export DISPLAY.
func DisplayName(info session.Info) string {
	if info.XDisplay != "" {
		return info.XDisplay
	}
	return ":0"
}

// OpenX11 connects to display. RandR is optional; without it the whole
// root window is treated as a single monitor.
func OpenX11(display string) (*X11Display, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X display %q: %w", display, err)
	}
	d := &X11Display{
		conn: conn,
		root: xproto.Setup(conn).DefaultScreen(conn).Root,
	}
	if err := randr.Init(conn); err != nil {
		slog.Warn("RandR unavailable, treating the screen as one monitor", "err", err)
	} else {
		d.randr = true
	}
	return d, nil
}

func (d *X11Display) Cursor(context.Context) (Point, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	reply, err := xproto.QueryPointer(d.conn, d.root).Reply()
	if err != nil {
		return Point{}, fmt.Errorf("query pointer: %w", err)
	}
	return Point{X: int(reply.RootX), Y: int(reply.RootY)}, nil
}

func (d *X11Display) Monitors(context.Context) ([]Rect, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.randr {
		return d.screenRect()
	}
	res, err := randr.GetScreenResourcesCurrent(d.conn, d.root).Reply()
	if err != nil {
		return nil, fmt.Errorf("get screen resources: %w", err)
	}
	var out []Rect
	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(d.conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			slog.Debug("crtc query failed", "crtc", crtc, "err", err)
			continue
		}
		// Disabled CRTCs report zero size.
		if info.Width == 0 || info.Height == 0 {
			continue
		}
		r := Rect{X: int(info.X), Y: int(info.Y), W: int(info.Width), H: int(info.Height)}
		if len(info.Outputs) > 0 {
			if o, err := randr.GetOutputInfo(d.conn, info.Outputs[0], res.ConfigTimestamp).Reply(); err == nil {
				r.Name = string(o.Name)
			}
		}
		out = append(out, r)
	}
	if len(out) == 0 {
		return d.screenRect()
	}
	return out, nil
}

func (d *X11Display) screenRect() ([]Rect, error) {
	geo, err := xproto.GetGeometry(d.conn, xproto.Drawable(d.root)).Reply()
	if err != nil {
		return nil, fmt.Errorf("get root geometry: %w", err)
	}
	return []Rect{{W: int(geo.Width), H: int(geo.Height)}}, nil
}

// SaveFocus remembers the window that currently has input focus.
func (d *X11Display) SaveFocus(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	reply, err := xproto.GetInputFocus(d.conn).Reply()
	if err != nil {
		return fmt.Errorf("get input focus: %w", err)
	}
	d.saved = reply.Focus
	slog.Debug("saved focused window", "window", uint32(reply.Focus))
	return nil
}

// RestoreFocus gives input focus back to the saved window.
func (d *X11Display) RestoreFocus(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.saved == xproto.WindowNone {
		return errors.New("no focused window saved")
	}
	err := xproto.SetInputFocus(d.conn, xproto.InputFocusParent, d.saved, xproto.TimeCurrentTime).Check()
	if err != nil {
		return fmt.Errorf("set input focus to %d: %w", uint32(d.saved), err)
	}
	return nil
}

// Close drops the X connection.
func (d *X11Display) Close() {
	d.conn.Close()
}
