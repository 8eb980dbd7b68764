package clip

import (
	"log/slog"
	"time"

	"go.klb.dev/clipd/internal/session"
	"go.klb.dev/clipd/internal/sysexec"
)

// New returns the backend for the session: wl-clipboard on Wayland when
// wl-copy and wl-paste are installed, the X11 clipboard (including XWayland)
// when an X display is named, and the headless backend otherwise.
func New(info session.Info, interval time.Duration, r sysexec.Runner) Backend {
	if info.IsWayland() {
		_, errCopy := r.LookPath("wl-copy")
		_, errPaste := r.LookPath("wl-paste")
		if errCopy == nil && errPaste == nil {
			return newWayland(r, interval, true)
		}
		slog.Warn("wl-clipboard not installed, trying XWayland clipboard")
	}
	if info.HasX() {
		b, err := newX11(interval)
		if err == nil {
			return b
		}
		slog.Warn("X11 clipboard unavailable", "err", err)
	}
	slog.Warn("clipboard unavailable, running headless", "session", info.Type)
	return Headless()
}
