// Package session identifies the display-server family of the login session.
package session

import (
	"os"
	"strings"
	"sync"
)

// Type is the display-server family.
type Type string

const (
	Wayland  Type = "wayland"
	X11      Type = "x11"
	Headless Type = "headless"
)

// Info describes the running session.
type Info struct {
	Type           Type   `json:"type"`
	XDisplay       string `json:"x_display,omitempty"`
	WaylandDisplay string `json:"wayland_display,omitempty"`
}

// IsWayland reports whether clipboard and focus follow compositor rules.
func (i Info) IsWayland() bool { return i.Type == Wayland }

// HasX reports whether an X server (native or XWayland) is reachable by name.
func (i Info) HasX() bool { return i.XDisplay != "" }

// Detect classifies the session described by getenv. XDG_SESSION_TYPE wins
// when it names a known family; otherwise the presence of WAYLAND_DISPLAY
// and then DISPLAY decides.
func Detect(getenv func(string) string) Info {
	info := Info{
		XDisplay:       getenv("DISPLAY"),
		WaylandDisplay: getenv("WAYLAND_DISPLAY"),
	}
	switch strings.ToLower(getenv("XDG_SESSION_TYPE")) {
	case "wayland":
		info.Type = Wayland
		return info
	case "x11":
		info.Type = X11
		return info
	}
	switch {
	case info.WaylandDisplay != "":
		info.Type = Wayland
	case info.XDisplay != "":
		info.Type = X11
	default:
		info.Type = Headless
	}
	return info
}

var current = sync.OnceValue(func() Info { return Detect(os.Getenv) })

// Current returns the session of this process, detected on first use.
func Current() Info { return current() }
