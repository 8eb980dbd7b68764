package session

import "testing"

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Type
	}{
		{"explicit wayland", map[string]string{"XDG_SESSION_TYPE": "wayland", "DISPLAY": ":0"}, Wayland},
		{"explicit x11 beats wayland display", map[string]string{"XDG_SESSION_TYPE": "X11", "WAYLAND_DISPLAY": "wayland-0"}, X11},
		{"tty falls through to wayland display", map[string]string{"XDG_SESSION_TYPE": "tty", "WAYLAND_DISPLAY": "wayland-0"}, Wayland},
		{"display only", map[string]string{"DISPLAY": ":1"}, X11},
		{"nothing", map[string]string{}, Headless},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Detect(func(k string) string { return tt.env[k] })
			if info.Type != tt.want {
				t.Errorf("Type = %q, want %q", info.Type, tt.want)
			}
			if info.XDisplay != tt.env["DISPLAY"] {
				t.Errorf("XDisplay = %q", info.XDisplay)
			}
		})
	}
}

func TestInfoHelpers(t *testing.T) {
	i := Info{Type: Wayland, XDisplay: ":0"}
	if !i.IsWayland() || !i.HasX() {
		t.Errorf("helpers wrong for %+v", i)
	}
	if (Info{Type: Headless}).HasX() {
		t.Error("headless should not report X")
	}
}
