// Package hotkey registers the global "show history" shortcut with the
// desktop environment. The in-process X11 grab lives in package xkeys.
package hotkey

import "strings"

// Desktop environment names reported by DetectDesktop.
const (
	GNOME    = "GNOME"
	Cinnamon = "Cinnamon"
	KDE      = "KDE Plasma"
	XFCE     = "XFCE"
	MATE     = "MATE"
	LXDE     = "LXDE"
	LXQt     = "LXQt"
	COSMIC   = "COSMIC"
	Budgie   = "Budgie"
	Deepin   = "Deepin"
)

var desktopMatchers = []struct {
	needles []string
	name    string
}{
	{[]string{"gnome", "unity", "pantheon"}, GNOME},
	{[]string{"cinnamon"}, Cinnamon},
	{[]string{"kde", "plasma"}, KDE},
	{[]string{"xfce"}, XFCE},
	{[]string{"mate"}, MATE},
	{[]string{"lxde"}, LXDE},
	{[]string{"lxqt"}, LXQt},
	{[]string{"cosmic"}, COSMIC},
	{[]string{"budgie"}, Budgie},
	{[]string{"deepin"}, Deepin},
}

// DetectDesktop names the desktop environment from XDG_CURRENT_DESKTOP and
// XDG_SESSION_DESKTOP. Unknown desktops are returned as the upper-cased
// XDG_CURRENT_DESKTOP value.
func DetectDesktop(getenv func(string) string) string {
	current := strings.ToLower(getenv("XDG_CURRENT_DESKTOP"))
	combined := current + " " + strings.ToLower(getenv("XDG_SESSION_DESKTOP"))
	for _, m := range desktopMatchers {
		for _, n := range m.needles {
			if strings.Contains(combined, n) {
				return m.name
			}
		}
	}
	return strings.ToUpper(current)
}

// Combo is a key combination.
type Combo struct {
	Super, Ctrl, Alt, Shift bool
	Key                     string
}

var (
	// Primary is the shortcut clipd asks every desktop for.
	Primary = Combo{Super: true, Key: "v"}
	// Fallback is bound alongside Primary for desktops that reserve Super.
	Fallback = Combo{Ctrl: true, Alt: true, Key: "v"}
)

// GTK renders the combo in GSettings/xfconf accelerator syntax, e.g. <Super>v.
func (c Combo) GTK() string {
	var b strings.Builder
	if c.Ctrl {
		b.WriteString("<Primary>")
	}
	if c.Alt {
		b.WriteString("<Alt>")
	}
	if c.Shift {
		b.WriteString("<Shift>")
	}
	if c.Super {
		b.WriteString("<Super>")
	}
	b.WriteString(strings.ToLower(c.Key))
	return b.String()
}

// Qt renders the combo in KDE syntax, e.g. Meta+V.
func (c Combo) Qt() string {
	var parts []string
	if c.Super {
		parts = append(parts, "Meta")
	}
	if c.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if c.Alt {
		parts = append(parts, "Alt")
	}
	if c.Shift {
		parts = append(parts, "Shift")
	}
	return strings.Join(append(parts, strings.ToUpper(c.Key)), "+")
}

// String is the human form, e.g. Super+V.
func (c Combo) String() string {
	return strings.Replace(c.Qt(), "Meta", "Super", 1)
}
