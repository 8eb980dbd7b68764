package hotkey

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/sysexec"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDetectDesktop(t *testing.T) {
	tests := []struct {
		current, session, want string
	}{
		{"ubuntu:GNOME", "ubuntu", GNOME},
		{"Unity", "", GNOME},
		{"Pantheon", "", GNOME},
		{"X-Cinnamon", "cinnamon", Cinnamon},
		{"KDE", "plasmawayland", KDE},
		{"", "plasma", KDE},
		{"XFCE", "xfce", XFCE},
		{"MATE", "", MATE},
		{"LXQt", "", LXQt},
		{"COSMIC", "", COSMIC},
		{"Budgie", "", Budgie},
		{"Deepin", "", Deepin},
		{"sway", "", "SWAY"},
		{"", "", ""},
	}
	for _, tt := range tests {
		got := DetectDesktop(envOf(map[string]string{
			"XDG_CURRENT_DESKTOP": tt.current,
			"XDG_SESSION_DESKTOP": tt.session,
		}))
		if got != tt.want {
			t.Errorf("DetectDesktop(%q, %q) = %q, want %q", tt.current, tt.session, got, tt.want)
		}
	}
}

func TestComboRendering(t *testing.T) {
	if got := Primary.GTK(); got != "<Super>v" {
		t.Errorf("Primary.GTK = %q", got)
	}
	if got := Fallback.GTK(); got != "<Primary><Alt>v" {
		t.Errorf("Fallback.GTK = %q", got)
	}
	if got := Primary.Qt(); got != "Meta+V" {
		t.Errorf("Primary.Qt = %q", got)
	}
	if got := Fallback.Qt(); got != "Ctrl+Alt+V" {
		t.Errorf("Fallback.Qt = %q", got)
	}
	if got := Primary.String(); got != "Super+V" {
		t.Errorf("Primary.String = %q", got)
	}
}

func TestStringList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"@as []", nil},
		{"[]", nil},
		{"['/a/', '/b/']", []string{"/a/", "/b/"}},
		{"['<Super>v', '<Super>m']\n", []string{"<Super>v", "<Super>m"}},
	}
	for _, tt := range tests {
		if got := parseStringList(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseStringList(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := formatStringList([]string{"a", "it's"}); got != `['a', 'it\'s']` {
		t.Errorf("formatStringList = %s", got)
	}
	if got := formatStringList(nil); got != "@as []" {
		t.Errorf("formatStringList(nil) = %s", got)
	}
}

// fakeGsettings keeps an in-memory GSettings database.
func fakeGsettings(db map[string]string) *sysexec.Fake {
	return &sysexec.Fake{
		Paths: map[string]string{"gsettings": "/usr/bin/gsettings"},
		Handler: func(c sysexec.Call) (sysexec.Result, error) {
			if c.Name != "gsettings" || len(c.Args) < 3 {
				return sysexec.Fail(c.Name, 1, "bad call")
			}
			key := c.Args[1] + " " + c.Args[2]
			switch c.Args[0] {
			case "get":
				v, ok := db[key]
				if !ok {
					return sysexec.Fail("gsettings", 1, "No such key")
				}
				return sysexec.Result{Stdout: []byte(v + "\n")}, nil
			case "set":
				db[key] = c.Args[3]
				return sysexec.Result{}, nil
			}
			return sysexec.Fail("gsettings", 1, "bad verb")
		},
	}
}

func TestGnomeRegisterIsIdempotent(t *testing.T) {
	listKey := "org.gnome.settings-daemon.plugins.media-keys custom-keybindings"
	shellKey := "org.gnome.shell.keybindings toggle-message-tray"
	db := map[string]string{
		listKey:  "['/org/gnome/settings-daemon/plugins/media-keys/custom-keybindings/custom0/']",
		shellKey: "['<Super>v', '<Super>m']",
	}
	r := New(Options{
		Getenv:  envOf(map[string]string{"XDG_CURRENT_DESKTOP": "ubuntu:GNOME"}),
		Runner:  fakeGsettings(db),
		Command: "/usr/bin/clipd toggle",
	})
	if r.Tools().Backend != "gnome" || !r.Tools().CanRegisterAutomatically {
		t.Fatalf("tools = %+v", r.Tools())
	}
	for i := 0; i < 2; i++ {
		if err := r.Register(context.Background()); err != nil {
			t.Fatalf("Register #%d: %v", i+1, err)
		}
	}

	list := parseStringList(db[listKey])
	want := []string{
		"/org/gnome/settings-daemon/plugins/media-keys/custom-keybindings/custom0/",
		"/org/gnome/settings-daemon/plugins/media-keys/custom-keybindings/clipd0/",
		"/org/gnome/settings-daemon/plugins/media-keys/custom-keybindings/clipd1/",
	}
	if !slices.Equal(list, want) {
		t.Errorf("custom-keybindings = %q", list)
	}
	entry := "org.gnome.settings-daemon.plugins.media-keys.custom-keybinding:/org/gnome/settings-daemon/plugins/media-keys/custom-keybindings/clipd0/"
	if db[entry+" binding"] != "'<Super>v'" || db[entry+" command"] != "'/usr/bin/clipd toggle'" {
		t.Errorf("entry = %q / %q", db[entry+" binding"], db[entry+" command"])
	}
	if got := parseStringList(db[shellKey]); !slices.Equal(got, []string{"<Super>m"}) {
		t.Errorf("message tray binding = %q", got)
	}
}

func TestCinnamonUsesNamesAndBindingLists(t *testing.T) {
	db := map[string]string{"org.cinnamon.desktop.keybindings custom-list": "@as []"}
	r := New(Options{
		Getenv:  envOf(map[string]string{"XDG_CURRENT_DESKTOP": "X-Cinnamon"}),
		Runner:  fakeGsettings(db),
		Command: "clipd toggle",
	})
	if err := r.Register(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := parseStringList(db["org.cinnamon.desktop.keybindings custom-list"]); !slices.Equal(got, []string{"clipd0", "clipd1"}) {
		t.Errorf("custom-list = %q", got)
	}
	entry := "org.cinnamon.desktop.keybindings.custom-keybinding:/org/cinnamon/desktop/keybindings/custom-keybindings/clipd1/ binding"
	if db[entry] != "['<Primary><Alt>v']" {
		t.Errorf("binding = %q", db[entry])
	}
}

func TestRegisterToolUnavailable(t *testing.T) {
	r := New(Options{
		Getenv:  envOf(map[string]string{"XDG_CURRENT_DESKTOP": "GNOME"}),
		Runner:  &sysexec.Fake{},
		Command: "clipd toggle",
	})
	err := r.Register(context.Background())
	if !errors.Is(err, apperr.ErrShortcutToolUnavailable) {
		t.Fatalf("err = %v", err)
	}
	if !strings.Contains(apperr.HintOf(err), "clipd toggle") {
		t.Errorf("hint = %q", apperr.HintOf(err))
	}
}

func TestRegisterFailureIsDistinct(t *testing.T) {
	f := &sysexec.Fake{
		Paths: map[string]string{"gsettings": "/usr/bin/gsettings"},
		Handler: func(c sysexec.Call) (sysexec.Result, error) {
			return sysexec.Fail("gsettings", 1, "schema not installed")
		},
	}
	r := New(Options{Getenv: envOf(map[string]string{"XDG_CURRENT_DESKTOP": "GNOME"}), Runner: f, Command: "c"})
	err := r.Register(context.Background())
	if !errors.Is(err, apperr.ErrShortcutRegistrationFailed) || errors.Is(err, apperr.ErrShortcutToolUnavailable) {
		t.Errorf("err = %v", err)
	}
}

type fakeBus struct {
	calls []string
	props map[string]string
}

func (b *fakeBus) Call(_ context.Context, dest string, path dbus.ObjectPath, method string, args ...any) ([]any, error) {
	b.calls = append(b.calls, method)
	if method == "org.xfce.Xfconf.GetProperty" {
		v, ok := b.props[args[1].(string)]
		if !ok {
			return nil, errors.New("no such property")
		}
		return []any{dbus.MakeVariant(v)}, nil
	}
	return nil, nil
}

func (b *fakeBus) Close() error { return nil }

func TestKDERegister(t *testing.T) {
	f := &sysexec.Fake{Paths: map[string]string{"kwriteconfig5": "/usr/bin/kwriteconfig5"}}
	bus := &fakeBus{}
	dataDir := t.TempDir()
	r := New(Options{
		Getenv:  envOf(map[string]string{"XDG_CURRENT_DESKTOP": "KDE"}),
		Runner:  f,
		Bus:     bus,
		Command: "/usr/bin/clipd toggle",
		DataDir: dataDir,
	})
	if err := r.Register(context.Background()); err != nil {
		t.Fatal(err)
	}
	calls := f.Calls()
	if len(calls) != 1 || calls[0].Name != "kwriteconfig5" {
		t.Fatalf("calls = %+v", calls)
	}
	if got := calls[0].Args[len(calls[0].Args)-1]; got != "Meta+V\tCtrl+Alt+V" {
		t.Errorf("shortcut value = %q", got)
	}
	entry, err := os.ReadFile(filepath.Join(dataDir, "applications", kdeServiceFile))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(entry), "Exec=/usr/bin/clipd toggle") {
		t.Errorf("service entry:\n%s", entry)
	}
	if !slices.Contains(bus.calls, "org.kde.KWin.reconfigure") {
		t.Errorf("bus calls = %v", bus.calls)
	}
}

func TestXFCERegisterVerifiesOverBus(t *testing.T) {
	bus := &fakeBus{props: map[string]string{}}
	f := &sysexec.Fake{
		Paths: map[string]string{"xfconf-query": "/usr/bin/xfconf-query"},
		Handler: func(c sysexec.Call) (sysexec.Result, error) {
			if !slices.Contains(c.Args, "-n") {
				return sysexec.Fail("xfconf-query", 1, "Property does not exist")
			}
			bus.props[c.Args[3]] = c.Args[len(c.Args)-1]
			return sysexec.Result{}, nil
		},
	}
	r := New(Options{
		Getenv:  envOf(map[string]string{"XDG_CURRENT_DESKTOP": "XFCE"}),
		Runner:  f,
		Bus:     bus,
		Command: "clipd toggle",
	})
	if err := r.Register(context.Background()); err != nil {
		t.Fatal(err)
	}
	if bus.props["/commands/custom/<Super>v"] != "clipd toggle" || bus.props["/commands/custom/<Primary><Alt>v"] != "clipd toggle" {
		t.Errorf("props = %v", bus.props)
	}
}

func TestToolsWithoutBackend(t *testing.T) {
	r := New(Options{
		Getenv:  envOf(map[string]string{"XDG_CURRENT_DESKTOP": "LXQt"}),
		Runner:  &sysexec.Fake{Paths: map[string]string{"gsettings": "/usr/bin/gsettings"}},
		Command: "clipd toggle",
	})
	tools := r.Tools()
	if tools.CanRegisterAutomatically || tools.Backend != "none" || !tools.GsettingsAvailable {
		t.Errorf("tools = %+v", tools)
	}
	if !strings.Contains(tools.ManualInstructions, "LXQt Configuration") {
		t.Errorf("instructions = %q", tools.ManualInstructions)
	}
}
