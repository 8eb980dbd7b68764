package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/sysexec"
)

// BindingName is the label shown in desktop shortcut settings.
const BindingName = "Clipboard History"

// ToolsStatus is the result of check_shortcut_tools.
type ToolsStatus struct {
	DesktopEnvironment       string `json:"desktop_environment"`
	Backend                  string `json:"backend"`
	GsettingsAvailable       bool   `json:"gsettings_available"`
	DconfAvailable           bool   `json:"dconf_available"`
	KDEToolsAvailable        bool   `json:"kde_tools_available"`
	XFCEToolsAvailable       bool   `json:"xfce_tools_available"`
	CanRegisterAutomatically bool   `json:"can_register_automatically"`
	ManualInstructions       string `json:"manual_instructions"`
}

// Options configures a Registrar.
type Options struct {
	Getenv  func(string) string
	Runner  sysexec.Runner
	Bus     SessionBus // optional
	Command string     // command line the shortcut runs
	DataDir string     // $XDG_DATA_HOME, used by the KDE backend
}

// Registrar owns the backend chosen for this session.
type Registrar struct {
	desktop string
	command string
	backend Backend
	tools   ToolsStatus
}

// New detects the desktop and picks a backend once.
func New(o Options) *Registrar {
	de := DetectDesktop(o.Getenv)
	has := func(name string) bool {
		_, err := o.Runner.LookPath(name)
		return err == nil
	}
	tools := ToolsStatus{
		DesktopEnvironment: de,
		GsettingsAvailable: has("gsettings"),
		DconfAvailable:     has("dconf"),
		XFCEToolsAvailable: has("xfconf-query"),
	}
	kwrite := ""
	for _, name := range []string{"kwriteconfig6", "kwriteconfig5"} {
		if has(name) {
			kwrite = name
			break
		}
	}
	tools.KDEToolsAvailable = kwrite != ""

	var b Backend = noneBackend{}
	gs := func(f gsettingsFlavor) {
		if tools.GsettingsAvailable {
			b = &gsettingsBackend{flavor: f, run: o.Runner}
		}
	}
	switch de {
	case GNOME, Budgie, Deepin:
		gs(gnomeFlavor)
	case Cinnamon:
		gs(cinnamonFlavor)
	case MATE:
		gs(mateFlavor)
	case KDE:
		if kwrite != "" {
			b = &kdeBackend{tool: kwrite, run: o.Runner, bus: o.Bus, dataDir: o.DataDir}
		}
	case XFCE:
		if tools.XFCEToolsAvailable {
			b = &xfceBackend{run: o.Runner, bus: o.Bus}
		}
	case LXDE, LXQt, COSMIC:
		// Config-file based; only manual instructions.
	default:
		gs(gnomeFlavor)
	}
	tools.Backend = b.Name()
	tools.CanRegisterAutomatically = b.Name() != "none"
	tools.ManualInstructions = ManualInstructions(de, o.Command)

	slog.Debug("shortcut backend selected", "desktop", de, "backend", b.Name())
	return &Registrar{desktop: de, command: o.Command, backend: b, tools: tools}
}

// Desktop returns the detected desktop environment.
func (r *Registrar) Desktop() string { return r.desktop }

// Tools reports the tooling found at construction.
func (r *Registrar) Tools() ToolsStatus { return r.tools }

// Register binds Primary and Fallback to the toggle command.
func (r *Registrar) Register(ctx context.Context) error {
	if !r.tools.CanRegisterAutomatically {
		err := fmt.Errorf("%s: %w", describe(r.desktop), apperr.ErrShortcutToolUnavailable)
		return apperr.Remediation(err, r.tools.ManualInstructions)
	}
	b := Binding{Name: BindingName, Command: r.command, Combos: []Combo{Primary, Fallback}}
	if err := r.backend.Register(ctx, b); err != nil {
		err = fmt.Errorf("%s backend: %w: %w", r.backend.Name(), apperr.ErrShortcutRegistrationFailed, err)
		return apperr.Remediation(err, r.tools.ManualInstructions)
	}
	slog.Info("global shortcut registered", "desktop", r.desktop, "backend", r.backend.Name(),
		"primary", Primary.String(), "fallback", Fallback.String())
	return nil
}

func describe(de string) string {
	if de == "" {
		return "unknown desktop"
	}
	return de
}

// ManualInstructions explains how to bind the shortcut by hand.
func ManualInstructions(de, command string) string {
	var steps []string
	switch de {
	case GNOME:
		steps = []string{
			"Open Settings → Keyboard → Keyboard Shortcuts → Custom Shortcuts",
			`Click "+" to add a new shortcut`,
			`Name: "` + BindingName + `"`,
			"Command: `" + command + "`",
			"Shortcut: press Super+V",
		}
	case KDE:
		steps = []string{
			"Open System Settings → Shortcuts → Custom Shortcuts",
			`Click "Edit" → "New" → "Global Shortcut" → "Command/URL"`,
			`Name: "` + BindingName + `"`,
			"Trigger: click and press Meta+V",
			"Action: `" + command + "`",
		}
	case Cinnamon:
		steps = []string{
			"Open System Settings → Keyboard → Shortcuts → Custom Shortcuts",
			`Click "Add custom shortcut"`,
			`Name: "` + BindingName + `"`,
			"Command: `" + command + "`",
			"Click on the shortcut area and press Super+V",
		}
	case XFCE:
		steps = []string{
			"Open Settings → Keyboard → Application Shortcuts",
			`Click "Add"`,
			"Command: `" + command + "`",
			"Press Super+V when prompted",
		}
	case MATE:
		steps = []string{
			"Open Control Center → Keyboard Shortcuts",
			`Click "Add"`,
			`Name: "` + BindingName + `"`,
			"Command: `" + command + "`",
			"Click on the shortcut and press Super+V",
		}
	case LXQt:
		steps = []string{
			"Open LXQt Configuration → Shortcut Keys",
			`Click "Add"`,
			`Description: "` + BindingName + `"`,
			"Command: `" + command + "`",
			"Set shortcut to Meta+V",
		}
	case LXDE:
		steps = []string{
			"Edit ~/.config/openbox/lxde-rc.xml",
			"Add in the <keyboard> section:\n\n<keybind key=\"Super_L+v\">\n  <action name=\"Execute\">\n    <command>" +
				command + "</command>\n  </action>\n</keybind>\n",
			"Run: openbox --reconfigure",
		}
	case COSMIC:
		steps = []string{
			"Open Settings → Keyboard → Custom Shortcuts",
			"Add new shortcut",
			"Command: `" + command + "`",
			"Binding: Super+V",
		}
	default:
		steps = []string{
			"Open your desktop environment's keyboard shortcuts settings",
			"Add a new custom shortcut",
			"Command: `" + command + "`",
			"Shortcut: Super+V (or Ctrl+Alt+V)",
		}
	}
	var b strings.Builder
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return strings.TrimSuffix(b.String(), "\n")
}
