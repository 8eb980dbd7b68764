package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"go.klb.dev/clipd/internal/sysexec"
)

// gsettingsFlavor describes one GSettings custom-keybinding layout.
type gsettingsFlavor struct {
	name        string
	listSchema  string // empty when entries are not listed
	listKey     string
	listByName  bool // list holds slot names rather than paths
	entrySchema string
	pathPrefix  string
	commandKey  string
	bindingList bool // binding key is an array of accelerators

	// shellConflicts are (schema, key) pairs whose default accelerators
	// clash with ours and get replaced.
	shellConflicts [][2]string
}

var (
	gnomeFlavor = gsettingsFlavor{
		name:        "gnome",
		listSchema:  "org.gnome.settings-daemon.plugins.media-keys",
		listKey:     "custom-keybindings",
		entrySchema: "org.gnome.settings-daemon.plugins.media-keys.custom-keybinding",
		pathPrefix:  "/org/gnome/settings-daemon/plugins/media-keys/custom-keybindings/",
		commandKey:  "command",
		shellConflicts: [][2]string{
			{"org.gnome.shell.keybindings", "toggle-message-tray"},
		},
	}
	cinnamonFlavor = gsettingsFlavor{
		name:        "cinnamon",
		listSchema:  "org.cinnamon.desktop.keybindings",
		listKey:     "custom-list",
		listByName:  true,
		entrySchema: "org.cinnamon.desktop.keybindings.custom-keybinding",
		pathPrefix:  "/org/cinnamon/desktop/keybindings/custom-keybindings/",
		commandKey:  "command",
		bindingList: true,
	}
	mateFlavor = gsettingsFlavor{
		name:        "mate",
		entrySchema: "org.mate.control-center.keybinding",
		pathPrefix:  "/org/mate/desktop/keybindings/",
		commandKey:  "action",
	}
)

type gsettingsBackend struct {
	flavor gsettingsFlavor
	run    sysexec.Runner
}

func (g *gsettingsBackend) Name() string { return g.flavor.name }

// Register writes one slot per combo (clipd0, clipd1, ...). Slots are
// reused on every call so repeated registration overwrites in place.
func (g *gsettingsBackend) Register(ctx context.Context, b Binding) error {
	f := g.flavor
	g.freeConflicts(ctx, b.Combos)

	var slots []string
	for i, combo := range b.Combos {
		slot := "clipd" + strconv.Itoa(i)
		path := f.pathPrefix + slot + "/"
		schema := f.entrySchema + ":" + path
		binding := quote(combo.GTK())
		if f.bindingList {
			binding = formatStringList([]string{combo.GTK()})
		}
		for _, kv := range [][2]string{
			{"name", quote(b.Name)},
			{f.commandKey, quote(b.Command)},
			{"binding", binding},
		} {
			if _, err := run(ctx, g.run, "gsettings", "set", schema, kv[0], kv[1]); err != nil {
				return fmt.Errorf("set %s %s: %w", path, kv[0], err)
			}
		}
		if f.listByName {
			slots = append(slots, slot)
		} else {
			slots = append(slots, path)
		}
	}

	if f.listSchema == "" {
		return nil
	}
	out, err := run(ctx, g.run, "gsettings", "get", f.listSchema, f.listKey)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.listKey, err)
	}
	list := parseStringList(out)
	changed := false
	for _, s := range slots {
		if !slices.Contains(list, s) {
			list = append(list, s)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if _, err := run(ctx, g.run, "gsettings", "set", f.listSchema, f.listKey, formatStringList(list)); err != nil {
		return fmt.Errorf("write %s: %w", f.listKey, err)
	}
	return nil
}

// freeConflicts removes our accelerators from shell bindings that claim
// them by default (GNOME Shell binds Super+V to the message tray) and gives
// that action Super+M instead. Failures are logged only.
func (g *gsettingsBackend) freeConflicts(ctx context.Context, combos []Combo) {
	for _, c := range g.flavor.shellConflicts {
		schema, key := c[0], c[1]
		out, err := run(ctx, g.run, "gsettings", "get", schema, key)
		if err != nil {
			slog.Debug("shell keybinding not readable", "schema", schema, "key", key, "err", err)
			continue
		}
		current := parseStringList(out)
		kept := slices.DeleteFunc(slices.Clone(current), func(acc string) bool {
			return slices.ContainsFunc(combos, func(c Combo) bool { return c.GTK() == acc })
		})
		if len(kept) == len(current) {
			continue
		}
		if !slices.Contains(kept, "<Super>m") {
			kept = append(kept, "<Super>m")
		}
		if _, err := run(ctx, g.run, "gsettings", "set", schema, key, formatStringList(kept)); err != nil {
			slog.Warn("could not move conflicting shell shortcut", "schema", schema, "key", key, "err", err)
			continue
		}
		slog.Info("moved conflicting shell shortcut", "schema", schema, "key", key, "now", kept)
	}
}
