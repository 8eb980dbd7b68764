package hotkey

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.klb.dev/clipd/internal/sysexec"
)

// kdeServiceFile is the service id kglobalaccel launches for the shortcut.
const kdeServiceFile = "clipd-toggle.desktop"

type kdeBackend struct {
	tool    string // kwriteconfig6 or kwriteconfig5
	run     sysexec.Runner
	bus     SessionBus
	dataDir string // $XDG_DATA_HOME
}

func (k *kdeBackend) Name() string { return "kde" }

// Register writes a hidden service entry that runs the command and binds
// it in kglobalshortcutsrc, then asks KWin to reload.
func (k *kdeBackend) Register(ctx context.Context, b Binding) error {
	if err := k.writeService(b); err != nil {
		return err
	}
	keys := make([]string, len(b.Combos))
	for i, c := range b.Combos {
		keys[i] = c.Qt()
	}
	_, err := run(ctx, k.run, k.tool,
		"--file", "kglobalshortcutsrc",
		"--group", "services",
		"--group", kdeServiceFile,
		"--key", "_launch",
		strings.Join(keys, "\t"),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", k.tool, err)
	}
	k.reconfigure(ctx)
	return nil
}

func (k *kdeBackend) writeService(b Binding) error {
	dir := filepath.Join(k.dataDir, "applications")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	entry := fmt.Sprintf("[Desktop Entry]\nType=Application\nName=%s\nExec=%s\nNoDisplay=true\nX-KDE-GlobalAccel-CommandShortcut=true\n",
		b.Name, b.Command)
	path := filepath.Join(dir, kdeServiceFile)
	if err := os.WriteFile(path, []byte(entry), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func (k *kdeBackend) reconfigure(ctx context.Context) {
	if k.bus == nil {
		slog.Info("no session bus, KDE picks up the shortcut after re-login")
		return
	}
	if _, err := k.bus.Call(ctx, "org.kde.KWin", "/KWin", "org.kde.KWin.reconfigure"); err != nil {
		slog.Warn("KWin reconfigure failed", "err", err)
	}
}
