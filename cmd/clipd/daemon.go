package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipd/internal/daemon"
	"go.klb.dev/clipd/internal/position"
)

func newDaemonCmd() *cobra.Command {
	v := viper.New()
	def := daemon.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the clipboard history daemon",
		Long: `Starts clipd: watches the clipboard, keeps the history, serves the
command socket and, on X11, grabs Super+V to toggle the panel.

Every flag can also be set as a key in clipd.toml or as CLIPD_<FLAG>
(dashes become underscores). Flags beat the environment, which beats the
file.`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("data-dir", def.DataDir, "directory holding the history database")
	f.String("settings-dir", def.SettingsDir, "directory holding settings.toml and the first-run marker")
	f.Duration("poll-interval", def.PollInterval, "clipboard poll interval when change notification is unavailable")
	f.Duration("flush-interval", def.FlushInterval, "how often a changed history is written to disk")
	f.Int("max-image-side", def.Watcher.MaxImageSide, "downscale captured images whose longest side exceeds this")
	f.Int("max-text-bytes", def.Watcher.MaxTextBytes, "ignore text selections larger than this")
	f.Int("thumb-size", def.Watcher.ThumbSide, "longest side of image previews")
	f.Duration("confirm-timeout", def.Inject.ConfirmTimeout, "how long to wait for a clipboard write to read back before pasting")
	f.Duration("wayland-settle", def.Inject.WaylandSettle, "pause between clipboard write and keystroke on Wayland")
	f.String("uinput", def.UinputPath, "virtual input device node")
	f.Int("panel-width", def.PanelSize.W, "panel width used for placement")
	f.Int("panel-height", def.PanelSize.H, "panel height used for placement")
	f.Int("panel-margin", def.PanelMargin, "minimum distance between panel and monitor edge")
	f.String("hotkey-command", def.HotkeyCommand, "command desktop shortcuts run")
	f.Bool("grab-hotkey", def.GrabHotkey, "grab Super+V directly on X11 sessions")
	addClientFlags(cmd)
	addLoggingFlags(cmd)

	return cmd
}

func daemonConfig(v *viper.Viper) daemon.Config {
	cfg := daemon.DefaultConfig()
	cfg.Version = Version
	cfg.SocketPath = v.GetString("socket")
	cfg.DataDir = v.GetString("data-dir")
	cfg.SettingsDir = v.GetString("settings-dir")
	cfg.PollInterval = v.GetDuration("poll-interval")
	cfg.FlushInterval = v.GetDuration("flush-interval")
	cfg.Watcher.MaxImageSide = v.GetInt("max-image-side")
	cfg.Watcher.MaxTextBytes = v.GetInt("max-text-bytes")
	cfg.Watcher.ThumbSide = v.GetInt("thumb-size")
	cfg.Inject.ConfirmTimeout = v.GetDuration("confirm-timeout")
	cfg.Inject.WaylandSettle = v.GetDuration("wayland-settle")
	cfg.UinputPath = v.GetString("uinput")
	cfg.PanelSize = position.Size{W: v.GetInt("panel-width"), H: v.GetInt("panel-height")}
	cfg.PanelMargin = v.GetInt("panel-margin")
	cfg.HotkeyCommand = v.GetString("hotkey-command")
	cfg.GrabHotkey = v.GetBool("grab-hotkey")
	return cfg
}

func runDaemon(parent context.Context, v *viper.Viper) error {
	setupLogging(v)
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return daemon.Run(ctx, daemonConfig(v))
}
