// clipd: clipboard history daemon for Linux desktops.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"go.klb.dev/clipd/internal/apperr"
)

// Version is stamped by the release build with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "clipd",
		Short: "Clipboard history daemon for X11 and Wayland",
		Long: `clipd watches the clipboard, keeps a bounded history with pinned entries,
and pastes a chosen entry back into the focused application.

Run "clipd daemon" once per session. The other sub-commands talk to the
running daemon over its Unix socket ($XDG_RUNTIME_DIR/clipd.sock, override
with CLIPD_SOCKET or --socket).

Settings for the daemon and the client commands are read from clipd.toml
in $XDG_CONFIG_HOME/clipd, then /etc/clipd, unless --config names a file.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newDaemonCmd(),
		newToggleCmd(),
		newHistoryCmd(),
		newClearCmd(),
		newDeleteCmd(),
		newPinCmd(),
		newPasteCmd(),
		newPasteTextCmd(),
		newPermissionsCmd(),
		newShortcutCmd(),
		newSettingsCmd(),
		newEventsCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		if hint := apperr.HintOf(err); hint != "" {
			fmt.Fprintf(os.Stderr, "\n%s\n", hint)
		}
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("clipd %s\n", Version)
		},
	}
}
