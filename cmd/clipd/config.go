package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipd/internal/ipc"
	"go.klb.dev/clipd/internal/logging"
)

// configDirs lists where clipd.toml is looked up, lowest priority first.
func configDirs() []string {
	dirs := []string{"/etc/clipd"}
	if d, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, filepath.Join(d, "clipd"))
	}
	return dirs
}

// bindViper loads clipd.toml, CLIPD_* variables and the command's flags
// into v. Later sources win: defaults, file, env, flags. Flag names map to
// env names with dashes turned into underscores (--poll-interval is
// CLIPD_POLL_INTERVAL).
func bindViper(cmd *cobra.Command, v *viper.Viper) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("clipd")
		v.SetConfigType("toml")
		dirs := configDirs()
		for i := len(dirs) - 1; i >= 0; i-- {
			v.AddConfigPath(dirs[i])
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("config: %w", err)
		}
	}

	v.SetEnvPrefix("CLIPD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	return nil
}

func addLoggingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("no-background", false, "run in the foreground with coloured debug logs")
	f.String("log-format", "auto", "log format: auto|text|json")
	f.String("log-level", "", "log level: debug|info|warn|error (default info, debug with --no-background)")
}

// addClientFlags adds the flags every command that reaches the daemon needs.
func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("socket", ipc.SocketPath(), "daemon socket path")
	cmd.Flags().String("config", "", "path to clipd.toml (skips the search path)")
}

func setupLogging(v *viper.Viper) {
	interactive := v.GetBool("no-background") || logging.IsTTY(os.Stderr)
	logging.Setup(logging.Resolve(v.GetString("log-format"), v.GetString("log-level"), interactive))
}
