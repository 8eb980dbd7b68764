package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/clipd/internal/events"
	"go.klb.dev/clipd/internal/rpc"
)

func newToggleCmd() *cobra.Command {
	return clientCmd("toggle", "Show or hide the history panel", cobra.NoArgs, callTimeout,
		func(ctx context.Context, c *rpc.Client, _ *viper.Viper, _ []string) error {
			_, err := c.Toggle(ctx)
			return err
		})
}

func newHistoryCmd() *cobra.Command {
	cmd := clientCmd("history", "List the clipboard history", cobra.NoArgs, callTimeout,
		func(ctx context.Context, c *rpc.Client, v *viper.Viper, _ []string) error {
			h, err := c.GetHistory(ctx)
			if err != nil {
				return fmt.Errorf("history: %w", err)
			}
			if v.GetBool("json") {
				return printJSON(h)
			}
			printHistory(os.Stdout, h)
			return nil
		})
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func newClearCmd() *cobra.Command {
	return clientCmd("clear", "Remove every unpinned history entry", cobra.NoArgs, callTimeout,
		func(ctx context.Context, c *rpc.Client, _ *viper.Viper, _ []string) error {
			n, err := c.ClearHistory(ctx)
			if err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			fmt.Printf("removed %d entries\n", n)
			return nil
		})
}

func newDeleteCmd() *cobra.Command {
	return clientCmd("delete ID", "Remove one history entry", cobra.ExactArgs(1), callTimeout,
		func(ctx context.Context, c *rpc.Client, _ *viper.Viper, args []string) error {
			if _, err := c.DeleteItem(ctx, args[0]); err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		})
}

func newPinCmd() *cobra.Command {
	return clientCmd("pin ID", "Pin or unpin a history entry", cobra.ExactArgs(1), callTimeout,
		func(ctx context.Context, c *rpc.Client, _ *viper.Viper, args []string) error {
			it, err := c.TogglePin(ctx, args[0])
			if err != nil {
				return fmt.Errorf("pin: %w", err)
			}
			state := "unpinned"
			if it.Pinned {
				state = "pinned"
			}
			fmt.Printf("%s %s\n", state, it.ID)
			return nil
		})
}

func newPasteCmd() *cobra.Command {
	return clientCmd("paste ID", "Paste a history entry into the focused window", cobra.ExactArgs(1), callTimeout,
		func(ctx context.Context, c *rpc.Client, _ *viper.Viper, args []string) error {
			if err := c.PasteItem(ctx, args[0]); err != nil {
				return fmt.Errorf("paste: %w", err)
			}
			return nil
		})
}

func newPasteTextCmd() *cobra.Command {
	cmd := clientCmd("paste-text TEXT", "Paste literal text into the focused window", cobra.ExactArgs(1), callTimeout,
		func(ctx context.Context, c *rpc.Client, v *viper.Viper, args []string) error {
			if err := c.PasteText(ctx, args[0], v.GetString("kind")); err != nil {
				return fmt.Errorf("paste: %w", err)
			}
			return nil
		})
	cmd.Flags().String("kind", "text", "text|emoji|kaomoji|symbol (picker kinds are remembered as recent)")
	return cmd
}

func newPermissionsCmd() *cobra.Command {
	cmd := clientCmd("permissions", "Check access to the virtual input device", cobra.NoArgs, 0,
		func(ctx context.Context, c *rpc.Client, v *viper.Viper, _ []string) error {
			if v.GetBool("fix") {
				res, err := c.FixPermissionsNow(ctx)
				if err != nil {
					return fmt.Errorf("fix permissions: %w", err)
				}
				if res.AlreadyAccessible {
					fmt.Println("already accessible")
				} else {
					fmt.Printf("ran: %s\n", res.Command)
				}
				printPermissions(os.Stdout, res.Status)
				return nil
			}
			st, err := c.CheckPermissions(ctx)
			if err != nil {
				return fmt.Errorf("check permissions: %w", err)
			}
			printPermissions(os.Stdout, st)
			return nil
		})
	cmd.Flags().Bool("fix", false, "grant access now through pkexec")
	return cmd
}

func newShortcutCmd() *cobra.Command {
	cmd := clientCmd("shortcut", "Inspect or register the desktop shortcut", cobra.NoArgs, callTimeout,
		func(ctx context.Context, c *rpc.Client, v *viper.Viper, _ []string) error {
			if v.GetBool("register") {
				res, err := c.RegisterDEShortcut(ctx)
				if err != nil {
					return fmt.Errorf("register shortcut: %w", err)
				}
				fmt.Printf("registered %q with %s\n", res.Command, res.Backend)
				return nil
			}
			t, err := c.CheckShortcutTools(ctx)
			if err != nil {
				return fmt.Errorf("shortcut tools: %w", err)
			}
			printShortcutTools(os.Stdout, t)
			return nil
		})
	cmd.Flags().Bool("register", false, "register Super+V (and Ctrl+Alt+V) with the desktop")
	return cmd
}

func newSettingsCmd() *cobra.Command {
	cmd := clientCmd("settings", "Show or change user settings", cobra.NoArgs, callTimeout,
		func(ctx context.Context, c *rpc.Client, v *viper.Viper, _ []string) error {
			s, err := c.GetUserSettings(ctx)
			if err != nil {
				return fmt.Errorf("settings: %w", err)
			}
			if v.IsSet("max-history") {
				s.MaxHistoryItems = v.GetInt("max-history")
				if s, err = c.SetUserSettings(ctx, s); err != nil {
					return fmt.Errorf("settings: %w", err)
				}
			}
			return printJSON(s)
		})
	cmd.Flags().Int("max-history", 0, "set the number of unpinned entries kept")
	return cmd
}

func newEventsCmd() *cobra.Command {
	cmd := clientCmd("events", "Stream daemon events as JSON lines", cobra.NoArgs, 0,
		func(ctx context.Context, c *rpc.Client, v *viper.Viper, _ []string) error {
			enc := json.NewEncoder(os.Stdout)
			return c.Events(ctx, v.GetStringSlice("name"), func(e events.Event) error {
				return enc.Encode(e)
			})
		})
	cmd.Flags().StringSlice("name", nil, "only these event names (repeatable)")
	return cmd
}

func newStatusCmd() *cobra.Command {
	cmd := clientCmd("status", "Show daemon status", cobra.NoArgs, callTimeout,
		func(ctx context.Context, c *rpc.Client, v *viper.Viper, _ []string) error {
			st, err := c.Status(ctx)
			if err != nil {
				return fmt.Errorf("status: %w", err)
			}
			if v.GetBool("json") {
				return printJSON(st)
			}
			printStatus(os.Stdout, st, v.GetString("socket"))
			return nil
		})
	cmd.Flags().Bool("json", false, "output raw JSON")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
