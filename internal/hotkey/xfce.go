package hotkey

import (
	"context"
	"fmt"
	"log/slog"

	"go.klb.dev/clipd/internal/sysexec"
)

const xfceChannel = "xfce4-keyboard-shortcuts"

type xfceBackend struct {
	run sysexec.Runner
	bus SessionBus
}

func (x *xfceBackend) Name() string { return "xfce" }

func (x *xfceBackend) Register(ctx context.Context, b Binding) error {
	for _, c := range b.Combos {
		prop := "/commands/custom/" + c.GTK()
		if _, err := run(ctx, x.run, "xfconf-query", "-c", xfceChannel, "-p", prop, "-s", b.Command); err != nil {
			// Property does not exist yet.
			if _, err := run(ctx, x.run, "xfconf-query", "-c", xfceChannel, "-p", prop, "-n", "-t", "string", "-s", b.Command); err != nil {
				return fmt.Errorf("xfconf-query %s: %w", prop, err)
			}
		}
		got, err := x.read(ctx, prop)
		if err != nil {
			return fmt.Errorf("verify %s: %w", prop, err)
		}
		if got != b.Command {
			return fmt.Errorf("verify %s: bound to %q", prop, got)
		}
	}
	return nil
}

// read fetches a property over D-Bus, falling back to xfconf-query.
func (x *xfceBackend) read(ctx context.Context, prop string) (string, error) {
	if x.bus != nil {
		body, err := x.bus.Call(ctx, "org.xfce.Xfconf", "/org/xfce/Xfconf", "org.xfce.Xfconf.GetProperty", xfceChannel, prop)
		if err == nil && len(body) == 1 {
			if s, ok := variantString(body[0]); ok {
				return s, nil
			}
		}
		slog.Debug("xfconf D-Bus read failed, using xfconf-query", "prop", prop, "err", err)
	}
	return run(ctx, x.run, "xfconf-query", "-c", xfceChannel, "-p", prop)
}
