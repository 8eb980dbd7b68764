package xkeys

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Listen grabs Super+V on the root window of display and calls onTrigger
// for every press until ctx is cancelled. It fails when the display cannot
// be opened or another client already owns the grab.
func Listen(ctx context.Context, display string, onTrigger func()) error {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return fmt.Errorf("connect to X display %q: %w", display, err)
	}
	defer conn.Close()

	root := xproto.Setup(conn).DefaultScreen(conn).Root
	code, err := Keycode(conn, KeysymV)
	if err != nil {
		return err
	}
	for _, mods := range lockVariants(xproto.ModMask4) {
		err := xproto.GrabKeyChecked(conn, true, root, mods, code,
			xproto.GrabModeAsync, xproto.GrabModeAsync).Check()
		if err != nil {
			return fmt.Errorf("grab Super+V: %w", err)
		}
	}
	slog.Info("listening for global shortcut", "combo", "Super+V", "keycode", code)

	stop := context.AfterFunc(ctx, conn.Close)
	defer stop()
	for {
		ev, xerr := conn.WaitForEvent()
		switch {
		case ev == nil && xerr == nil:
			if ctx.Err() != nil {
				return nil
			}
			return errors.New("X connection closed")
		case xerr != nil:
			slog.Debug("x error on shortcut connection", "err", xerr)
		default:
			if kp, ok := ev.(xproto.KeyPressEvent); ok && kp.Detail == code {
				onTrigger()
			}
		}
	}
}
