package xkeys

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
	"github.com/jezek/xgb/xtest"
)

type keyEvent struct {
	typ  byte
	code xproto.Keycode
}

// chord is the Ctrl+V press/release order.
func chord(ctrl, v xproto.Keycode) []keyEvent {
	return []keyEvent{
		{xproto.KeyPress, ctrl},
		{xproto.KeyPress, v},
		{xproto.KeyRelease, v},
		{xproto.KeyRelease, ctrl},
	}
}

// XTest sends Ctrl+V through the XTEST extension. It needs no device
// permissions and serves X11 sessions where uinput is not accessible.
type XTest struct {
	mu   sync.Mutex
	conn *xgb.Conn
	root xproto.Window
	ctrl xproto.Keycode
	v    xproto.Keycode
	// Gap separates consecutive key events.
	Gap time.Duration
}

// OpenXTest connects to display and resolves the chord's keycodes.
func OpenXTest(display string) (*XTest, error) {
	conn, err := xgb.NewConnDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("connect to X display %q: %w", display, err)
	}
	if err := xtest.Init(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("XTEST extension: %w", err)
	}
	ctrl, err := Keycode(conn, KeysymControlL)
	if err != nil {
		conn.Close()
		return nil, err
	}
	v, err := Keycode(conn, KeysymV)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &XTest{
		conn: conn,
		root: xproto.Setup(conn).DefaultScreen(conn).Root,
		ctrl: ctrl,
		v:    v,
		Gap:  10 * time.Millisecond,
	}, nil
}

func (x *XTest) Paste(ctx context.Context) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, ev := range chord(x.ctrl, x.v) {
		if i > 0 {
			t := time.NewTimer(x.Gap)
			select {
			case <-ctx.Done():
				t.Stop()
				x.releaseAll()
				return ctx.Err()
			case <-t.C:
			}
		}
		err := xtest.FakeInputChecked(x.conn, ev.typ, byte(ev.code), 0, x.root, 0, 0, 0).Check()
		if err != nil {
			x.releaseAll()
			return fmt.Errorf("xtest key event: %w", err)
		}
	}
	return nil
}

// releaseAll lifts both keys so an interrupted chord never leaves Ctrl held.
func (x *XTest) releaseAll() {
	for _, code := range []xproto.Keycode{x.v, x.ctrl} {
		_ = xtest.FakeInputChecked(x.conn, xproto.KeyRelease, byte(code), 0, x.root, 0, 0, 0).Check()
	}
}

// Close drops the X connection.
func (x *XTest) Close() { x.conn.Close() }
