// Package xkeys talks to the X server's keyboard: a passive grab for the
// global shortcut and XTEST fake key events for pasting. Connections are
// opened on demand, so importing the package never touches a display.
package xkeys

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Keysyms clipd needs (X11/keysymdef.h).
const (
	KeysymV        xproto.Keysym = 0x0076
	KeysymControlL xproto.Keysym = 0xffe3
)

// Keycode returns the keycode that produces sym in the current keymap.
func Keycode(conn *xgb.Conn, sym xproto.Keysym) (xproto.Keycode, error) {
	setup := xproto.Setup(conn)
	count := int(setup.MaxKeycode) - int(setup.MinKeycode) + 1
	reply, err := xproto.GetKeyboardMapping(conn, setup.MinKeycode, byte(count)).Reply()
	if err != nil {
		return 0, fmt.Errorf("read keyboard mapping: %w", err)
	}
	code, ok := findKeycode(reply.Keysyms, int(reply.KeysymsPerKeycode), setup.MinKeycode, sym)
	if !ok {
		return 0, fmt.Errorf("keysym %#x is not on the keyboard", uint32(sym))
	}
	return code, nil
}

// findKeycode searches a GetKeyboardMapping table. Unshifted columns are
// tried before shifted ones so plain keys win over level-two symbols.
func findKeycode(syms []xproto.Keysym, perCode int, min xproto.Keycode, sym xproto.Keysym) (xproto.Keycode, bool) {
	if perCode <= 0 {
		return 0, false
	}
	codes := len(syms) / perCode
	for col := 0; col < perCode; col++ {
		for i := 0; i < codes; i++ {
			if syms[i*perCode+col] == sym {
				return min + xproto.Keycode(i), true
			}
		}
	}
	return 0, false
}

// lockVariants returns mods combined with every CapsLock/NumLock state, since
// a passive grab only matches the exact modifier set.
func lockVariants(mods uint16) []uint16 {
	return []uint16{
		mods,
		mods | xproto.ModMaskLock,
		mods | xproto.ModMask2,
		mods | xproto.ModMaskLock | xproto.ModMask2,
	}
}
