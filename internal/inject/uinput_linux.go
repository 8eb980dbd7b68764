//go:build linux

package inject

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"go.klb.dev/clipd/internal/apperr"
)

// ioctl requests from linux/uinput.h.
const (
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiDevSetup   = 0x405c5503
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502

	busUSB = 0x03
)

type inputID struct {
	Bustype, Vendor, Product, Version uint16
}

type uinputSetup struct {
	ID           inputID
	Name         [80]byte
	FFEffectsMax uint32
}

// Uinput synthesizes the paste chord through a short-lived virtual keyboard
// created on the uinput device node.
type Uinput struct {
	Path string
	// Settle is the pause after creating the device so the compositor or X
	// server attaches it before the first key event.
	Settle time.Duration
	// Gap separates consecutive key events.
	Gap time.Duration
}

// NewUinput returns a keyboard on path with the usual timings.
func NewUinput(path string) *Uinput {
	return &Uinput{Path: path, Settle: 50 * time.Millisecond, Gap: 10 * time.Millisecond}
}

func (u *Uinput) Paste(ctx context.Context) error {
	f, err := os.OpenFile(u.Path, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("open %s: %w: %w", u.Path, apperr.ErrPermission, err)
		}
		return fmt.Errorf("open %s: %w", u.Path, err)
	}
	defer f.Close()
	fd := int(f.Fd())

	if err := createKeyboard(fd); err != nil {
		return err
	}
	defer unix.IoctlSetInt(fd, uiDevDestroy, 0)

	if err := sleep(ctx, u.Settle); err != nil {
		return err
	}
	for _, ev := range pasteChord() {
		if _, err := f.Write(ev); err != nil {
			return fmt.Errorf("write key event: %w", err)
		}
		if err := sleep(ctx, u.Gap); err != nil {
			return err
		}
	}
	// Let the last release reach clients before the device disappears.
	return sleep(ctx, u.Settle)
}

func createKeyboard(fd int) error {
	if err := unix.IoctlSetInt(fd, uiSetEvBit, evKey); err != nil {
		return fmt.Errorf("UI_SET_EVBIT: %w", err)
	}
	for _, key := range []int{keyLeftCtrl, keyV} {
		if err := unix.IoctlSetInt(fd, uiSetKeyBit, key); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT %d: %w", key, err)
		}
	}
	setup := uinputSetup{ID: inputID{Bustype: busUSB, Vendor: 0x1234, Product: 0x5678, Version: 1}}
	copy(setup.Name[:], deviceName)
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uiDevSetup, uintptr(unsafe.Pointer(&setup))); errno != 0 {
		return fmt.Errorf("UI_DEV_SETUP: %w", errno)
	}
	if err := unix.IoctlSetInt(fd, uiDevCreate, 0); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	return nil
}
