package hotkey

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"
)

// SessionBus is the subset of a D-Bus connection the backends need.
type SessionBus interface {
	Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...any) ([]any, error)
	Close() error
}

type godbusSession struct {
	conn *dbus.Conn
}

// ConnectSessionBus opens a private connection to the user's session bus.
func ConnectSessionBus() (SessionBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}
	return &godbusSession{conn: conn}, nil
}

func (s *godbusSession) Call(ctx context.Context, dest string, path dbus.ObjectPath, method string, args ...any) ([]any, error) {
	call := s.conn.Object(dest, path).CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		return nil, call.Err
	}
	return call.Body, nil
}

func (s *godbusSession) Close() error { return s.conn.Close() }

// variantString unwraps a string that may arrive boxed in a dbus.Variant.
func variantString(v any) (string, bool) {
	if vv, ok := v.(dbus.Variant); ok {
		v = vv.Value()
	}
	s, ok := v.(string)
	return s, ok
}
