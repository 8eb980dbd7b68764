// Package ipc locates and manages the daemon's Unix socket. The socket
// carries both the gRPC command surface and the small HTTP/1 JSON surface.
package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"
)

// ErrAlreadyRunning is returned by Listen when another daemon answers on
// the socket.
var ErrAlreadyRunning = errors.New("clipd daemon already running")

// SocketPath returns the socket location:
//
//   - $CLIPD_SOCKET when set
//   - $XDG_RUNTIME_DIR/clipd.sock
//   - $TMPDIR/clipd-<uid>.sock otherwise
func SocketPath() string {
	return socketPath(os.Getenv)
}

func socketPath(getenv func(string) string) string {
	if s := getenv("CLIPD_SOCKET"); s != "" {
		return s
	}
	if dir := getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipd.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("clipd-%d.sock", os.Getuid()))
}

// IsRunning reports whether something accepts connections on path. It does
// a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	c, err := net.DialTimeout("unix", path, 500*time.Millisecond)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen creates the socket at path. A stale socket left by a crashed run is
// removed; a live one yields ErrAlreadyRunning. The socket is made
// owner-only.
func Listen(path string) (net.Listener, error) {
	if IsRunning(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrAlreadyRunning)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("chmod %s: %w", path, err)
	}
	return ln, nil
}

// Dial connects to the socket at path.
func Dial(ctx context.Context, path string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", path)
}
