//go:build !linux

package clip

import (
	"errors"
	"time"
)

func newX11(time.Duration) (Backend, error) {
	return nil, errors.New("X11 clipboard is only supported on linux")
}
