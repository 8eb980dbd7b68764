//go:build !linux

package inject

import (
	"context"
	"errors"
	"time"
)

type Uinput struct {
	Path   string
	Settle time.Duration
	Gap    time.Duration
}

func NewUinput(path string) *Uinput { return &Uinput{Path: path} }

func (u *Uinput) Paste(context.Context) error {
	return errors.New("uinput is only available on linux")
}
