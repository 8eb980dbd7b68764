package hotkey

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.klb.dev/clipd/internal/sysexec"
)

const commandTimeout = 5 * time.Second

// Binding associates key combinations with a command line.
type Binding struct {
	Name    string
	Command string
	Combos  []Combo
}

// Backend writes a binding into one desktop's shortcut store.
type Backend interface {
	Name() string
	Register(ctx context.Context, b Binding) error
}

// noneBackend stands for desktops without a supported tool.
type noneBackend struct{}

func (noneBackend) Name() string { return "none" }

func (noneBackend) Register(context.Context, Binding) error {
	return fmt.Errorf("no shortcut backend for this desktop")
}

// run executes one tool invocation with the package timeout and returns
// trimmed stdout.
func run(ctx context.Context, r sysexec.Runner, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	res, err := r.Run(ctx, nil, name, args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(res.Stdout)), nil
}
