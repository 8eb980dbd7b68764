package sysexec

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
)

// Call records one invocation seen by Fake.
type Call struct {
	Name  string
	Args  []string
	Stdin []byte
}

// Line renders the call as a shell-like string for assertions.
func (c Call) Line() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Fake is a scripted Runner for tests. Handler decides the outcome of each
// Run call and Stream drives each Lines call; Paths lists the programs
// LookPath finds.
type Fake struct {
	Paths   map[string]string
	Handler func(c Call) (Result, error)
	Stream  func(ctx context.Context, c Call, emit func(line string)) error

	mu    sync.Mutex
	calls []Call
}

func (f *Fake) Run(_ context.Context, stdin []byte, name string, args ...string) (Result, error) {
	c := Call{Name: name, Args: append([]string(nil), args...), Stdin: stdin}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.Handler == nil {
		return Result{}, nil
	}
	return f.Handler(c)
}

func (f *Fake) Lines(ctx context.Context, fn func(line string), name string, args ...string) error {
	c := Call{Name: name, Args: append([]string(nil), args...)}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if f.Stream == nil {
		return nil
	}
	return f.Stream(ctx, c, fn)
}

func (f *Fake) LookPath(name string) (string, error) {
	if p, ok := f.Paths[name]; ok {
		return p, nil
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// Calls returns the invocations so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Fail returns an ExitError with the given code and stderr.
func Fail(name string, code int, stderr string) (Result, error) {
	return Result{Stderr: []byte(stderr), ExitCode: code}, &ExitError{Name: name, Code: code, Stderr: stderr}
}

// IsNotFound reports whether err came from a LookPath miss.
func IsNotFound(err error) bool { return errors.Is(err, exec.ErrNotFound) }
