// Package sysexec runs the desktop helper programs clipd depends on
// (wl-clipboard, gsettings, kwriteconfig, xfconf-query, pkexec, setfacl)
// behind an interface that tests replace.
package sysexec

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process
// exits. wl-copy forks a server that inherits them and outlives the call.
const waitDelay = 200 * time.Millisecond

// Result is the captured outcome of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner starts external programs.
type Runner interface {
	// Run executes name with args, feeding stdin when non-nil. A non-zero
	// exit is returned as *ExitError alongside the populated Result.
	Run(ctx context.Context, stdin []byte, name string, args ...string) (Result, error)
	// Lines runs a long-lived command and calls fn with each stdout line
	// until the command exits or ctx ends. Exit errors match Run.
	Lines(ctx context.Context, fn func(line string), name string, args ...string) error
	// LookPath resolves name on PATH.
	LookPath(name string) (string, error)
}

// ExitError reports a command that ran but exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s exited %d: %s", e.Name, e.Code, e.Stderr)
	}
	return fmt.Sprintf("%s exited %d", e.Name, e.Code)
}

// ExitCode returns the exit status carried by err, or -1.
func ExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return -1
}

// OS is the Runner backed by os/exec.
type OS struct{}

func (OS) Run(ctx context.Context, stdin []byte, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	cmd.WaitDelay = waitDelay
	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	err = exitError(ctx, cmd, name, err, &stderr)
	var ee *ExitError
	if errors.As(err, &ee) {
		res.ExitCode = ee.Code
	}
	return res, err
}

func (OS) Lines(ctx context.Context, fn func(line string), name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	out, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		fn(sc.Text())
	}
	return exitError(ctx, cmd, name, cmd.Wait(), &stderr)
}

// exitError maps the outcome of a finished cmd to the errors Runner
// documents.
func exitError(ctx context.Context, cmd *exec.Cmd, name string, err error, stderr *bytes.Buffer) error {
	if err == nil || (errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState.Success()) {
		return nil
	}
	if ctx.Err() != nil {
		return fmt.Errorf("%s: %w", name, ctx.Err())
	}
	var xe *exec.ExitError
	if errors.As(err, &xe) {
		return &ExitError{Name: name, Code: xe.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (OS) LookPath(name string) (string, error) { return exec.LookPath(name) }
