package sysexec

import (
	"context"
	"errors"
	"testing"
)

func TestOSRunCapturesOutput(t *testing.T) {
	r := OS{}
	if _, err := r.LookPath("sh"); err != nil {
		t.Skip("no sh on PATH")
	}
	res, err := r.Run(context.Background(), []byte("hi"), "sh", "-c", "cat; echo err >&2")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if string(res.Stdout) != "hi" {
		t.Errorf("stdout = %q", res.Stdout)
	}
	if string(res.Stderr) != "err\n" {
		t.Errorf("stderr = %q", res.Stderr)
	}
}

func TestOSRunExitCode(t *testing.T) {
	r := OS{}
	if _, err := r.LookPath("sh"); err != nil {
		t.Skip("no sh on PATH")
	}
	_, err := r.Run(context.Background(), nil, "sh", "-c", "echo nope >&2; exit 126")
	if got := ExitCode(err); got != 126 {
		t.Fatalf("ExitCode = %d (err %v)", got, err)
	}
	var ee *ExitError
	if !errors.As(err, &ee) || ee.Stderr != "nope" {
		t.Errorf("err = %#v", err)
	}
}

func TestOSLines(t *testing.T) {
	r := OS{}
	if _, err := r.LookPath("sh"); err != nil {
		t.Skip("no sh on PATH")
	}
	var got []string
	err := r.Lines(context.Background(), func(l string) { got = append(got, l) }, "sh", "-c", "echo one; echo two; exit 3")
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("lines = %q", got)
	}
	if ExitCode(err) != 3 {
		t.Errorf("err = %v, want exit 3", err)
	}
}

func TestFake(t *testing.T) {
	f := &Fake{
		Paths: map[string]string{"gsettings": "/usr/bin/gsettings"},
		Handler: func(c Call) (Result, error) {
			if c.Name == "bad" {
				return Fail("bad", 2, "boom")
			}
			return Result{Stdout: []byte("ok")}, nil
		},
	}
	if _, err := f.LookPath("gsettings"); err != nil {
		t.Error(err)
	}
	if _, err := f.LookPath("kwriteconfig6"); !IsNotFound(err) {
		t.Errorf("LookPath miss = %v", err)
	}
	f.Run(context.Background(), nil, "good", "a", "b")
	if _, err := f.Run(context.Background(), nil, "bad"); ExitCode(err) != 2 {
		t.Errorf("ExitCode = %d", ExitCode(err))
	}
	calls := f.Calls()
	if len(calls) != 2 || calls[0].Line() != "good a b" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestFakeLines(t *testing.T) {
	f := &Fake{Stream: func(_ context.Context, c Call, emit func(string)) error {
		emit(c.Line())
		return nil
	}}
	var got []string
	if err := f.Lines(context.Background(), func(l string) { got = append(got, l) }, "wl-paste", "--watch"); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "wl-paste --watch" {
		t.Errorf("lines = %q", got)
	}
	if calls := f.Calls(); len(calls) != 1 {
		t.Errorf("calls = %+v", calls)
	}
}
