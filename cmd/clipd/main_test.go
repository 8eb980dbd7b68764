package main

import (
	"os"
	"os/exec"
	"strings"
	"testing"
)

// The whole import graph of the binary must initialise without an X or
// Wayland display, e.g. under a systemd user unit or over ssh.
func TestStartsWithoutDisplay(t *testing.T) {
	if os.Getenv("CLIPD_TEST_HEADLESS") == "1" {
		if err := newVersionCmd().Execute(); err != nil {
			t.Fatal(err)
		}
		return
	}
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "DISPLAY=") || strings.HasPrefix(kv, "WAYLAND_DISPLAY=") {
			continue
		}
		env = append(env, kv)
	}
	cmd := exec.Command(os.Args[0], "-test.run=^TestStartsWithoutDisplay$", "-test.v")
	cmd.Env = append(env, "CLIPD_TEST_HEADLESS=1")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("headless run failed: %v\n%s", err, out)
	}
	if !strings.Contains(string(out), "clipd "+Version) {
		t.Errorf("version not printed:\n%s", out)
	}
}
