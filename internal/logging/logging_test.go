package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"json":   FormatJSON,
		"JSON":   FormatJSON,
		"tint":   FormatText,
		" text ": FormatText,
		"":       FormatAuto,
		"yaml":   FormatAuto,
	}
	for in, want := range tests {
		if got := ParseFormat(in); got != want {
			t.Errorf("ParseFormat(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	if got := ParseLevel("debug"); got != slog.LevelDebug {
		t.Errorf("debug -> %v", got)
	}
	if got := ParseLevel("WARN"); got != slog.LevelWarn {
		t.Errorf("WARN -> %v", got)
	}
	if got := ParseLevel("loud"); got != slog.LevelInfo {
		t.Errorf("unknown -> %v", got)
	}
}

func TestAutoFormatIsJSONOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewHandler(&buf, Options{Format: FormatAuto, Level: slog.LevelInfo}))
	log.Info("hello", "n", 1)
	log.Debug("hidden")

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("not a single JSON record: %v\n%s", err, buf.String())
	}
	if rec["msg"] != "hello" {
		t.Errorf("msg = %v", rec["msg"])
	}
	if _, ok := rec["source"]; ok {
		t.Error("source added at info level")
	}
}

func TestDebugAddsSource(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, Options{Format: FormatJSON, Level: slog.LevelDebug})).Debug("x")
	if !strings.Contains(buf.String(), `"source"`) {
		t.Errorf("no source in %s", buf.String())
	}
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, Options{Format: FormatText, Level: slog.LevelInfo})).Info("plain words")
	if !strings.Contains(buf.String(), "plain words") {
		t.Errorf("output %q", buf.String())
	}
	if strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Error("text format produced JSON")
	}
}

func TestResolveDefaultLevel(t *testing.T) {
	tests := []struct {
		level       string
		interactive bool
		want        slog.Level
	}{
		{"", false, slog.LevelInfo},
		{"", true, slog.LevelDebug},
		{"warn", true, slog.LevelWarn},
		{"error", false, slog.LevelError},
	}
	for _, tt := range tests {
		if got := Resolve("auto", tt.level, tt.interactive).Level; got != tt.want {
			t.Errorf("Resolve(%q, %v) level = %v, want %v", tt.level, tt.interactive, got, tt.want)
		}
	}
}
