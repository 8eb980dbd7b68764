package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenMissingUsesDefaults(t *testing.T) {
	m, err := Open(filepath.Join(t.TempDir(), "clipd"))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Get(); got != Default() {
		t.Errorf("Get = %+v", got)
	}
	if _, err := os.Stat(m.Path()); !errors.Is(err, os.ErrNotExist) {
		t.Error("Open wrote a settings file")
	}
}

func TestSetPersistsAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := Default()
	s.Theme = "neon"
	s.MaxHistoryItems = 5000
	s.DarkBackgroundOpacity = 1.5
	s.EnableKaomoji = false

	got, err := m.Set(s)
	if err != nil {
		t.Fatal(err)
	}
	if got.Theme != ThemeSystem || got.MaxHistoryItems != MaxHistoryItems || got.DarkBackgroundOpacity != 1 {
		t.Errorf("Set returned %+v", got)
	}

	again, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if again.Get() != got {
		t.Errorf("reloaded %+v, want %+v", again.Get(), got)
	}
}

func TestNormalizeClampsHistory(t *testing.T) {
	tests := []struct{ in, want int }{
		{0, 1}, {-3, 1}, {1, 1}, {50, 50}, {1000, 1000}, {1001, 1000},
	}
	for _, tt := range tests {
		s := Default()
		s.MaxHistoryItems = tt.in
		if got := s.Normalize().MaxHistoryItems; got != tt.want {
			t.Errorf("Normalize(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("theme = \"dark\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := m.Get()
	if got.Theme != ThemeDark || got.MaxHistoryItems != DefaultHistoryItems || !got.EnableEmoji {
		t.Errorf("Get = %+v", got)
	}
}

func TestMalformedFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("theme = [broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	m, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	if m.Get() != Default() {
		t.Errorf("Get = %+v", m.Get())
	}
	b, _ := os.ReadFile(m.Path())
	if string(b) != "theme = [broken" {
		t.Error("malformed user file was overwritten")
	}
}

func TestFirstRunMarker(t *testing.T) {
	m, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsFirstRun() {
		t.Fatal("fresh dir is not first run")
	}
	if err := m.MarkFirstRunComplete(); err != nil {
		t.Fatal(err)
	}
	if m.IsFirstRun() {
		t.Error("still first run after marking")
	}
}

func TestWatchReportsExternalEdits(t *testing.T) {
	dir := t.TempDir()
	m, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan UserSettings, 4)
	ready := make(chan struct{})
	go func() {
		close(ready)
		m.Watch(ctx, func(s UserSettings) { changes <- s })
	}()
	<-ready
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(m.Path(), []byte("max_history_items = 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-changes:
		if s.MaxHistoryItems != 7 {
			t.Errorf("MaxHistoryItems = %d", s.MaxHistoryItems)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("external edit not reported")
	}
	if m.Get().MaxHistoryItems != 7 {
		t.Error("manager did not adopt the edit")
	}

	// A write through Set is already current and is not re-reported.
	s := m.Get()
	s.Theme = ThemeLight
	if _, err := m.Set(s); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-changes:
		t.Errorf("own write reported as change: %+v", s)
	case <-time.After(400 * time.Millisecond):
	}
}
