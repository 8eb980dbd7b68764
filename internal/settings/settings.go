// Package settings stores the user-facing preferences edited from the panel
// and the first-run marker.
package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"go.klb.dev/clipd/internal/apperr"
)

const (
	FileName   = "settings.toml"
	markerName = ".setup-complete"

	MinHistoryItems     = 1
	MaxHistoryItems     = 1000
	DefaultHistoryItems = 50
)

// Theme names accepted in UserSettings.Theme.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// UserSettings are the panel preferences.
type UserSettings struct {
	Theme                  string  `toml:"theme" json:"theme"`
	DarkBackgroundOpacity  float64 `toml:"dark_background_opacity" json:"dark_background_opacity"`
	LightBackgroundOpacity float64 `toml:"light_background_opacity" json:"light_background_opacity"`
	EnableEmoji            bool    `toml:"enable_emoji" json:"enable_emoji"`
	EnableKaomoji          bool    `toml:"enable_kaomoji" json:"enable_kaomoji"`
	EnableSymbols          bool    `toml:"enable_symbols" json:"enable_symbols"`
	MaxHistoryItems        int     `toml:"max_history_items" json:"max_history_items"`
}

// Default returns the settings used before the user changes anything.
func Default() UserSettings {
	return UserSettings{
		Theme:                  ThemeSystem,
		DarkBackgroundOpacity:  0.85,
		LightBackgroundOpacity: 0.9,
		EnableEmoji:            true,
		EnableKaomoji:          true,
		EnableSymbols:          true,
		MaxHistoryItems:        DefaultHistoryItems,
	}
}

// Normalize returns s with out-of-range values brought into range.
func (s UserSettings) Normalize() UserSettings {
	switch s.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		s.Theme = ThemeSystem
	}
	s.DarkBackgroundOpacity = min(max(s.DarkBackgroundOpacity, 0), 1)
	s.LightBackgroundOpacity = min(max(s.LightBackgroundOpacity, 0), 1)
	s.MaxHistoryItems = min(max(s.MaxHistoryItems, MinHistoryItems), MaxHistoryItems)
	return s
}

// Manager loads, saves and watches the settings file.
type Manager struct {
	dir string

	mu  sync.RWMutex
	cur UserSettings
}

// DefaultDir returns $XDG_CONFIG_HOME/clipd.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "clipd"), nil
}

// Open loads dir/settings.toml, creating dir if needed. A missing file
// yields Default; a malformed one is logged and replaced by Default in
// memory only, so the user's file is never overwritten on parse errors.
func Open(dir string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create settings dir: %w", err)
	}
	m := &Manager{dir: dir}
	s, err := m.read()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s = Default()
	case err != nil:
		slog.Warn("settings unreadable, using defaults", "path", m.Path(), "err", err)
		s = Default()
	}
	m.cur = s
	return m, nil
}

// Path is the settings file location.
func (m *Manager) Path() string { return filepath.Join(m.dir, FileName) }

// Get returns the current settings.
func (m *Manager) Get() UserSettings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// Set normalizes s, writes it and makes it current.
func (m *Manager) Set(s UserSettings) (UserSettings, error) {
	s = s.Normalize()
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(s); err != nil {
		return UserSettings{}, fmt.Errorf("encode settings: %w: %w", apperr.ErrSerialization, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := writeAtomic(m.Path(), buf.Bytes()); err != nil {
		return UserSettings{}, err
	}
	m.cur = s
	return s, nil
}

func (m *Manager) read() (UserSettings, error) {
	s := Default()
	if _, err := toml.DecodeFile(m.Path(), &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return UserSettings{}, err
		}
		return UserSettings{}, fmt.Errorf("decode %s: %w: %w", m.Path(), apperr.ErrSerialization, err)
	}
	return s.Normalize(), nil
}

// reload re-reads the file and reports whether the settings changed.
func (m *Manager) reload() (UserSettings, bool, error) {
	s, err := m.read()
	if err != nil {
		return UserSettings{}, false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s == m.cur {
		return s, false, nil
	}
	m.cur = s
	return s, true, nil
}

// IsFirstRun reports whether setup has not been completed yet.
func (m *Manager) IsFirstRun() bool {
	_, err := os.Stat(filepath.Join(m.dir, markerName))
	return errors.Is(err, fs.ErrNotExist)
}

// MarkFirstRunComplete creates the first-run marker.
func (m *Manager) MarkFirstRunComplete() error {
	if err := os.WriteFile(filepath.Join(m.dir, markerName), nil, 0o600); err != nil {
		return fmt.Errorf("write setup marker: %w", err)
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
