package settings

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// Watch calls onChange whenever the settings file is edited outside the
// daemon. Writes made through Set do not trigger it. The directory is
// watched rather than the file so editors that replace the file by rename
// are seen.
func (m *Manager) Watch(ctx context.Context, onChange func(UserSettings)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("settings watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(m.dir); err != nil {
		return fmt.Errorf("watch %s: %w", m.dir, err)
	}

	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != FileName || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("settings watcher error", "err", err)
		case <-timer.C:
			s, changed, err := m.reload()
			if err != nil {
				slog.Warn("settings file changed but could not be read", "path", m.Path(), "err", err)
				continue
			}
			if changed {
				slog.Info("settings reloaded", "path", m.Path())
				onChange(s)
			}
		}
	}
}
