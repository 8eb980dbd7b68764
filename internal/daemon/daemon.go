// Package daemon assembles the clipd components and supervises their
// goroutines.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/clip"
	"go.klb.dev/clipd/internal/events"
	"go.klb.dev/clipd/internal/history"
	"go.klb.dev/clipd/internal/hotkey"
	"go.klb.dev/clipd/internal/inject"
	"go.klb.dev/clipd/internal/ipc"
	"go.klb.dev/clipd/internal/panel"
	"go.klb.dev/clipd/internal/permission"
	"go.klb.dev/clipd/internal/position"
	"go.klb.dev/clipd/internal/rpc"
	"go.klb.dev/clipd/internal/session"
	"go.klb.dev/clipd/internal/settings"
	"go.klb.dev/clipd/internal/storage"
	"go.klb.dev/clipd/internal/sysexec"
	"go.klb.dev/clipd/internal/watcher"
	"go.klb.dev/clipd/internal/xkeys"
)

// Config holds everything the daemon reads from flags and clipd.toml.
type Config struct {
	Version       string
	SocketPath    string
	DataDir       string
	SettingsDir   string
	PollInterval  time.Duration
	FlushInterval time.Duration
	Watcher       watcher.Config
	Inject        inject.Config
	UinputPath    string
	PanelSize     position.Size
	PanelMargin   int
	HotkeyCommand string
	// GrabHotkey grabs Super+V directly on X11 sessions.
	GrabHotkey bool
}

// DefaultConfig fills in paths under the XDG base directories.
func DefaultConfig() Config {
	dataDir := filepath.Join(xdgDir("XDG_DATA_HOME", ".local/share"), "clipd")
	settingsDir, err := settings.DefaultDir()
	if err != nil {
		settingsDir = filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "clipd")
	}
	return Config{
		Version:       "dev",
		SocketPath:    ipc.SocketPath(),
		DataDir:       dataDir,
		SettingsDir:   settingsDir,
		PollInterval:  250 * time.Millisecond,
		FlushInterval: 5 * time.Second,
		Watcher:       watcher.DefaultConfig(),
		Inject:        inject.DefaultConfig(),
		UinputPath:    permission.DefaultPath,
		PanelSize:     position.Size{W: 360, H: 480},
		PanelMargin:   8,
		HotkeyCommand: "clipd toggle",
		GrabHotkey:    true,
	}
}

func xdgDir(env, fallback string) string {
	if d := os.Getenv(env); d != "" {
		return d
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return os.TempDir()
	}
	return filepath.Join(home, fallback)
}

// Run starts the daemon and blocks until ctx is cancelled or a component
// fails. History is flushed to disk before it returns.
func Run(ctx context.Context, cfg Config) error {
	started := time.Now()
	info := session.Current()
	runner := sysexec.OS{}

	ln, err := ipc.Listen(cfg.SocketPath)
	if err != nil {
		return err
	}
	defer ln.Close()

	db, err := storage.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	prefs, err := settings.Open(cfg.SettingsDir)
	if err != nil {
		return err
	}

	store := history.NewStore(prefs.Get().MaxHistoryItems)
	if err := restore(ctx, db, store); err != nil {
		return err
	}

	bus := events.NewBus()
	backend := clip.New(info, cfg.PollInterval, runner)
	defer backend.Close()
	w := watcher.New(backend, store, bus, cfg.Watcher)

	perm := permission.New(runner)
	perm.Path = cfg.UinputPath

	positioner := &position.Positioner{Panel: cfg.PanelSize, Margin: cfg.PanelMargin, Saved: db}
	var focus panel.FocusKeeper
	if disp, err := position.OpenX11(position.DisplayName(info)); err != nil {
		slog.Warn("no X display, panel uses fallback placement", "err", err)
	} else {
		defer disp.Close()
		positioner.Display = disp
		focus = disp
	}
	dispatcher := panel.New(positioner, focus, bus)

	// XTEST only reaches X clients, so it is no substitute for uinput under
	// XWayland.
	var fallback inject.Keyboard
	if info.Type == session.X11 {
		if xt, err := xkeys.OpenXTest(position.DisplayName(info)); err != nil {
			slog.Debug("xtest paste fallback unavailable", "err", err)
		} else {
			defer xt.Close()
			fallback = xt
		}
	}

	injectCfg := cfg.Inject
	injectCfg.Wayland = info.IsWayland()
	injector := inject.New(inject.Options{
		Store:      store,
		Clipboard:  backend,
		Permission: perm,
		Keyboard:   inject.NewUinput(perm.Path),
		Fallback:   fallback,
		Panel:      dispatcher,
		Suppress:   w.Suppress,
		Usage:      db,
		Config:     injectCfg,
	})

	sessionBus, err := hotkey.ConnectSessionBus()
	if err != nil {
		slog.Debug("session bus unavailable", "err", err)
	} else {
		defer sessionBus.Close()
	}
	registrar := hotkey.New(hotkey.Options{
		Getenv:  os.Getenv,
		Runner:  runner,
		Bus:     sessionBus,
		Command: cfg.HotkeyCommand,
		DataDir: xdgDir("XDG_DATA_HOME", ".local/share"),
	})

	svc := &rpc.Service{
		Store:       store,
		Bus:         bus,
		Paster:      injector,
		Permissions: perm,
		Shortcuts:   registrar,
		Settings:    prefs,
		Panel:       dispatcher,
		Usage:       db,
		Info: rpc.Info{
			Version:          cfg.Version,
			Session:          string(info.Type),
			ClipboardBackend: backend.Name(),
			HotkeyCommand:    cfg.HotkeyCommand,
			StartedAt:        started,
			Captured:         w.Captured,
		},
	}

	slog.Info("clipd daemon starting",
		"version", cfg.Version,
		"session", info.Type,
		"clipboard", backend.Name(),
		"desktop", registrar.Desktop(),
		"hotkey_backend", registrar.Tools().Backend,
		"socket", cfg.SocketPath,
		"items", store.Len(),
	)
	if st := perm.Check(ctx); !st.UinputAccessible {
		if fallback != nil {
			slog.Warn("uinput not accessible, pasting through XTEST", "path", st.UinputPath)
		} else {
			slog.Warn("paste injection unavailable until uinput is accessible", "path", st.UinputPath)
		}
	}
	if prefs.IsFirstRun() {
		bus.Emit(events.ShowSetupWizard, nil)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })
	g.Go(func() error { return injector.Run(gctx) })
	g.Go(func() error { return dispatcher.Run(gctx) })
	g.Go(func() error {
		if err := prefs.Watch(gctx, svc.ApplySettings); err != nil {
			slog.Warn("settings file not watched, external edits need a restart", "err", err)
		}
		return nil
	})
	g.Go(func() error { return flushLoop(gctx, db, store, cfg.FlushInterval) })
	g.Go(func() error { return rpc.NewServer(svc).Serve(gctx, ln) })
	if cfg.GrabHotkey && info.Type == session.X11 {
		g.Go(func() error {
			if err := xkeys.Listen(gctx, position.DisplayName(info), dispatcher.Trigger); err != nil {
				slog.Warn("global shortcut not grabbed, rely on the desktop shortcut", "err", err)
			}
			return nil
		})
	}

	err = g.Wait()

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ferr := db.SaveHistory(flushCtx, store.Snapshot()); ferr != nil {
		slog.Error("final history flush failed", "err", ferr)
	} else {
		slog.Info("history flushed", "items", store.Len())
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// restore loads persisted history. Malformed data is logged and skipped so
// a corrupt database never keeps the daemon from starting.
func restore(ctx context.Context, db *storage.DB, store *history.Store) error {
	items, err := db.LoadHistory(ctx)
	switch {
	case errors.Is(err, apperr.ErrSerialization):
		slog.Warn("stored history unreadable, starting empty", "err", err)
		return nil
	case err != nil:
		return fmt.Errorf("load history: %w", err)
	}
	if evicted := store.Load(items); len(evicted) > 0 {
		slog.Info("stored history trimmed to capacity", "evicted", len(evicted))
	}
	slog.Debug("history restored", "items", store.Len())
	return nil
}

// Saver persists history snapshots.
type Saver interface {
	SaveHistory(ctx context.Context, items []history.Item) error
}

// flushLoop saves the history every interval when it changed.
func flushLoop(ctx context.Context, s Saver, store *history.Store, interval time.Duration) error {
	saved := store.Version()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			v := store.Version()
			if v == saved {
				continue
			}
			if err := s.SaveHistory(ctx, store.Snapshot()); err != nil {
				slog.Warn("history flush failed", "err", err)
				continue
			}
			saved = v
			slog.Debug("history flushed", "version", v)
		}
	}
}
