// Package watcher turns clipboard changes into history entries.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/clip"
	"go.klb.dev/clipd/internal/events"
	"go.klb.dev/clipd/internal/history"
	"go.klb.dev/clipd/internal/imageutil"
	"go.klb.dev/clipd/internal/message"
)

const suppressFor = 3 * time.Second

// Config bounds what the watcher accepts.
type Config struct {
	MaxImageSide int
	MaxTextBytes int
	ThumbSide    int
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() Config {
	return Config{MaxImageSide: 1920, MaxTextBytes: 4 << 20, ThumbSide: 256}
}

// Watcher owns the capture side of the clipboard.
type Watcher struct {
	backend clip.Backend
	store   *history.Store
	bus     *events.Bus
	cfg     Config
	now     func() time.Time

	mu         sync.Mutex
	lastFP     string
	suppressed map[string]time.Time

	captured atomic.Uint64
}

// New creates a watcher but does not start it.
func New(backend clip.Backend, store *history.Store, bus *events.Bus, cfg Config) *Watcher {
	return &Watcher{
		backend:    backend,
		store:      store,
		bus:        bus,
		cfg:        cfg,
		now:        time.Now,
		suppressed: make(map[string]time.Time),
	}
}

// Suppress makes the next capture of content with fingerprint fp a no-op.
// The injector calls it before writing an existing entry back.
func (w *Watcher) Suppress(fp string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.suppressed[fp] = w.now().Add(suppressFor)
}

// Captured returns how many items the watcher has added.
func (w *Watcher) Captured() uint64 { return w.captured.Load() }

// Run captures the current clipboard and then every change until ctx is
// cancelled. Capture errors are logged and retried on the next change.
func (w *Watcher) Run(ctx context.Context) error {
	slog.Info("clipboard watcher started", "backend", w.backend.Name())
	w.step(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.backend.Watch():
			w.step(ctx)
		}
	}
}

func (w *Watcher) step(ctx context.Context) {
	if _, _, err := w.Capture(ctx); err != nil {
		slog.Warn("clipboard capture failed", "err", err)
	}
}

// Capture reads the clipboard once and inserts its content when it is new.
// It returns the inserted item and whether an insert happened.
func (w *Watcher) Capture(ctx context.Context) (history.Item, bool, error) {
	items, err := w.backend.Read(ctx)
	if err != nil {
		return history.Item{}, false, fmt.Errorf("read clipboard: %w: %w", apperr.ErrClipboardAccess, err)
	}
	content, ok, err := w.toContent(items)
	if err != nil || !ok {
		return history.Item{}, false, err
	}
	fp := content.Fingerprint()
	if !w.fresh(fp) {
		return history.Item{}, false, nil
	}
	if newest, ok := w.store.NewestFingerprint(); ok && newest == fp {
		return history.Item{}, false, nil
	}

	item := history.NewItem(content, w.now(), w.cfg.ThumbSide)
	inserted, evicted := w.store.Insert(item)
	if !inserted {
		return history.Item{}, false, nil
	}
	w.captured.Add(1)
	if len(evicted) > 0 {
		slog.Debug("history evicted", "ids", evicted)
	}
	slog.Debug("clipboard captured", "id", item.ID, "kind", item.Content.Kind)
	w.bus.Emit(events.ClipboardChanged, message.FromHistory(item))
	return item, true, nil
}

// fresh reports whether fp differs from the last capture and is not a
// suppressed self-write. Expired suppressions are dropped.
func (w *Watcher) fresh(fp string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fp == w.lastFP {
		return false
	}
	w.lastFP = fp
	now := w.now()
	for k, until := range w.suppressed {
		if now.After(until) {
			delete(w.suppressed, k)
		}
	}
	if _, ok := w.suppressed[fp]; ok {
		delete(w.suppressed, fp)
		return false
	}
	return true
}

// toContent prefers text, then a decodable image. Image work happens here,
// outside the store lock.
func (w *Watcher) toContent(items []clip.Item) (history.Content, bool, error) {
	if text, ok := clip.Text(items); ok && strings.TrimSpace(text) != "" {
		if w.cfg.MaxTextBytes > 0 && len(text) > w.cfg.MaxTextBytes {
			slog.Warn("clipboard text too large, skipped", "bytes", len(text), "limit", w.cfg.MaxTextBytes)
			return history.Content{}, false, nil
		}
		return history.TextContent(text), true, nil
	}
	img, ok := clip.Image(items)
	if !ok {
		return history.Content{}, false, nil
	}
	data, width, height, err := imageutil.Normalize(img.Data, w.cfg.MaxImageSide)
	if errors.Is(err, imageutil.ErrTooLarge) {
		slog.Warn("clipboard image too large, skipped", "err", err, "max_pixels", imageutil.MaxPixels)
		return history.Content{}, false, nil
	}
	if err != nil {
		return history.Content{}, false, fmt.Errorf("%s: %w", img.MIME, err)
	}
	return history.ImageContent(data, width, height), true, nil
}
