// Package clip provides access to the session clipboard. The backend is
// chosen once from the detected session:
//
//	clip_wayland.go  wl-copy / wl-paste, change notification via wl-paste --watch or polling
//	clip_x11.go      golang.design/x/clipboard, polling
//	clip_headless.go no display server
//	clip_memory.go   in-process clipboard used by tests
package clip

import (
	"context"
	"strings"
)

// MIME types clipd reads and writes.
const (
	MIMEText = "text/plain"
	MIMEPNG  = "image/png"
)

// Item is one representation of the clipboard contents.
type Item struct {
	MIME string
	Data []byte
}

// TextItem returns a text/plain item.
func TextItem(s string) Item { return Item{MIME: MIMEText, Data: []byte(s)} }

// IsText reports whether the item carries text.
func (it Item) IsText() bool { return strings.HasPrefix(it.MIME, "text/") }

// IsImage reports whether the item carries an image.
func (it Item) IsImage() bool { return strings.HasPrefix(it.MIME, "image/") }

// Backend is the interface that all clipboard implementations satisfy.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// Read returns the current clipboard contents as a slice of typed items.
	// Returns nil, nil if the clipboard is empty or contains only unsupported types.
	Read(ctx context.Context) ([]Item, error)

	// Write replaces the clipboard contents. Backends that can only own one
	// representation at a time write the first item.
	Write(ctx context.Context, items []Item) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// may have changed. The channel is never closed. Receivers call Read.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// Text returns the first text item.
func Text(items []Item) (string, bool) {
	for _, it := range items {
		if it.IsText() {
			return string(it.Data), true
		}
	}
	return "", false
}

// Image returns the first image item.
func Image(items []Item) (Item, bool) {
	for _, it := range items {
		if it.IsImage() && len(it.Data) > 0 {
			return it, true
		}
	}
	return Item{}, false
}
