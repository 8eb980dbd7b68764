// Package inject writes a chosen entry to the clipboard and synthesizes the
// paste keystroke into the previously focused application.
package inject

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/clip"
	"go.klb.dev/clipd/internal/history"
	"go.klb.dev/clipd/internal/imageutil"
)

// Kind tags the origin of pasted text.
type Kind string

const (
	KindText    Kind = "text"
	KindEmoji   Kind = "emoji"
	KindKaomoji Kind = "kaomoji"
	KindSymbol  Kind = "symbol"
)

// ParseKind validates a kind name; empty means KindText.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindText, nil
	case KindText, KindEmoji, KindKaomoji, KindSymbol:
		return k, nil
	}
	return "", fmt.Errorf("unknown paste kind %q", s)
}

// tracked kinds feed the picker's recent list.
func (k Kind) tracked() bool { return k == KindEmoji || k == KindKaomoji || k == KindSymbol }

// Keyboard emits one paste key combination.
type Keyboard interface {
	Paste(ctx context.Context) error
}

// PermissionChecker fails with apperr.ErrPermission when the input device
// cannot be used.
type PermissionChecker interface {
	Require(ctx context.Context) error
}

// Hider dismisses the history panel so focus returns to the target window.
type Hider interface {
	Hide(ctx context.Context) error
}

// UsageRecorder stores picker usage.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, value, kind string, at time.Time) error
}

// Config holds the sequencing delays.
type Config struct {
	// ConfirmTimeout bounds the read-back that proves the write landed.
	ConfirmTimeout time.Duration
	// WaylandSettle is the pause between confirming the write and the
	// keystroke on Wayland, where selection ownership propagates late.
	WaylandSettle time.Duration
	Wayland       bool
}

// DefaultConfig returns the standard delays.
func DefaultConfig() Config {
	return Config{ConfirmTimeout: 500 * time.Millisecond, WaylandSettle: 150 * time.Millisecond}
}

// Options wires an Injector. Panel, Suppress, Usage and Fallback are
// optional. Fallback types the chord when Permission reports the primary
// Keyboard's device inaccessible.
type Options struct {
	Store      *history.Store
	Clipboard  clip.Backend
	Permission PermissionChecker
	Keyboard   Keyboard
	Fallback   Keyboard
	Panel      Hider
	Suppress   func(fingerprint string)
	Usage      UsageRecorder
	Config     Config
}

type job struct {
	ctx     context.Context
	content history.Content
	kind    Kind
	done    chan error
}

// Injector runs paste sequences one at a time, in arrival order.
type Injector struct {
	o     Options
	queue chan *job
}

// New creates an injector; Run must be running for pastes to complete.
func New(o Options) *Injector {
	return &Injector{o: o, queue: make(chan *job, 16)}
}

// Run executes queued sequences until ctx is cancelled.
func (in *Injector) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-in.queue:
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			j.done <- in.execute(j)
		}
	}
}

// PasteItem pastes the history entry with the given id.
func (in *Injector) PasteItem(ctx context.Context, id string) error {
	it, ok := in.o.Store.Get(id)
	if !ok {
		return fmt.Errorf("paste %s: %w", id, apperr.ErrItemNotFound)
	}
	return in.submit(ctx, it.Content, KindText)
}

// PasteText pastes literal text that is not part of the history.
func (in *Injector) PasteText(ctx context.Context, text string, kind Kind) error {
	if text == "" {
		return fmt.Errorf("paste text: empty text: %w", apperr.ErrClipboardAccess)
	}
	return in.submit(ctx, history.TextContent(text), kind)
}

func (in *Injector) submit(ctx context.Context, c history.Content, kind Kind) error {
	j := &job{ctx: ctx, content: c, kind: kind, done: make(chan error, 1)}
	select {
	case in.queue <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (in *Injector) execute(j *job) error {
	ctx := j.ctx
	start := time.Now()

	kb := in.o.Keyboard
	if in.o.Permission != nil {
		if err := in.o.Permission.Require(ctx); err != nil {
			if in.o.Fallback == nil || !errors.Is(err, apperr.ErrPermission) {
				return err
			}
			slog.Debug("input device unavailable, using fallback keyboard", "err", err)
			kb = in.o.Fallback
		}
	}
	if err := in.writeConfirmed(ctx, j.content); err != nil {
		return err
	}
	if in.o.Panel != nil {
		if err := in.o.Panel.Hide(ctx); err != nil {
			slog.Warn("hide panel before paste", "err", err)
		}
	}
	if in.o.Config.Wayland {
		if err := sleep(ctx, in.o.Config.WaylandSettle); err != nil {
			return err
		}
	}
	if err := kb.Paste(ctx); err != nil {
		return fmt.Errorf("synthesize paste: %w", err)
	}
	slog.Info("pasted", "kind", j.kind, "content", j.content.Kind, "took", time.Since(start).Round(time.Millisecond))

	if j.kind.tracked() && in.o.Usage != nil {
		if err := in.o.Usage.RecordUsage(ctx, j.content.Text, string(j.kind), time.Now()); err != nil {
			slog.Warn("record picker usage", "err", err)
		}
	}
	return nil
}

// writeConfirmed writes c and polls the clipboard until it reads back.
func (in *Injector) writeConfirmed(ctx context.Context, c history.Content) error {
	item := clip.Item{MIME: clip.MIMEText, Data: c.Bytes()}
	if c.Kind == history.KindImage {
		item.MIME = clip.MIMEPNG
	}
	if in.o.Suppress != nil {
		in.o.Suppress(c.Fingerprint())
	}
	if err := in.o.Clipboard.Write(ctx, []clip.Item{item}); err != nil {
		return fmt.Errorf("write clipboard: %w: %w", apperr.ErrClipboardAccess, err)
	}

	deadline := time.Now().Add(in.o.Config.ConfirmTimeout)
	var lastErr error
	for {
		items, err := in.o.Clipboard.Read(ctx)
		if err == nil && holds(items, c) {
			return nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			break
		}
		if err := sleep(ctx, 25*time.Millisecond); err != nil {
			return err
		}
	}
	if lastErr == nil {
		lastErr = errors.New("content differs")
	}
	return fmt.Errorf("clipboard write not confirmed within %s: %w: %w",
		in.o.Config.ConfirmTimeout, apperr.ErrClipboardAccess, lastErr)
}

// holds reports whether the clipboard now carries c. The clipboard owner
// may re-encode an image, so an image with the same dimensions counts.
func holds(items []clip.Item, c history.Content) bool {
	if c.Kind == history.KindImage {
		img, ok := clip.Image(items)
		if !ok {
			return false
		}
		if bytes.Equal(img.Data, c.Image) {
			return true
		}
		w, h, err := imageutil.Dimensions(img.Data)
		return err == nil && w == c.Width && h == c.Height
	}
	text, ok := clip.Text(items)
	return ok && text == c.Text
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
