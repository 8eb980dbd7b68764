package clip

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.klb.dev/clipd/internal/sysexec"
)

const wlCommandTimeout = 2 * time.Second

var (
	wlTextTypes  = []string{"text/plain;charset=utf-8", "text/plain", "UTF8_STRING", "STRING", "TEXT"}
	wlImageTypes = []string{"image/png", "image/jpeg", "image/gif"}
)

type waylandBackend struct {
	*poller
	runner   sysexec.Runner
	cancel   context.CancelFunc
	interval time.Duration
}

// newWayland drives wl-clipboard. With watchProc, change notification comes
// from a long-running `wl-paste --watch`; when that exits (compositors
// without the data-control protocol) it falls back to polling.
func newWayland(r sysexec.Runner, interval time.Duration, watchProc bool) *waylandBackend {
	ctx, cancel := context.WithCancel(context.Background())
	b := &waylandBackend{poller: newPoller(), runner: r, cancel: cancel, interval: interval}
	if watchProc {
		go b.watchProcess(ctx)
	} else {
		go b.pollLoop(ctx)
	}
	return b
}

func (b *waylandBackend) Name() string { return "Wayland wl-clipboard" }

func (b *waylandBackend) watchProcess(ctx context.Context) {
	first := true
	err := b.runner.Lines(ctx, func(string) {
		// wl-paste runs the command once for the current selection on start.
		if !first {
			b.notify()
		}
		first = false
	}, "wl-paste", "--watch", "echo", "changed")
	if ctx.Err() != nil {
		return
	}
	slog.Info("wl-paste --watch unavailable, polling instead", "err", err)
	b.pollLoop(ctx)
}

func (b *waylandBackend) pollLoop(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.stop()
	}()
	b.run(b.interval, func() []byte {
		items, err := b.Read(ctx)
		if err != nil {
			return nil
		}
		var sample []byte
		for _, it := range items {
			sample = append(sample, it.MIME...)
			sample = append(sample, 0)
			sample = append(sample, it.Data...)
		}
		return sample
	})
}

func (b *waylandBackend) Read(ctx context.Context) ([]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, wlCommandTimeout)
	defer cancel()

	res, err := b.runner.Run(ctx, nil, "wl-paste", "--list-types")
	if err != nil {
		if emptySelection(res, err) {
			return nil, nil
		}
		return nil, fmt.Errorf("wl-paste --list-types: %w", err)
	}
	offered := strings.Fields(string(res.Stdout))

	var items []Item
	if slices.ContainsFunc(offered, func(t string) bool { return slices.Contains(wlTextTypes, t) }) {
		res, err := b.runner.Run(ctx, nil, "wl-paste", "--no-newline", "--type", "text")
		if err != nil && !emptySelection(res, err) {
			return nil, fmt.Errorf("wl-paste text: %w", err)
		}
		if len(res.Stdout) > 0 {
			items = append(items, Item{MIME: MIMEText, Data: res.Stdout})
		}
	}
	for _, mime := range wlImageTypes {
		if !slices.Contains(offered, mime) {
			continue
		}
		res, err := b.runner.Run(ctx, nil, "wl-paste", "--type", mime)
		if err != nil {
			return nil, fmt.Errorf("wl-paste %s: %w", mime, err)
		}
		items = append(items, Item{MIME: mime, Data: res.Stdout})
		break
	}
	return items, nil
}

func (b *waylandBackend) Write(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	it := items[0]
	mime := it.MIME
	if it.IsText() {
		mime = "text/plain;charset=utf-8"
	}
	ctx, cancel := context.WithTimeout(ctx, wlCommandTimeout)
	defer cancel()
	if _, err := b.runner.Run(ctx, it.Data, "wl-copy", "--type", mime); err != nil {
		return fmt.Errorf("wl-copy: %w", err)
	}
	return nil
}

func (b *waylandBackend) Watch() <-chan struct{} { return b.watchCh }

func (b *waylandBackend) Close() {
	b.cancel()
	b.stop()
}

// emptySelection recognises wl-paste's exit when nothing is copied.
func emptySelection(res sysexec.Result, err error) bool {
	var ee *sysexec.ExitError
	if !errors.As(err, &ee) {
		return false
	}
	msg := strings.ToLower(string(res.Stderr))
	return strings.Contains(msg, "nothing is copied") || strings.Contains(msg, "no selection")
}
