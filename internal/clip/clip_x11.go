//go:build linux

package clip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.design/x/clipboard"
)

type x11Backend struct {
	*poller
}

// newX11 initialises the X11 clipboard. clipboard.Init is called here rather
// than in init() so that CLI sub-commands never touch the display.
func newX11(interval time.Duration) (Backend, error) {
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	b := &x11Backend{poller: newPoller()}
	go b.run(interval, func() []byte {
		text := clipboard.Read(clipboard.FmtText)
		img := clipboard.Read(clipboard.FmtImage)
		return append(append(text, 0), img...)
	})
	return b, nil
}

func (b *x11Backend) Name() string { return "X11 clipboard (poll)" }

func (b *x11Backend) Read(context.Context) ([]Item, error) {
	var items []Item
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		items = append(items, Item{MIME: MIMEText, Data: text})
	}
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		items = append(items, Item{MIME: MIMEPNG, Data: img})
	}
	return items, nil
}

func (b *x11Backend) Write(_ context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	it := items[0]
	switch {
	case it.IsText():
		clipboard.Write(clipboard.FmtText, it.Data)
	case it.MIME == MIMEPNG:
		clipboard.Write(clipboard.FmtImage, it.Data)
	default:
		return fmt.Errorf("unsupported MIME type: %s", it.MIME)
	}
	slog.Debug("x11 clipboard written", "mime", it.MIME, "bytes", len(it.Data))
	return nil
}

func (b *x11Backend) Watch() <-chan struct{} { return b.watchCh }

func (b *x11Backend) Close() { b.stop() }
