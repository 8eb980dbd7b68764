package watcher

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"go.klb.dev/clipd/internal/apperr"
	"go.klb.dev/clipd/internal/clip"
	"go.klb.dev/clipd/internal/events"
	"go.klb.dev/clipd/internal/history"
	"go.klb.dev/clipd/internal/message"
)

type failingBackend struct{ *clip.Memory }

func (failingBackend) Read(context.Context) ([]clip.Item, error) { return nil, errors.New("no display") }

func newTestWatcher(t *testing.T, cfg Config) (*Watcher, *clip.Memory, *history.Store, *events.Subscription) {
	t.Helper()
	mem := clip.NewMemory()
	store := history.NewStore(10)
	bus := events.NewBus()
	sub := bus.Subscribe("test", 16)
	w := New(mem, store, bus, cfg)
	tick := time.Unix(1700000000, 0)
	w.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return w, mem, store, sub
}

func TestCaptureText(t *testing.T) {
	w, mem, store, sub := newTestWatcher(t, DefaultConfig())
	mem.Set(clip.TextItem("hello"))

	item, ok, err := w.Capture(context.Background())
	if err != nil || !ok {
		t.Fatalf("Capture = %v, %v", ok, err)
	}
	if item.Content.Text != "hello" || item.Preview != "hello" {
		t.Errorf("item = %+v", item)
	}
	if store.Len() != 1 {
		t.Errorf("store len = %d", store.Len())
	}
	e := <-sub.C
	if e.Name != events.ClipboardChanged {
		t.Fatalf("event = %s", e.Name)
	}
	var got message.Item
	if err := e.Decode(&got); err != nil || got.ID != item.ID || got.Text != "hello" {
		t.Errorf("payload = %+v, %v", got, err)
	}
}

func TestCaptureSkipsUnchangedAndDuplicates(t *testing.T) {
	w, mem, store, _ := newTestWatcher(t, DefaultConfig())
	mem.Set(clip.TextItem("a"))
	w.Capture(context.Background())
	if _, ok, _ := w.Capture(context.Background()); ok {
		t.Error("unchanged clipboard captured twice")
	}
	mem.Set(clip.TextItem("b"))
	w.Capture(context.Background())
	mem.Set(clip.TextItem("a"))
	if _, ok, _ := w.Capture(context.Background()); !ok {
		t.Error("re-copying an older entry should capture it again")
	}
	if store.Len() != 3 {
		t.Errorf("store len = %d, want 3", store.Len())
	}
}

func TestCaptureIgnoresBlankAndOversizedText(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextBytes = 8
	w, mem, store, _ := newTestWatcher(t, cfg)
	for _, s := range []string{"   \n", strings.Repeat("x", 9)} {
		mem.Set(clip.TextItem(s))
		if _, ok, err := w.Capture(context.Background()); ok || err != nil {
			t.Errorf("Capture(%q) = %v, %v", s, ok, err)
		}
	}
	if store.Len() != 0 {
		t.Errorf("store len = %d", store.Len())
	}
}

func TestCaptureImageIsNormalized(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxImageSide = 50
	cfg.ThumbSide = 10
	w, mem, _, _ := newTestWatcher(t, cfg)

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 200, 100))); err != nil {
		t.Fatal(err)
	}
	mem.Set(clip.Item{MIME: clip.MIMEPNG, Data: buf.Bytes()})

	item, ok, err := w.Capture(context.Background())
	if err != nil || !ok {
		t.Fatalf("Capture = %v, %v", ok, err)
	}
	if item.Content.Kind != history.KindImage || item.Content.Width != 50 || item.Content.Height != 25 {
		t.Errorf("content = %s %dx%d", item.Content.Kind, item.Content.Width, item.Content.Height)
	}
	if !strings.HasPrefix(item.Preview, "data:image/png;base64,") {
		t.Errorf("preview = %.40q", item.Preview)
	}
}

func TestCaptureSkipsOversizedImage(t *testing.T) {
	w, mem, store, _ := newTestWatcher(t, DefaultConfig())

	// Header-only PNG announcing 12000x12000 pixels.
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], 12000)
	binary.BigEndian.PutUint32(ihdr[4:], 12000)
	ihdr[8], ihdr[9] = 8, 6
	chunk := append([]byte("IHDR"), ihdr...)
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	mem.Set(clip.Item{MIME: clip.MIMEPNG, Data: buf.Bytes()})

	if _, ok, err := w.Capture(context.Background()); ok || err != nil {
		t.Errorf("Capture = %v, %v; want skipped without error", ok, err)
	}
	if store.Len() != 0 {
		t.Errorf("store len = %d", store.Len())
	}
}

func TestCaptureBadImage(t *testing.T) {
	w, mem, _, _ := newTestWatcher(t, DefaultConfig())
	mem.Set(clip.Item{MIME: clip.MIMEPNG, Data: []byte("junk")})
	if _, _, err := w.Capture(context.Background()); err == nil {
		t.Error("expected decode error")
	}
}

func TestSuppressSelfWrite(t *testing.T) {
	w, mem, store, _ := newTestWatcher(t, DefaultConfig())
	mem.Set(clip.TextItem("old"))
	w.Capture(context.Background())
	mem.Set(clip.TextItem("new"))
	w.Capture(context.Background())

	w.Suppress(history.TextContent("old").Fingerprint())
	mem.Set(clip.TextItem("old"))
	if _, ok, _ := w.Capture(context.Background()); ok {
		t.Error("suppressed self-write was captured")
	}
	if store.Len() != 2 {
		t.Errorf("store len = %d", store.Len())
	}
}

func TestCaptureReadError(t *testing.T) {
	store := history.NewStore(10)
	w := New(failingBackend{clip.NewMemory()}, store, events.NewBus(), DefaultConfig())
	_, _, err := w.Capture(context.Background())
	if !errors.Is(err, apperr.ErrClipboardAccess) {
		t.Errorf("err = %v", err)
	}
}

func TestRunCapturesChanges(t *testing.T) {
	w, mem, store, sub := newTestWatcher(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	mem.Set(clip.TextItem("one"))
	select {
	case <-sub.C:
	case <-time.After(2 * time.Second):
		t.Fatal("no clipboard-changed event")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run = %v", err)
	}
	if store.Len() != 1 || w.Captured() != 1 {
		t.Errorf("len %d captured %d", store.Len(), w.Captured())
	}
}
