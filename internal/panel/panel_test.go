package panel

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"go.klb.dev/clipd/internal/events"
	"go.klb.dev/clipd/internal/position"
)

type fixedPlacer position.Point

func (f fixedPlacer) Place(context.Context) position.Point { return position.Point(f) }

type recorder struct {
	mu    sync.Mutex
	names []string
	shown []events.WindowPosition
}

func (r *recorder) Emit(name events.Name, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, string(name))
	if p, ok := payload.(events.WindowPosition); ok {
		r.shown = append(r.shown, p)
	}
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.names)
}

type focusLog struct {
	mu    sync.Mutex
	calls []string
}

func (f *focusLog) SaveFocus(context.Context) error {
	f.mu.Lock()
	f.calls = append(f.calls, "save")
	f.mu.Unlock()
	return nil
}

func (f *focusLog) RestoreFocus(context.Context) error {
	f.mu.Lock()
	f.calls = append(f.calls, "restore")
	f.mu.Unlock()
	return nil
}

func start(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestToggleAlternates(t *testing.T) {
	rec, focus := &recorder{}, &focusLog{}
	d := New(fixedPlacer{X: 10, Y: 20}, focus, rec)
	start(t, d)
	ctx := context.Background()

	for i, want := range []bool{true, false, true} {
		got, err := d.Toggle(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("toggle %d: visible = %v, want %v", i, got, want)
		}
	}
	if want := []string{"window-shown", "window-hidden", "window-shown"}; !slices.Equal(rec.get(), want) {
		t.Errorf("events = %v, want %v", rec.get(), want)
	}
	if rec.shown[0] != (events.WindowPosition{X: 10, Y: 20}) {
		t.Errorf("shown at %+v", rec.shown[0])
	}
	if want := []string{"save", "restore", "save"}; !slices.Equal(focus.calls, want) {
		t.Errorf("focus calls = %v", focus.calls)
	}
}

func TestShowAndHideAreIdempotent(t *testing.T) {
	rec := &recorder{}
	d := New(fixedPlacer{}, nil, rec)
	start(t, d)
	ctx := context.Background()

	d.Show(ctx)
	d.Show(ctx)
	d.Hide(ctx)
	d.Hide(ctx)
	if want := []string{"window-shown", "window-hidden"}; !slices.Equal(rec.get(), want) {
		t.Errorf("events = %v, want %v", rec.get(), want)
	}
}

func TestConcurrentTogglesStayConsistent(t *testing.T) {
	rec := &recorder{}
	d := New(fixedPlacer{}, nil, rec)
	start(t, d)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Toggle(context.Background())
		}()
	}
	wg.Wait()
	names := rec.get()
	if len(names) != 10 {
		t.Fatalf("events = %v", names)
	}
	for i, n := range names {
		want := "window-shown"
		if i%2 == 1 {
			want = "window-hidden"
		}
		if n != want {
			t.Fatalf("event %d = %s, sequence %v", i, n, names)
		}
	}
	if d.Visible() {
		t.Error("even number of toggles left the panel visible")
	}
}

func TestTriggerTogglesAsynchronously(t *testing.T) {
	rec := &recorder{}
	d := New(fixedPlacer{}, nil, rec)
	start(t, d)
	d.Trigger()
	deadline := time.Now().Add(time.Second)
	for !d.Visible() {
		if time.Now().After(deadline) {
			t.Fatal("trigger never showed the panel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHideClearsMouseState(t *testing.T) {
	d := New(fixedPlacer{}, nil, &recorder{})
	start(t, d)
	ctx := context.Background()
	d.Show(ctx)
	d.SetMouseInside(true)
	if !d.MouseInside() {
		t.Fatal("mouse state not recorded")
	}
	d.Hide(ctx)
	if d.MouseInside() {
		t.Error("mouse state survived hide")
	}
}

type rememberingPlacer struct {
	fixedPlacer
	got []position.Point
}

func (r *rememberingPlacer) Remember(_ context.Context, p position.Point) error {
	r.got = append(r.got, p)
	return nil
}

func TestRemember(t *testing.T) {
	ctx := context.Background()
	if err := New(fixedPlacer{}, nil, &recorder{}).Remember(ctx, position.Point{}); !errors.Is(err, ErrCannotRemember) {
		t.Errorf("Remember with a plain placer = %v", err)
	}
	rp := &rememberingPlacer{}
	if err := New(rp, nil, &recorder{}).Remember(ctx, position.Point{X: 5, Y: 6}); err != nil {
		t.Fatal(err)
	}
	if len(rp.got) != 1 || rp.got[0] != (position.Point{X: 5, Y: 6}) {
		t.Errorf("remembered %+v", rp.got)
	}
}
