// Package panel serializes show, hide and toggle requests for the history
// panel. The hotkey listener, the RPC layer and the paste injector all go
// through one Dispatcher goroutine, so a trigger while the panel is visible
// hides it instead of showing it twice.
package panel

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"go.klb.dev/clipd/internal/events"
	"go.klb.dev/clipd/internal/position"
)

// Placer computes where the panel appears.
type Placer interface {
	Place(ctx context.Context) position.Point
}

// Rememberer is a Placer that can keep a position the user chose.
type Rememberer interface {
	Remember(ctx context.Context, p position.Point) error
}

// ErrCannotRemember is returned by Remember when the placer keeps no
// positions.
var ErrCannotRemember = errors.New("panel placement cannot be saved")

// FocusKeeper saves the focused application window before the panel takes
// focus and gives it back on hide.
type FocusKeeper interface {
	SaveFocus(ctx context.Context) error
	RestoreFocus(ctx context.Context) error
}

// Emitter publishes panel events.
type Emitter interface {
	Emit(name events.Name, payload any)
}

type op int

const (
	opShow op = iota
	opHide
	opToggle
)

func (o op) String() string {
	switch o {
	case opShow:
		return "show"
	case opHide:
		return "hide"
	default:
		return "toggle"
	}
}

type action struct {
	ctx  context.Context
	op   op
	done chan bool
}

// Dispatcher owns the panel's visibility.
type Dispatcher struct {
	placer  Placer
	focus   FocusKeeper
	emit    Emitter
	actions chan action

	visible     atomic.Bool
	mouseInside atomic.Bool
}

// New returns a dispatcher. focus may be nil when no X connection exists.
func New(placer Placer, focus FocusKeeper, emit Emitter) *Dispatcher {
	return &Dispatcher{
		placer:  placer,
		focus:   focus,
		emit:    emit,
		actions: make(chan action, 8),
	}
}

// Run processes actions until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case a := <-d.actions:
			a.done <- d.apply(a)
		}
	}
}

// Show makes the panel visible. It reports whether the panel is visible
// afterwards.
func (d *Dispatcher) Show(ctx context.Context) (bool, error) { return d.submit(ctx, opShow) }

// Hide hides the panel.
func (d *Dispatcher) Hide(ctx context.Context) error {
	_, err := d.submit(ctx, opHide)
	return err
}

// Toggle shows a hidden panel and hides a visible one.
func (d *Dispatcher) Toggle(ctx context.Context) (bool, error) { return d.submit(ctx, opToggle) }

// Trigger is a fire-and-forget Toggle for hotkey callbacks.
func (d *Dispatcher) Trigger() {
	select {
	case d.actions <- action{ctx: context.Background(), op: opToggle, done: make(chan bool, 1)}:
	default:
		slog.Warn("panel busy, hotkey trigger dropped")
	}
}

// Visible reports the current visibility.
func (d *Dispatcher) Visible() bool { return d.visible.Load() }

// SetMouseInside records whether the pointer is over the panel.
func (d *Dispatcher) SetMouseInside(inside bool) { d.mouseInside.Store(inside) }

// MouseInside reports the last recorded pointer state.
func (d *Dispatcher) MouseInside() bool { return d.mouseInside.Load() }

// Remember stores p as the panel's position for later shows.
func (d *Dispatcher) Remember(ctx context.Context, p position.Point) error {
	r, ok := d.placer.(Rememberer)
	if !ok {
		return ErrCannotRemember
	}
	return r.Remember(ctx, p)
}

func (d *Dispatcher) submit(ctx context.Context, o op) (bool, error) {
	a := action{ctx: ctx, op: o, done: make(chan bool, 1)}
	select {
	case d.actions <- a:
	case <-ctx.Done():
		return d.Visible(), ctx.Err()
	}
	select {
	case v := <-a.done:
		return v, nil
	case <-ctx.Done():
		return d.Visible(), ctx.Err()
	}
}

func (d *Dispatcher) apply(a action) bool {
	o := a.op
	if o == opToggle {
		o = opShow
		if d.visible.Load() {
			o = opHide
		}
	}
	slog.Debug("panel action", "requested", a.op, "applied", o)
	switch o {
	case opShow:
		d.show(a.ctx)
	case opHide:
		d.hide(a.ctx)
	}
	return d.visible.Load()
}

func (d *Dispatcher) show(ctx context.Context) {
	if d.visible.Load() {
		return
	}
	if d.focus != nil {
		if err := d.focus.SaveFocus(ctx); err != nil {
			slog.Debug("could not save focused window", "err", err)
		}
	}
	p := d.placer.Place(ctx)
	d.visible.Store(true)
	d.emit.Emit(events.WindowShown, events.WindowPosition{X: p.X, Y: p.Y})
}

func (d *Dispatcher) hide(ctx context.Context) {
	if !d.visible.Load() {
		return
	}
	d.visible.Store(false)
	d.mouseInside.Store(false)
	d.emit.Emit(events.WindowHidden, nil)
	if d.focus != nil {
		if err := d.focus.RestoreFocus(ctx); err != nil {
			slog.Debug("could not restore focus", "err", err)
		}
	}
}
