// Package events is the fan-out broker for notifications sent to the
// presentation layer. Subscribers register, receive events through Send,
// and never block the publisher.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Name identifies an event kind on the wire.
type Name string

const (
	ClipboardChanged   Name = "clipboard-changed"
	HistoryCleared     Name = "history-cleared"
	AppSettingsChanged Name = "app-settings-changed"
	WindowShown        Name = "window-shown"
	WindowHidden       Name = "window-hidden"
	ShowSetupWizard    Name = "show-setup-wizard"
)

// sticky events are replayed to subscribers that register after publication.
var sticky = map[Name]bool{
	ShowSetupWizard:    true,
	AppSettingsChanged: true,
}

// Event is one notification. Payload is the JSON body, empty when the event
// carries none.
type Event struct {
	Name    Name            `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Time    time.Time       `json:"time"`
}

// New builds an event, encoding payload when non-nil.
func New(name Name, payload any) (Event, error) {
	e := Event{Name: name, Time: time.Now()}
	if payload == nil {
		return e, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	e.Payload = b
	return e, nil
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s has no payload", e.Name)
	}
	return json.Unmarshal(e.Payload, v)
}

// WindowPosition is the payload of WindowShown.
type WindowPosition struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Subscriber is anything that can receive events from the bus.
type Subscriber interface {
	ID() string
	// Send delivers an event. Must be non-blocking.
	Send(Event)
}

// Bus routes events to every registered subscriber.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	latest map[Name]Event
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[string]Subscriber),
		latest: make(map[Name]Event),
	}
}

// Register adds a subscriber and immediately replays the latest sticky
// events to it.
func (b *Bus) Register(s Subscriber) {
	b.mu.Lock()
	b.subs[s.ID()] = s
	replay := make([]Event, 0, len(b.latest))
	for _, e := range b.latest {
		replay = append(replay, e)
	}
	total := len(b.subs)
	b.mu.Unlock()

	slog.Info("subscriber registered", "subscriber", s.ID(), "total", total)
	for _, e := range replay {
		s.Send(e)
	}
}

// Unregister removes a subscriber.
func (b *Bus) Unregister(s Subscriber) {
	b.mu.Lock()
	delete(b.subs, s.ID())
	total := len(b.subs)
	b.mu.Unlock()
	slog.Info("subscriber unregistered", "subscriber", s.ID(), "total", total)
}

// Publish fans e out to all subscribers.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	if sticky[e.Name] {
		b.latest[e.Name] = e
	}
	targets := make([]Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		targets = append(targets, s)
	}
	b.mu.Unlock()

	LogEvent(e, len(targets))
	for _, s := range targets {
		s.Send(e)
	}
}

// Emit builds and publishes an event, logging encoding failures.
func (b *Bus) Emit(name Name, payload any) {
	e, err := New(name, payload)
	if err != nil {
		slog.Error("event dropped", "event", name, "err", err)
		return
	}
	b.Publish(e)
}

// Forget stops replaying the named sticky event.
func (b *Bus) Forget(name Name) {
	b.mu.Lock()
	delete(b.latest, name)
	b.mu.Unlock()
}

// Subscribers returns the number of registered subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

var subSeq atomic.Uint64

// Subscription is a channel-backed Subscriber. Events that arrive while the
// buffer is full are dropped and counted.
type Subscription struct {
	id      string
	C       chan Event
	dropped atomic.Uint64
}

// Subscribe registers a buffered channel subscriber with b.
func (b *Bus) Subscribe(prefix string, buffer int) *Subscription {
	s := &Subscription{
		id: fmt.Sprintf("%s-%d", prefix, subSeq.Add(1)),
		C:  make(chan Event, buffer),
	}
	b.Register(s)
	return s
}

func (s *Subscription) ID() string { return s.id }

func (s *Subscription) Send(e Event) {
	select {
	case s.C <- e:
	default:
		n := s.dropped.Add(1)
		slog.Warn("subscriber slow, event dropped", "subscriber", s.id, "event", e.Name, "dropped", n)
	}
}

// Dropped returns how many events were discarded.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }
