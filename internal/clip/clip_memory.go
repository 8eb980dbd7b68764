package clip

import (
	"context"
	"slices"
	"sync"
)

// Memory is an in-process clipboard. Set simulates another application
// copying; Write is what clipd itself does.
type Memory struct {
	mu      sync.Mutex
	items   []Item
	writes  int
	watchCh chan struct{}

	// WriteErr, when set, fails every Write.
	WriteErr error
	// DropWrites accepts writes without changing the contents.
	DropWrites bool
}

// NewMemory returns an empty in-process clipboard.
func NewMemory() *Memory { return &Memory{watchCh: make(chan struct{}, 16)} }

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Read(context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.items), nil
}

func (m *Memory) Write(_ context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.writes++
	if !m.DropWrites {
		m.items = cloneItems(items)
	}
	return nil
}

// Set replaces the contents and signals watchers.
func (m *Memory) Set(items ...Item) {
	m.mu.Lock()
	m.items = cloneItems(items)
	m.mu.Unlock()
	select {
	case m.watchCh <- struct{}{}:
	default:
	}
}

// Writes returns how many times Write succeeded.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Watch() <-chan struct{} { return m.watchCh }

func (m *Memory) Close() {}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{MIME: it.MIME, Data: slices.Clone(it.Data)}
	}
	return out
}
