package history

import (
	"fmt"
	"slices"
	"sync"

	"go.klb.dev/clipd/internal/apperr"
)

// DefaultCapacity is the unpinned item cap used when none is configured.
const DefaultCapacity = 50

type entry struct {
	Item
	fp string
}

// Store is the single owner of the history. The collection is one slice
// holding the pinned block followed by the unpinned block; unpinned entries
// are ordered by timestamp, newest first.
//
// Writers are serialized by mu; readers receive copies.
type Store struct {
	mu       sync.RWMutex
	entries  []entry
	npinned  int
	capacity int
	version  uint64

	// pinGen changes whenever the pinned block changes. lastUnpin remembers
	// where the most recently unpinned item sat so pinning it straight back
	// restores its slot.
	pinGen    uint64
	lastUnpin struct {
		id    string
		index int
		gen   uint64
	}
}

// NewStore returns an empty store that keeps at most capacity unpinned items.
// A non-positive capacity selects DefaultCapacity.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

// Snapshot returns the ordered collection.
func (s *Store) Snapshot() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Item, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Item
	}
	return out
}

// Len returns the number of items, pinned included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Capacity returns the unpinned cap.
func (s *Store) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.capacity
}

// Version increases with every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Get returns the item with the given id.
func (s *Store) Get(id string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.entries[i].Item, true
	}
	return Item{}, false
}

// NewestFingerprint returns the fingerprint of the most recently captured
// item, pinned or not, and false when the store is empty.
func (s *Store) NewestFingerprint() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.newestLocked(); i >= 0 {
		return s.entries[i].fp, true
	}
	return "", false
}

// Insert adds it unless its content equals the newest item's content.
// It reports whether the item was added and the ids evicted to honour the
// capacity. A pinned item goes to the front of the pinned block.
func (s *Store) Insert(it Item) (bool, []string) {
	e := entry{Item: it, fp: it.Content.Fingerprint()}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.newestLocked(); i >= 0 && s.entries[i].fp == e.fp {
		return false, nil
	}
	if s.indexLocked(it.ID) >= 0 {
		return false, nil
	}
	if it.Pinned {
		// A newly pinned entry leads the pinned block, as with TogglePin.
		s.entries = slices.Insert(s.entries, 0, e)
		s.npinned++
		s.pinGen++
	} else {
		s.insertUnpinnedLocked(e)
	}
	s.version++
	return true, s.evictLocked()
}

// Load replaces the collection with items restored from storage. Pinned
// items keep their relative order; unpinned items are re-sorted. No
// duplicate detection is applied beyond dropping repeated ids.
func (s *Store) Load(items []Item) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = s.entries[:0]
	s.npinned = 0
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		e := entry{Item: it, fp: it.Content.Fingerprint()}
		if it.Pinned {
			s.entries = slices.Insert(s.entries, s.npinned, e)
			s.npinned++
			continue
		}
		s.insertUnpinnedLocked(e)
	}
	s.pinGen++
	s.version++
	return s.evictLocked()
}

// Delete removes the item with the given id and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return false
	}
	s.removeLocked(i)
	s.version++
	return true
}

// Clear removes every unpinned item and returns their ids.
func (s *Store) Clear() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := make([]string, 0, len(s.entries)-s.npinned)
	for _, e := range s.entries[s.npinned:] {
		removed = append(removed, e.ID)
	}
	s.entries = s.entries[:s.npinned]
	s.version++
	return removed
}

// TogglePin flips the pinned flag of id and moves the item to its block.
// Unpinning does not evict: the cap is re-applied by the next Insert or
// SetCapacity.
func (s *Store) TogglePin(id string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return Item{}, fmt.Errorf("toggle pin %s: %w", id, apperr.ErrItemNotFound)
	}
	e := s.entries[i]
	s.entries = slices.Delete(s.entries, i, i+1)

	if e.Pinned {
		s.npinned--
		s.pinGen++
		s.lastUnpin.id, s.lastUnpin.index, s.lastUnpin.gen = id, i, s.pinGen
		e.Pinned = false
		s.insertUnpinnedLocked(e)
	} else {
		at := 0
		if s.lastUnpin.id == id && s.lastUnpin.gen == s.pinGen {
			at = min(s.lastUnpin.index, s.npinned)
		}
		e.Pinned = true
		s.entries = slices.Insert(s.entries, at, e)
		s.npinned++
		s.pinGen++
	}
	s.version++
	return e.Item, nil
}

// SetCapacity changes the unpinned cap and returns the ids evicted by it.
func (s *Store) SetCapacity(n int) []string {
	if n <= 0 {
		n = DefaultCapacity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.capacity = n
	evicted := s.evictLocked()
	if len(evicted) > 0 {
		s.version++
	}
	return evicted
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.entries, func(e entry) bool { return e.ID == id })
}

func (s *Store) newestLocked() int {
	best := -1
	for i, e := range s.entries {
		if best < 0 || e.Timestamp.After(s.entries[best].Timestamp) {
			best = i
		}
	}
	return best
}

// insertUnpinnedLocked places e before the first unpinned entry that is not
// newer than it.
func (s *Store) insertUnpinnedLocked(e entry) {
	at := len(s.entries)
	for i := s.npinned; i < len(s.entries); i++ {
		if !e.Timestamp.Before(s.entries[i].Timestamp) {
			at = i
			break
		}
	}
	s.entries = slices.Insert(s.entries, at, e)
}

func (s *Store) removeLocked(i int) {
	if s.entries[i].Pinned {
		s.npinned--
		s.pinGen++
	}
	s.entries = slices.Delete(s.entries, i, i+1)
}

func (s *Store) evictLocked() []string {
	var evicted []string
	for len(s.entries)-s.npinned > s.capacity {
		last := len(s.entries) - 1
		evicted = append(evicted, s.entries[last].ID)
		s.entries = s.entries[:last]
	}
	return evicted
}
