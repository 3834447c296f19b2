package store

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ttlpool/ttlpool/pkg/types"
)

// Entry is one pooled value together with the time it was inserted and how
// long it may live. Entries are never modified after insertion.
type Entry struct {
	ID       string
	Payload  []byte
	Created  time.Time
	Lifetime time.Duration
}

// Age returns how long the entry has existed at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Created)
}

// Expired reports whether the entry's age is strictly greater than its
// lifetime. An entry whose age equals its lifetime is still live.
func (e Entry) Expired(now time.Time) bool {
	return e.Age(now) > e.Lifetime
}

// View renders the entry for display with its age at now.
func (e Entry) View(now time.Time) types.EntryView {
	return types.EntryView{
		ID:       e.ID,
		Payload:  string(e.Payload),
		Created:  e.Created,
		Lifetime: e.Lifetime,
		Age:      e.Age(now),
	}
}

// Store is a thread-safe in-memory entry pool keyed by generated ID.
type Store struct {
	mu   sync.RWMutex
	data map[string]*Entry
	now  func() time.Time // injectable for deterministic tests
	id   func() string
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		data: make(map[string]*Entry),
		now:  time.Now,
		id:   uuid.NewString,
	}
}

// Insert stores payload under a freshly generated ID and returns the ID.
// The payload is copied; callers may reuse their slice.
func (s *Store) Insert(payload []byte, lifetime time.Duration) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.id()
	for s.data[id] != nil {
		id = s.id()
	}
	s.data[id] = &Entry{
		ID:       id,
		Payload:  cloneBytes(payload),
		Created:  s.now(),
		Lifetime: lifetime,
	}
	return id
}

// Delete removes the entry with the given ID. It returns false if no such
// entry exists, which is not an error.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return false
	}
	delete(s.data, id)
	return true
}

// DeleteIfExpired removes the entry with the given ID if it is present and
// expired at now. The check and the removal happen under one lock hold.
func (s *Store) DeleteIfExpired(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data[id]
	if !ok || !e.Expired(now) {
		return false
	}
	delete(s.data, id)
	return true
}

// Get returns a copy of the entry with the given ID.
func (s *Store) Get(id string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data[id]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Snapshot returns copies of all entries, oldest first. Entries with equal
// creation times are ordered by ID.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	out := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		out = append(out, e.clone())
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Created.Equal(out[j].Created) {
			return out[i].ID < out[j].ID
		}
		return out[i].Created.Before(out[j].Created)
	})
	return out
}

// IDs returns the IDs present at the time of the call, in no particular order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.data))
	for id := range s.data {
		out = append(out, id)
	}
	return out
}

// Count returns the number of entries currently held, including expired
// entries that have not been swept yet.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (e *Entry) clone() Entry {
	cp := *e
	cp.Payload = cloneBytes(e.Payload)
	return cp
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
