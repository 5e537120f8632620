package view

import (
	"context"
	"sync"
	"time"
)

// Store retains the last committed value of each slot together with the
// slot's generation counter.
type Store interface {
	// Begin starts a new generation for key and returns it.
	Begin(ctx context.Context, key string) (uint64, error)
	// Commit stores data for key only if gen is still the newest
	// generation. It reports whether the data was stored.
	Commit(ctx context.Context, key string, gen uint64, data []byte) (bool, error)
	// Last returns the most recently committed data for key.
	Last(ctx context.Context, key string) ([]byte, bool, error)
}

type memoryEntry struct {
	gen      uint64
	data     []byte
	hasData  bool
	lastUsed time.Time
}

// MemoryStore is an in-process Store used when Redis is not configured.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*memoryEntry
	now     func() time.Time
}

// NewMemoryStore creates a MemoryStore whose entries expire after ttl of
// inactivity. A zero ttl keeps entries forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

// entry returns the live entry for key, creating it if needed. Caller holds mu.
func (s *MemoryStore) entry(key string) *memoryEntry {
	now := s.now()
	e, ok := s.entries[key]
	if ok && s.ttl > 0 && now.Sub(e.lastUsed) > s.ttl {
		ok = false
	}
	if !ok {
		e = &memoryEntry{}
		s.entries[key] = e
	}
	e.lastUsed = now
	return e
}

func (s *MemoryStore) Begin(_ context.Context, key string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	e.gen++
	return e.gen, nil
}

func (s *MemoryStore) Commit(_ context.Context, key string, gen uint64, data []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	if e.gen != gen {
		return false, nil
	}
	e.data = append([]byte(nil), data...)
	e.hasData = true
	return true, nil
}

func (s *MemoryStore) Last(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || !e.hasData {
		return nil, false, nil
	}
	if s.ttl > 0 && s.now().Sub(e.lastUsed) > s.ttl {
		delete(s.entries, key)
		return nil, false, nil
	}
	e.lastUsed = s.now()
	return append([]byte(nil), e.data...), true, nil
}

// Sweep drops expired entries.
func (s *MemoryStore) Sweep() {
	if s.ttl <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if now.Sub(e.lastUsed) > s.ttl {
			delete(s.entries, key)
		}
	}
}
