package cache

import (
	"context"
	"sync"
	"time"
)

// cleanupInterval is how often the janitor sweeps expired entries.
const cleanupInterval = 5 * time.Minute

// MemoryStore provides in-process caching for development and tests.
// Expired entries are invisible to Get immediately and swept by a
// background janitor.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	done    chan struct{}
	once    sync.Once
}

type entry struct {
	payload   []byte
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store and starts its janitor.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		done:    make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// Get returns the payload for key, treating expired entries as misses.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, false, nil
	}

	// Return a copy so callers cannot mutate the cached value
	payload := make([]byte, len(e.payload))
	copy(payload, e.payload)
	return payload, true, nil
}

// Put stores payload under key, overwriting any existing entry.
func (s *MemoryStore) Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	stored := make([]byte, len(payload))
	copy(stored, payload)

	s.mu.Lock()
	s.entries[key] = entry{
		payload:   stored,
		expiresAt: time.Now().Add(ttl),
	}
	s.mu.Unlock()
	return nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Close stops the janitor goroutine.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

// cleanupLoop periodically removes expired entries.
func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.done:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}
