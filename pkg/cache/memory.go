package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryEntries bounds the memory store when no size is configured
const DefaultMemoryEntries = 1024

// MemoryStore is a process-local Store on an expirable LRU. Entries share
// the store-wide TTL, the per-call TTL can only shorten an entry's life.
type MemoryStore struct {
	entries *lru.LRU[string, memoryEntry]

	mu       sync.Mutex
	counters map[string]int64

	hits   atomic.Int64
	misses atomic.Int64
	closed atomic.Bool
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates a memory store holding up to maxEntries values for
// at most ttl each
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	return &MemoryStore{
		entries:  lru.NewLRU[string, memoryEntry](maxEntries, nil, ttl),
		counters: make(map[string]int64),
	}
}

// Name implements Store
func (s *MemoryStore) Name() string { return BackendMemory }

// Get implements Store
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}
	entry, ok := s.entries.Get(key)
	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		s.misses.Add(1)
		return nil, false, nil
	}
	s.hits.Add(1)
	return entry.value, true, nil
}

// Set implements Store
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	s.entries.Add(key, entry)
	return nil
}

// Counter implements Store
func (s *MemoryStore) Counter(ctx context.Context, key string) (int64, bool, error) {
	if s.closed.Load() {
		return 0, false, ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.counters[key]
	return n, ok, nil
}

// Incr implements Store
func (s *MemoryStore) Incr(ctx context.Context, key string, initial int64) (int64, error) {
	if s.closed.Load() {
		return 0, ErrClosed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.counters[key]
	if !ok {
		n = initial
	}
	n++
	s.counters[key] = n
	return n, nil
}

// Ping implements Store
func (s *MemoryStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return nil
}

// Stats returns hit and miss counts and the number of live entries
func (s *MemoryStore) Stats() (hits, misses int64, entries int) {
	return s.hits.Load(), s.misses.Load(), s.entries.Len()
}

// Close implements Store
func (s *MemoryStore) Close() error {
	s.closed.Store(true)
	s.entries.Purge()
	return nil
}
