package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/relate-orm/relate/internal/lru"
)

// MemoryStore keeps entries in process, bounded by size
type MemoryStore struct {
	entries  *lru.LRU[string, []byte]
	mu       sync.Mutex
	counters map[string]int64
}

// NewMemoryStore returns a store holding at most size entries, 0 for unbounded
func NewMemoryStore(size int) *MemoryStore {
	return &MemoryStore{
		entries:  lru.NewLRU[string, []byte](size, nil),
		counters: map[string]int64{},
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	counter, ok := s.counters[key]
	s.mu.Unlock()
	if ok {
		return []byte(strconv.FormatInt(counter, 10)), nil
	}

	if value, ok := s.entries.Get(key); ok {
		return value, nil
	}
	return nil, ErrCacheMiss
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.entries.Add(key, value, ttl)
	return nil
}

// Incr counters are never evicted
func (s *MemoryStore) Incr(ctx context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key]++
	return s.counters[key], nil
}

// Len number of cached entries, counters excluded
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}
