package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Store is an in-process map with optional expiry and a size bound. A zero
// ttl keeps entries until they are evicted; a zero capacity never evicts.
// When full, the oldest inserted key is dropped first.
type Store[V any] struct {
	mu       sync.Mutex
	entries  map[string]entry[V]
	order    []string
	ttl      time.Duration
	capacity int
	now      func() time.Time
}

func NewStore[V any](ttl time.Duration, capacity int) *Store[V] {
	return &Store[V]{
		entries:  make(map[string]entry[V]),
		ttl:      ttl,
		capacity: max(capacity, 0),
		now:      time.Now,
	}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if s == nil || key == "" {
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.entries[key]
	if !ok {
		return zero, false
	}
	if !item.expiresAt.IsZero() && !s.now().Before(item.expiresAt) {
		delete(s.entries, key)
		return zero, false
	}
	return item.value, true
}

func (s *Store[V]) Has(ctx context.Context, key string) bool {
	_, ok := s.Get(ctx, key)
	return ok
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if s == nil || key == "" {
		return
	}

	var expiresAt time.Time
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = entry[V]{value: value, expiresAt: expiresAt}
	s.evictLocked()
}

func (s *Store[V]) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictLocked trims order of keys already expired away, then drops the
// oldest keys until the store fits its capacity.
func (s *Store[V]) evictLocked() {
	if s.capacity == 0 || len(s.entries) <= s.capacity {
		if len(s.order) > 2*len(s.entries)+16 {
			s.compactLocked()
		}
		return
	}
	s.compactLocked()
	for len(s.entries) > s.capacity && len(s.order) > 0 {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
}

func (s *Store[V]) compactLocked() {
	kept := s.order[:0]
	for _, key := range s.order {
		if _, ok := s.entries[key]; ok {
			kept = append(kept, key)
		}
	}
	clear(s.order[len(kept):])
	s.order = kept
}
