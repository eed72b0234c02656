package challenge

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local challenge store with TTL-based eviction.
type MemoryStore struct {
	mu         sync.RWMutex
	challenges map[string]*Challenge

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// NewMemoryStore creates an in-memory store. cleanupInterval <= 0 disables
// the janitor; expired entries are still invisible to Get.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		challenges:  make(map[string]*Challenge),
		stopCleanup: make(chan struct{}),
	}

	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}

	return s
}

func (s *MemoryStore) Put(ctx context.Context, ch *Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *ch
	s.challenges[ch.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.challenges[id]
	if !ok || ch.IsExpired() {
		return nil, ErrNotFound
	}

	cp := *ch
	return &cp, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.challenges, id)
	return nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			for id, ch := range s.challenges {
				if ch.IsExpired() {
					delete(s.challenges, id)
				}
			}
			s.mu.Unlock()
		case <-s.stopCleanup:
			return
		}
	}
}
