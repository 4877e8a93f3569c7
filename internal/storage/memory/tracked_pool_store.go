package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

// TrackedPoolStore is an in-memory implementation of storage.TrackedPoolStore.
type TrackedPoolStore struct {
	mu        sync.RWMutex
	byAddress map[string]*domain.TrackedPool
}

// NewTrackedPoolStore creates a new in-memory tracked-pool store.
func NewTrackedPoolStore() *TrackedPoolStore {
	return &TrackedPoolStore{byAddress: make(map[string]*domain.TrackedPool)}
}

// Upsert adds or updates a tracked-pool entry.
func (s *TrackedPoolStore) Upsert(_ context.Context, tp *domain.TrackedPool) error {
	if tp == nil || tp.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entryCopy := *tp
	s.byAddress[tp.Address] = &entryCopy
	return nil
}

// ListActive retrieves up to limit entries ordered by priority DESC, then
// LastCheckedAt ASC.
func (s *TrackedPoolStore) ListActive(_ context.Context, limit int) ([]*domain.TrackedPool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TrackedPool, 0, len(s.byAddress))
	for _, tp := range s.byAddress {
		entryCopy := *tp
		out = append(out, &entryCopy)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].LastCheckedAt.Before(out[j].LastCheckedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Touch sets LastCheckedAt for an address.
func (s *TrackedPoolStore) Touch(_ context.Context, address string, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tp, exists := s.byAddress[address]
	if !exists {
		return storage.ErrNotFound
	}
	tp.LastCheckedAt = checkedAt
	return nil
}

var _ storage.TrackedPoolStore = (*TrackedPoolStore)(nil)
