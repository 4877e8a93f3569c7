package memory

import (
	"context"
	"sync"
	"time"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/volume"
)

// SnapshotCache is a process-local volume.SnapshotCache. Entries expire
// after the TTL; expiry reads as a miss, which the estimator treats as a
// first observation.
type SnapshotCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	snaps map[string]snapshotEntry
	now   func() time.Time
}

type snapshotEntry struct {
	snap     domain.PoolSnapshot
	storedAt time.Time
}

// NewSnapshotCache creates a cache. ttl <= 0 disables expiry.
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		ttl:   ttl,
		snaps: make(map[string]snapshotEntry),
		now:   time.Now,
	}
}

// Get returns the stored snapshot, or (nil, nil) on a miss.
func (c *SnapshotCache) Get(_ context.Context, poolAddress string) (*domain.PoolSnapshot, error) {
	c.mu.RLock()
	entry, ok := c.snaps[poolAddress]
	c.mu.RUnlock()

	if !ok {
		return nil, nil
	}
	if c.ttl > 0 && c.now().Sub(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.snaps, poolAddress)
		c.mu.Unlock()
		return nil, nil
	}

	snapCopy := entry.snap
	return &snapCopy, nil
}

// Put stores the snapshot, resetting its TTL.
func (c *SnapshotCache) Put(_ context.Context, poolAddress string, snap domain.PoolSnapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snaps[poolAddress] = snapshotEntry{snap: snap, storedAt: c.now()}
	return nil
}

var _ volume.SnapshotCache = (*SnapshotCache)(nil)
