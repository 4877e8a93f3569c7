// Package redis provides the Redis-backed pool snapshot cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/volume"
)

// DefaultSnapshotTTL bounds how long a prior-cycle snapshot survives.
// Eviction reads as a first observation, so a short TTL only zeroes one
// sample's volume per pool.
const DefaultSnapshotTTL = 1 * time.Hour

// SnapshotCache implements volume.SnapshotCache on Redis, sharing state
// across horizontally scaled instances and restarts.
type SnapshotCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSnapshotCache creates a cache. ttl <= 0 selects DefaultSnapshotTTL.
func NewSnapshotCache(client *redis.Client, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &SnapshotCache{client: client, ttl: ttl}
}

var _ volume.SnapshotCache = (*SnapshotCache)(nil)

// Ping checks the connection to the Redis server.
func (c *SnapshotCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func key(poolAddress string) string {
	return fmt.Sprintf("snapshot:%s", poolAddress)
}

// Get returns the stored snapshot, or (nil, nil) on a miss.
func (c *SnapshotCache) Get(ctx context.Context, poolAddress string) (*domain.PoolSnapshot, error) {
	raw, err := c.client.Get(ctx, key(poolAddress)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var snap domain.PoolSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		// A corrupt entry reads as a miss; it gets overwritten this cycle.
		return nil, nil
	}
	return &snap, nil
}

// Put stores the snapshot with the configured TTL.
func (c *SnapshotCache) Put(ctx context.Context, poolAddress string, snap domain.PoolSnapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, key(poolAddress), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}
