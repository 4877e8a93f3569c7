package memory

import (
	"context"
	"testing"
	"time"

	"solana-pool-indexer/internal/domain"
)

func TestSnapshotCachePutGet(t *testing.T) {
	c := NewSnapshotCache(time.Hour)
	ctx := context.Background()

	if got, err := c.Get(ctx, "p1"); err != nil || got != nil {
		t.Fatalf("miss = (%v, %v), want (nil, nil)", got, err)
	}

	snap := domain.PoolSnapshot{QuoteReserve: 500, InvariantK: 520000, CapturedAtMs: 1}
	if err := c.Put(ctx, "p1", snap); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := c.Get(ctx, "p1")
	if err != nil || got == nil {
		t.Fatalf("Get = (%v, %v)", got, err)
	}
	if got.QuoteReserve != 500 || got.InvariantK != 520000 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestSnapshotCacheTTLExpiry(t *testing.T) {
	c := NewSnapshotCache(time.Minute)
	ctx := context.Background()

	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Put(ctx, "p1", domain.PoolSnapshot{QuoteReserve: 1})

	now = now.Add(2 * time.Minute)
	if got, _ := c.Get(ctx, "p1"); got != nil {
		t.Error("expired entry must read as a miss")
	}
}
