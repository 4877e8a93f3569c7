package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

func TestTrackedPoolStoreOrdering(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrackedPoolStore(pool)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	entries := []*domain.TrackedPool{
		{Address: "low-fresh", Priority: 1, LastCheckedAt: base.Add(time.Hour)},
		{Address: "high-stale", Priority: 5, LastCheckedAt: base},
		{Address: "high-fresh", Priority: 5, LastCheckedAt: base.Add(time.Hour)},
		{Address: "low-stale", Priority: 1, LastCheckedAt: base},
	}
	for _, e := range entries {
		require.NoError(t, store.Upsert(ctx, e))
	}

	out, err := store.ListActive(ctx, 0)
	require.NoError(t, err)
	require.Len(t, out, 4)
	want := []string{"high-stale", "high-fresh", "low-stale", "low-fresh"}
	for i, w := range want {
		require.Equal(t, w, out[i].Address, "position %d", i)
	}

	out, err = store.ListActive(ctx, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "high-stale", out[0].Address)
}

func TestTrackedPoolStoreUpsertAndTouch(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewTrackedPoolStore(pool)
	ctx := context.Background()

	tp := &domain.TrackedPool{Address: "a", Priority: 1, LastCheckedAt: time.Unix(0, 0).UTC()}
	require.NoError(t, store.Upsert(ctx, tp))

	// Upsert on the same address updates priority in place.
	tp.Priority = 9
	require.NoError(t, store.Upsert(ctx, tp))

	out, err := store.ListActive(ctx, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, 9, out[0].Priority)

	at := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Touch(ctx, "a", at))
	out, _ = store.ListActive(ctx, 0)
	require.True(t, out[0].LastCheckedAt.Equal(at))

	require.ErrorIs(t, store.Touch(ctx, "ghost", at), storage.ErrNotFound)
}
