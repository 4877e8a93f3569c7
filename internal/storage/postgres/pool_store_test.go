package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

func TestPoolStoreCRUD(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPoolStore(pool)
	ctx := context.Background()

	p := &domain.Pool{
		Address:   "addr1",
		Mint:      "mint1",
		Venue:     domain.VenueRaydiumAMM,
		TokenA:    "mint1",
		TokenB:    "So11111111111111111111111111111111111111112",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.Insert(ctx, p))
	require.ErrorIs(t, store.Insert(ctx, p), storage.ErrDuplicateKey)

	got, err := store.GetByAddress(ctx, "addr1")
	require.NoError(t, err)
	require.Equal(t, domain.VenueRaydiumAMM, got.Venue)
	require.Nil(t, got.ReserveA)
	require.False(t, got.ReservesResolved())

	_, err = store.GetByAddress(ctx, "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.UpdateReserves(ctx, "addr1", "mint1", "quoteMint", "vaultA", "vaultB"))
	got, err = store.GetByAddress(ctx, "addr1")
	require.NoError(t, err)
	require.True(t, got.ReservesResolved())
	require.Equal(t, "vaultA", *got.ReserveA)
	require.Equal(t, "quoteMint", got.TokenB)

	require.NoError(t, store.UpdateMarketData(ctx, "addr1", 2.5, 10000, 500))
	got, err = store.GetByAddress(ctx, "addr1")
	require.NoError(t, err)
	require.Equal(t, 2.5, got.PriceUSD)
	require.Equal(t, 10000.0, got.LiquidityUSD)
	require.Equal(t, 500.0, got.Volume24hUSD)

	require.ErrorIs(t, store.UpdateMarketData(ctx, "missing", 1, 1, 1), storage.ErrNotFound)
	require.ErrorIs(t, store.UpdateReserves(ctx, "missing", "m", "q", "a", "b"), storage.ErrNotFound)
}

func TestPoolStoreGetByMint(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewPoolStore(pool)
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.Insert(ctx, &domain.Pool{Address: "a1", Mint: "m1", CreatedAt: base}))
	require.NoError(t, store.Insert(ctx, &domain.Pool{Address: "a2", Mint: "m1", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, store.Insert(ctx, &domain.Pool{Address: "a3", Mint: "m2", CreatedAt: base}))

	pools, err := store.GetByMint(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, pools, 2)
	require.Equal(t, "a1", pools[0].Address)
	require.Equal(t, "a2", pools[1].Address)

	pools, err = store.GetByMint(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, pools)
}
