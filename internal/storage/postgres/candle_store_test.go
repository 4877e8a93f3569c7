package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-pool-indexer/internal/domain"
)

func candleSample(pool string, bucket int64, price, vol float64) *domain.Candle {
	return &domain.Candle{
		PoolAddress:   pool,
		BucketStartMs: bucket,
		Open:          price,
		High:          price,
		Low:           price,
		Close:         price,
		VolumeUSD:     vol,
	}
}

func TestCandleStoreUpsert(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandleStore(pool)
	ctx := context.Background()

	t.Run("idempotent for zero-volume sample", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, candleSample("p1", 60000, 2.0, 0)))
		require.NoError(t, store.Upsert(ctx, candleSample("p1", 60000, 2.0, 0)))

		out, err := store.GetByPoolRange(ctx, "p1", 60000, 60000)
		require.NoError(t, err)
		require.Len(t, out, 1)
		c := out[0]
		require.Equal(t, 2.0, c.Open)
		require.Equal(t, 2.0, c.High)
		require.Equal(t, 2.0, c.Low)
		require.Equal(t, 2.0, c.Close)
		require.Equal(t, 0.0, c.VolumeUSD)
	})

	t.Run("merges samples within a bucket", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, candleSample("p2", 60000, 1.0, 10)))
		require.NoError(t, store.Upsert(ctx, candleSample("p2", 60000, 1.2, 5)))

		out, err := store.GetByPoolRange(ctx, "p2", 60000, 60000)
		require.NoError(t, err)
		require.Len(t, out, 1)
		c := out[0]
		require.Equal(t, 1.0, c.Open)
		require.Equal(t, 1.2, c.High)
		require.Equal(t, 1.0, c.Low)
		require.Equal(t, 1.2, c.Close)
		require.Equal(t, 15.0, c.VolumeUSD)
	})

	t.Run("low stretches downward", func(t *testing.T) {
		require.NoError(t, store.Upsert(ctx, candleSample("p3", 60000, 1.0, 0)))
		require.NoError(t, store.Upsert(ctx, candleSample("p3", 60000, 0.8, 0)))

		out, err := store.GetByPoolRange(ctx, "p3", 60000, 60000)
		require.NoError(t, err)
		require.Equal(t, 0.8, out[0].Low)
		require.Equal(t, 1.0, out[0].High)
		require.Equal(t, 0.8, out[0].Close)
	})
}

func TestCandleStoreRangeAndSum(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := NewCandleStore(pool)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, candleSample("p1", 60000, 1.0, 10)))
	require.NoError(t, store.Upsert(ctx, candleSample("p1", 120000, 1.1, 20)))
	require.NoError(t, store.Upsert(ctx, candleSample("p1", 180000, 1.2, 30)))
	require.NoError(t, store.Upsert(ctx, candleSample("other", 120000, 5.0, 99)))

	out, err := store.GetByPoolRange(ctx, "p1", 60000, 120000)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, int64(60000), out[0].BucketStartMs)
	require.Equal(t, int64(120000), out[1].BucketStartMs)

	sum, err := store.SumVolumeSince(ctx, "p1", 120000)
	require.NoError(t, err)
	require.Equal(t, 50.0, sum)

	sum, err = store.SumVolumeSince(ctx, "p1", 999999)
	require.NoError(t, err)
	require.Equal(t, 0.0, sum, "empty window sums to zero, not an error")
}
