package clickhouse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"solana-pool-indexer/internal/domain"
)

func TestSnapshotArchiveAppendAndQuery(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	archive := NewSnapshotArchive(conn)
	ctx := context.Background()

	records := []*domain.SnapshotRecord{
		{PoolAddress: "p1", Mint: "m1", Venue: domain.VenueRaydiumAMM, CapturedAtMs: 1000, PriceUSD: 2.0, LiquidityUSD: 6000, VolumeUSD: 100},
		{PoolAddress: "p1", Mint: "m1", Venue: domain.VenueRaydiumAMM, CapturedAtMs: 2000, PriceUSD: 2.1, LiquidityUSD: 6100, VolumeUSD: 50},
		{PoolAddress: "p2", Mint: "m2", Venue: domain.VenuePumpFun, CapturedAtMs: 1500, PriceUSD: 0.5, LiquidityUSD: 900, VolumeUSD: 10},
	}
	require.NoError(t, archive.AppendBatch(ctx, records))

	out, err := archive.GetByPoolRange(ctx, "p1", 0, 5000)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, int64(1000), out[0].CapturedAtMs)
	require.Equal(t, int64(2000), out[1].CapturedAtMs)
	require.Equal(t, domain.VenueRaydiumAMM, out[0].Venue)
	require.Equal(t, 2.1, out[1].PriceUSD)

	out, err = archive.GetByPoolRange(ctx, "p1", 1500, 5000)
	require.NoError(t, err)
	require.Len(t, out, 1)

	require.NoError(t, archive.AppendBatch(ctx, nil), "empty batch is a no-op")
}
