package clickhouse

import (
	"context"
	"fmt"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

// SnapshotArchive implements storage.SnapshotArchive using ClickHouse.
// The table is append-only MergeTree; the hot path never reads from it.
type SnapshotArchive struct {
	conn *Conn
}

// NewSnapshotArchive creates a new SnapshotArchive.
func NewSnapshotArchive(conn *Conn) *SnapshotArchive {
	return &SnapshotArchive{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotArchive = (*SnapshotArchive)(nil)

// AppendBatch appends one cycle's observations in a single batch.
func (s *SnapshotArchive) AppendBatch(ctx context.Context, records []*domain.SnapshotRecord) error {
	if len(records) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pool_snapshots (
			pool_address, mint, venue, captured_at_ms, price_usd, liquidity_usd, volume_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, r := range records {
		err = batch.Append(
			r.PoolAddress, r.Mint, string(r.Venue),
			uint64(r.CapturedAtMs), r.PriceUSD, r.LiquidityUSD, r.VolumeUSD,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPoolRange retrieves archived observations for a pool within
// [start, end] (inclusive), ordered by capture time ASC.
func (s *SnapshotArchive) GetByPoolRange(ctx context.Context, poolAddress string, start, end int64) ([]*domain.SnapshotRecord, error) {
	query := `
		SELECT pool_address, mint, venue, captured_at_ms, price_usd, liquidity_usd, volume_usd
		FROM pool_snapshots
		WHERE pool_address = ? AND captured_at_ms >= ? AND captured_at_ms <= ?
		ORDER BY captured_at_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, poolAddress, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query snapshots by range: %w", err)
	}
	defer rows.Close()

	var out []*domain.SnapshotRecord
	for rows.Next() {
		var (
			r          domain.SnapshotRecord
			venue      string
			capturedAt uint64
		)
		err := rows.Scan(
			&r.PoolAddress, &r.Mint, &venue,
			&capturedAt, &r.PriceUSD, &r.LiquidityUSD, &r.VolumeUSD,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		r.Venue = domain.VenueKind(venue)
		r.CapturedAtMs = int64(capturedAt)
		out = append(out, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return out, nil
}
