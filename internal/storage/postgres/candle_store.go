package postgres

import (
	"context"
	"fmt"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

// CandleStore implements storage.CandleStore using PostgreSQL.
type CandleStore struct {
	pool *Pool
}

// NewCandleStore creates a new CandleStore.
func NewCandleStore(pool *Pool) *CandleStore {
	return &CandleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CandleStore = (*CandleStore)(nil)

// Upsert applies one sample to its (pool, bucket) row. The whole merge runs
// inside one INSERT ... ON CONFLICT statement, so concurrent writers and
// crashes cannot lose an increment.
func (s *CandleStore) Upsert(ctx context.Context, c *domain.Candle) error {
	query := `
		INSERT INTO candles (
			pool_address, bucket_start_ms, open, high, low, close, volume_usd
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (pool_address, bucket_start_ms) DO UPDATE SET
			close      = EXCLUDED.close,
			high       = GREATEST(candles.high, EXCLUDED.close),
			low        = LEAST(candles.low, EXCLUDED.close),
			volume_usd = candles.volume_usd + EXCLUDED.volume_usd
	`

	_, err := s.pool.Exec(ctx, query,
		c.PoolAddress,
		c.BucketStartMs,
		c.Open,
		c.High,
		c.Low,
		c.Close,
		c.VolumeUSD,
	)
	if err != nil {
		return fmt.Errorf("upsert candle: %w", err)
	}
	return nil
}

// GetByPoolRange retrieves candles with bucket start in [startMs, endMs],
// ordered by bucket ASC.
func (s *CandleStore) GetByPoolRange(ctx context.Context, poolAddress string, startMs, endMs int64) ([]*domain.Candle, error) {
	query := `
		SELECT pool_address, bucket_start_ms, open, high, low, close, volume_usd
		FROM candles
		WHERE pool_address = $1 AND bucket_start_ms BETWEEN $2 AND $3
		ORDER BY bucket_start_ms ASC
	`

	rows, err := s.pool.Query(ctx, query, poolAddress, startMs, endMs)
	if err != nil {
		return nil, fmt.Errorf("get candles by range: %w", err)
	}
	defer rows.Close()

	var out []*domain.Candle
	for rows.Next() {
		var c domain.Candle
		if err := rows.Scan(&c.PoolAddress, &c.BucketStartMs, &c.Open, &c.High, &c.Low, &c.Close, &c.VolumeUSD); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

// SumVolumeSince sums candle volume with bucket start >= sinceMs.
func (s *CandleStore) SumVolumeSince(ctx context.Context, poolAddress string, sinceMs int64) (float64, error) {
	query := `
		SELECT COALESCE(SUM(volume_usd), 0)
		FROM candles
		WHERE pool_address = $1 AND bucket_start_ms >= $2
	`

	var sum float64
	if err := s.pool.QueryRow(ctx, query, poolAddress, sinceMs).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum candle volume: %w", err)
	}
	return sum, nil
}
