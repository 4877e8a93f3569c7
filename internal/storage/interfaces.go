package storage

import (
	"context"
	"time"

	"solana-pool-indexer/internal/domain"
)

// PoolStore provides access to pools storage. Pool rows are created by the
// discovery feed; the engine resolves reserve refs and writes market data.
type PoolStore interface {
	// Insert adds a new pool. Returns ErrDuplicateKey if address exists.
	Insert(ctx context.Context, p *domain.Pool) error

	// GetByAddress retrieves a pool by address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Pool, error)

	// GetByMint retrieves all pools trading a given mint.
	GetByMint(ctx context.Context, mint string) ([]*domain.Pool, error)

	// UpdateReserves records the resolved side mints and reserve account
	// refs learned from the pool account bytes.
	UpdateReserves(ctx context.Context, address, tokenA, tokenB, reserveA, reserveB string) error

	// UpdateMarketData writes the pool's price, liquidity, and 24h volume.
	UpdateMarketData(ctx context.Context, address string, priceUSD, liquidityUSD, volume24hUSD float64) error
}

// TokenStore provides access to tokens storage. Row existence and the
// decimals/supply metadata are owned by an external collaborator.
type TokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if mint exists.
	Insert(ctx context.Context, t *domain.Token) error

	// GetByMint retrieves a token by mint. Returns ErrNotFound if not exists.
	GetByMint(ctx context.Context, mint string) (*domain.Token, error)

	// UpdateAggregates atomically writes the aggregate columns for a mint.
	// A non-positive priceUSD retains the previously stored price.
	// Never creates the row; a missing mint is a no-op.
	UpdateAggregates(ctx context.Context, mint string, priceUSD, liquidityUSD, volume24hUSD, marketCapUSD float64, updatedAt time.Time) error
}

// CandleStore provides access to candles storage.
type CandleStore interface {
	// Upsert applies one price/volume sample to its (pool, bucket) row as a
	// single atomic operation: first sample seeds OHLC, later samples move
	// close, stretch high/low, and add volume.
	Upsert(ctx context.Context, c *domain.Candle) error

	// GetByPoolRange retrieves candles for a pool with bucket start in
	// [startMs, endMs] (inclusive), ordered by bucket ASC.
	GetByPoolRange(ctx context.Context, poolAddress string, startMs, endMs int64) ([]*domain.Candle, error)

	// SumVolumeSince sums candle volume for a pool with bucket start >= sinceMs.
	SumVolumeSince(ctx context.Context, poolAddress string, sinceMs int64) (float64, error)
}

// TrackedPoolStore provides the set of pools the scheduler polls.
type TrackedPoolStore interface {
	// Upsert adds or updates a tracked-pool entry.
	Upsert(ctx context.Context, tp *domain.TrackedPool) error

	// ListActive retrieves up to limit entries ordered by priority DESC,
	// then LastCheckedAt ASC (stalest first). limit <= 0 means no limit.
	ListActive(ctx context.Context, limit int) ([]*domain.TrackedPool, error)

	// Touch sets LastCheckedAt for an address.
	Touch(ctx context.Context, address string, checkedAt time.Time) error
}

// SnapshotArchive appends observations to the analytical store. Writes are
// best-effort: callers log failures and continue.
type SnapshotArchive interface {
	AppendBatch(ctx context.Context, records []*domain.SnapshotRecord) error
}
