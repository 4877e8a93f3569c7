package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Insert adds a new pool. Returns ErrDuplicateKey if address exists.
func (s *PoolStore) Insert(ctx context.Context, p *domain.Pool) error {
	query := `
		INSERT INTO pools (
			address, mint, venue, token_a, token_b, reserve_a, reserve_b,
			price_usd, liquidity_usd, volume_24h_usd, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := s.pool.Exec(ctx, query,
		p.Address,
		p.Mint,
		string(p.Venue),
		p.TokenA,
		p.TokenB,
		p.ReserveA,
		p.ReserveB,
		p.PriceUSD,
		p.LiquidityUSD,
		p.Volume24hUSD,
		p.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert pool: %w", err)
	}
	return nil
}

// GetByAddress retrieves a pool by address. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(ctx context.Context, address string) (*domain.Pool, error) {
	query := selectPool + ` WHERE address = $1`

	row := s.pool.QueryRow(ctx, query, address)
	p, err := scanPool(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool by address: %w", err)
	}
	return p, nil
}

// GetByMint retrieves all pools trading a given mint, oldest first.
func (s *PoolStore) GetByMint(ctx context.Context, mint string) ([]*domain.Pool, error) {
	query := selectPool + ` WHERE mint = $1 ORDER BY created_at ASC, address ASC`

	rows, err := s.pool.Query(ctx, query, mint)
	if err != nil {
		return nil, fmt.Errorf("get pools by mint: %w", err)
	}
	defer rows.Close()

	var out []*domain.Pool
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateReserves records the resolved side mints and reserve account refs.
func (s *PoolStore) UpdateReserves(ctx context.Context, address, tokenA, tokenB, reserveA, reserveB string) error {
	query := `
		UPDATE pools
		SET token_a = $2, token_b = $3, reserve_a = $4, reserve_b = $5
		WHERE address = $1
	`

	tag, err := s.pool.Exec(ctx, query, address, tokenA, tokenB, reserveA, reserveB)
	if err != nil {
		return fmt.Errorf("update pool reserves: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpdateMarketData writes the pool's price, liquidity, and 24h volume.
func (s *PoolStore) UpdateMarketData(ctx context.Context, address string, priceUSD, liquidityUSD, volume24hUSD float64) error {
	query := `
		UPDATE pools
		SET price_usd = $2, liquidity_usd = $3, volume_24h_usd = $4
		WHERE address = $1
	`

	tag, err := s.pool.Exec(ctx, query, address, priceUSD, liquidityUSD, volume24hUSD)
	if err != nil {
		return fmt.Errorf("update pool market data: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

const selectPool = `
	SELECT address, mint, venue, token_a, token_b, reserve_a, reserve_b,
	       price_usd, liquidity_usd, volume_24h_usd, created_at
	FROM pools
`

// scanPool scans a single row into a Pool.
func scanPool(row pgx.Row) (*domain.Pool, error) {
	var (
		p     domain.Pool
		venue string
	)

	err := row.Scan(
		&p.Address,
		&p.Mint,
		&venue,
		&p.TokenA,
		&p.TokenB,
		&p.ReserveA,
		&p.ReserveB,
		&p.PriceUSD,
		&p.LiquidityUSD,
		&p.Volume24hUSD,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Venue = domain.VenueKind(venue)
	return &p, nil
}
