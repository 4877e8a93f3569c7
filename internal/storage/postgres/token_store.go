package postgres

import (
	"context"
	"fmt"
	"time"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Insert adds a new token. Returns ErrDuplicateKey if mint exists.
func (s *TokenStore) Insert(ctx context.Context, t *domain.Token) error {
	query := `
		INSERT INTO tokens (
			mint, decimals, raw_supply,
			price_usd, liquidity_usd, volume_24h_usd, market_cap_usd, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		t.Mint,
		t.Decimals,
		t.RawSupply,
		t.PriceUSD,
		t.LiquidityUSD,
		t.Volume24hUSD,
		t.MarketCapUSD,
		t.LastUpdated,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByMint retrieves a token by mint. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(ctx context.Context, mint string) (*domain.Token, error) {
	query := `
		SELECT mint, decimals, raw_supply,
		       price_usd, liquidity_usd, volume_24h_usd, market_cap_usd, last_updated
		FROM tokens
		WHERE mint = $1
	`

	var t domain.Token
	err := s.pool.QueryRow(ctx, query, mint).Scan(
		&t.Mint,
		&t.Decimals,
		&t.RawSupply,
		&t.PriceUSD,
		&t.LiquidityUSD,
		&t.Volume24hUSD,
		&t.MarketCapUSD,
		&t.LastUpdated,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by mint: %w", err)
	}
	return &t, nil
}

// UpdateAggregates atomically writes the aggregate columns for a mint. The
// CASE guard keeps the previous price when no pool produced a positive one
// this cycle. Never creates the row.
func (s *TokenStore) UpdateAggregates(ctx context.Context, mint string, priceUSD, liquidityUSD, volume24hUSD, marketCapUSD float64, updatedAt time.Time) error {
	query := `
		UPDATE tokens SET
			price_usd      = CASE WHEN $2 > 0 THEN $2 ELSE price_usd END,
			liquidity_usd  = $3,
			volume_24h_usd = $4,
			market_cap_usd = $5,
			last_updated   = $6
		WHERE mint = $1
	`

	_, err := s.pool.Exec(ctx, query, mint, priceUSD, liquidityUSD, volume24hUSD, marketCapUSD, updatedAt)
	if err != nil {
		return fmt.Errorf("update token aggregates: %w", err)
	}
	return nil
}
