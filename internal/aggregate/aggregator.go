// Package aggregate folds per-pool market data into per-mint token rows.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"solana-pool-indexer/internal/storage"
)

// Aggregator computes the per-mint summary from all pools trading the mint.
// It owns only the aggregate columns of the token row; row existence and
// metadata belong to the external metadata source.
type Aggregator struct {
	pools  storage.PoolStore
	tokens storage.TokenStore
	logger *log.Logger
	now    func() time.Time
}

// NewAggregator creates an aggregator over the given stores.
func NewAggregator(pools storage.PoolStore, tokens storage.TokenStore, logger *log.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{pools: pools, tokens: tokens, logger: logger, now: time.Now}
}

// Aggregate recomputes and stores the summary for one mint.
//
// Liquidity and 24h volume are sums over all pools. Price comes from the
// most liquid pool with a positive price (ties keep the first encountered);
// when no pool has one, a zero price is written and the store keeps the
// previous value. Market cap needs both supply metadata and a positive
// price, otherwise it is 0.
func (a *Aggregator) Aggregate(ctx context.Context, mint string) error {
	pools, err := a.pools.GetByMint(ctx, mint)
	if err != nil {
		return fmt.Errorf("load pools for %s: %w", mint, err)
	}
	if len(pools) == 0 {
		return nil
	}

	var (
		liquiditySum float64
		volumeSum    float64
		price        float64
		bestLiq      = -1.0
	)
	for _, p := range pools {
		liquiditySum += p.LiquidityUSD
		volumeSum += p.Volume24hUSD
		if p.PriceUSD > 0 && p.LiquidityUSD > bestLiq {
			bestLiq = p.LiquidityUSD
			price = p.PriceUSD
		}
	}

	marketCap := 0.0
	token, err := a.tokens.GetByMint(ctx, mint)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// Metadata not provisioned yet. Nothing to write: the update
		// below would be a no-op, and market cap needs the supply anyway.
		return nil
	case err != nil:
		return fmt.Errorf("load token %s: %w", mint, err)
	default:
		// A zero price this cycle falls back to the stored one, matching
		// the retention the store applies to the price column itself.
		effective := price
		if effective <= 0 {
			effective = token.PriceUSD
		}
		if supply := token.NormalizedSupply(); supply > 0 && effective > 0 {
			marketCap = supply * effective
		}
	}

	if err := a.tokens.UpdateAggregates(ctx, mint, price, liquiditySum, volumeSum, marketCap, a.now()); err != nil {
		return fmt.Errorf("store aggregates for %s: %w", mint, err)
	}
	return nil
}
