package pricing

import (
	"errors"
	"math"
)

// ErrUnpriceable marks a pool that cannot be priced this cycle: neither
// side is a known quote asset, the base reserve is empty, or the quote
// price is unavailable. Callers retain the pool's previous values.
var ErrUnpriceable = errors.New("pool unpriceable")

// PoolPricing is the result of pricing one pool from its raw reserves.
type PoolPricing struct {
	PriceUSD     float64
	LiquidityUSD float64

	BaseRaw  uint64
	QuoteRaw uint64

	// QuoteNormalized and QuoteUSD feed the volume estimator, which
	// needs the same quote-side view the price was computed from.
	QuoteNormalized float64
	QuoteUSD        float64
	QuoteMint       string
}

// Calculator prices pools against the known quote-asset set.
type Calculator struct {
	quotes QuoteUSDSource
}

// NewCalculator creates a calculator backed by the given USD source.
func NewCalculator(quotes QuoteUSDSource) *Calculator {
	return &Calculator{quotes: quotes}
}

// Price identifies the quote side of a (tokenA, tokenB) pair, normalizes
// both reserves, and returns the pool's USD price and liquidity.
//
//	priceUSD     = (quoteNormalized / baseNormalized) * quoteUSD
//	liquidityUSD = quoteNormalized * quoteUSD * 2
//
// When both sides are quote assets, the pinned stablecoin side wins so the
// result does not depend on the live SOL feed.
func (c *Calculator) Price(tokenA, tokenB string, rawA, rawB uint64, baseDecimals uint8) (PoolPricing, error) {
	quoteMint, baseRaw, quoteRaw, ok := splitSides(tokenA, tokenB, rawA, rawB)
	if !ok {
		return PoolPricing{}, ErrUnpriceable
	}

	quote, _ := QuoteAssetFor(quoteMint)
	quoteUSD := c.quotes.USD(quoteMint)
	if quoteUSD <= 0 {
		return PoolPricing{}, ErrUnpriceable
	}

	baseNorm := float64(baseRaw) / math.Pow(10, float64(baseDecimals))
	quoteNorm := float64(quoteRaw) / math.Pow(10, float64(quote.Decimals))
	if baseNorm <= 0 {
		return PoolPricing{}, ErrUnpriceable
	}

	return PoolPricing{
		PriceUSD:        quoteNorm / baseNorm * quoteUSD,
		LiquidityUSD:    quoteNorm * quoteUSD * 2,
		BaseRaw:         baseRaw,
		QuoteRaw:        quoteRaw,
		QuoteNormalized: quoteNorm,
		QuoteUSD:        quoteUSD,
		QuoteMint:       quoteMint,
	}, nil
}

// splitSides picks the quote side of the pair. Returns ok=false when
// neither token is a known quote asset.
func splitSides(tokenA, tokenB string, rawA, rawB uint64) (quoteMint string, baseRaw, quoteRaw uint64, ok bool) {
	qa, aKnown := QuoteAssetFor(tokenA)
	qb, bKnown := QuoteAssetFor(tokenB)

	switch {
	case aKnown && bKnown:
		if qa.Pinned && !qb.Pinned {
			return tokenA, rawB, rawA, true
		}
		return tokenB, rawA, rawB, true
	case bKnown:
		return tokenB, rawA, rawB, true
	case aKnown:
		return tokenA, rawB, rawA, true
	default:
		return "", 0, 0, false
	}
}
