package domain

import (
	"math"
	"strconv"
	"time"
)

// Token is the per-mint aggregate row. Existence (and the decimals/supply
// metadata) is owned by an external collaborator; this engine only writes
// the aggregate columns via TokenAggregator.
type Token struct {
	Mint     string
	Decimals int

	// RawSupply is the un-normalized on-chain supply as a decimal string.
	// Empty when the metadata source has not provided it yet.
	RawSupply string

	PriceUSD     float64
	LiquidityUSD float64
	Volume24hUSD float64
	MarketCapUSD float64

	LastUpdated time.Time
}

// NormalizedSupply returns RawSupply scaled by Decimals, or 0 when the
// supply is absent or unparseable.
func (t *Token) NormalizedSupply() float64 {
	if t.RawSupply == "" {
		return 0
	}
	raw, err := strconv.ParseFloat(t.RawSupply, 64)
	if err != nil || raw <= 0 {
		return 0
	}
	return raw / math.Pow(10, float64(t.Decimals))
}
