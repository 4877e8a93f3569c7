// Package pricing converts pool reserves into USD price and liquidity.
package pricing

// Well-known quote-asset mints.
const (
	WSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
)

// QuoteAsset describes one side of a pool that can anchor USD pricing.
// Pinned assets carry a fixed USD price; the rest are priced by a live
// source.
type QuoteAsset struct {
	Mint      string
	Symbol    string
	Decimals  uint8
	Pinned    bool
	PinnedUSD float64
}

var quoteAssets = map[string]QuoteAsset{
	WSOLMint: {Mint: WSOLMint, Symbol: "SOL", Decimals: 9},
	USDCMint: {Mint: USDCMint, Symbol: "USDC", Decimals: 6, Pinned: true, PinnedUSD: 1.0},
	USDTMint: {Mint: USDTMint, Symbol: "USDT", Decimals: 6, Pinned: true, PinnedUSD: 1.0},
}

// QuoteAssetFor returns the quote-asset entry for a mint, if known.
func QuoteAssetFor(mint string) (QuoteAsset, bool) {
	q, ok := quoteAssets[mint]
	return q, ok
}

// IsQuoteAsset reports whether the mint belongs to the known quote set.
func IsQuoteAsset(mint string) bool {
	_, ok := quoteAssets[mint]
	return ok
}
