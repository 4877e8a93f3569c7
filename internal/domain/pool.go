package domain

import "time"

// Pool is one venue-specific market for a mint. Many pools may trade the
// same mint; the aggregator folds them into a single Token row.
// Discovery of pools is owned by an external collaborator; this engine only
// resolves reserve refs and updates the market-data columns.
type Pool struct {
	Address string
	Mint    string
	Venue   VenueKind

	// TokenA and TokenB are the mints of the two sides, in account order.
	TokenA string
	TokenB string

	// ReserveA and ReserveB reference the accounts holding each side's
	// balance (SPL vaults for AMM pools, the curve account itself for
	// bonding curves). Nil until resolved from the pool account bytes.
	ReserveA *string
	ReserveB *string

	PriceUSD     float64
	LiquidityUSD float64
	Volume24hUSD float64

	CreatedAt time.Time
}

// ReservesResolved reports whether both reserve refs are known.
func (p *Pool) ReservesResolved() bool {
	return p.ReserveA != nil && *p.ReserveA != "" && p.ReserveB != nil && *p.ReserveB != ""
}
