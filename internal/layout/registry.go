// Package layout maps venue programs to account byte layouts and decodes
// raw account data into normalized reserve state. Decoding fails closed:
// undersized buffers or out-of-range offsets yield an error, never partial
// numbers.
package layout

import "solana-pool-indexer/internal/domain"

// Known DEX program IDs.
const (
	// RaydiumAMMV4 is the Raydium AMM v4 program ID.
	RaydiumAMMV4 = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"
	// PumpFun is the pump.fun program ID.
	PumpFun = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
)

// LayoutKind distinguishes how a venue stores its reserves.
type LayoutKind int

const (
	// KindVault pools store the addresses of two SPL vault accounts; the
	// balances are read from the vaults themselves.
	KindVault LayoutKind = iota
	// KindEmbedded pools (bonding curves) carry both reserve integers and
	// the completion flag directly in the pool account.
	KindEmbedded
)

// LayoutSpec describes the byte offsets of the reserve fields for one
// venue's pool account. Pure data, no behavior.
type LayoutSpec struct {
	Venue  domain.VenueKind
	Kind   LayoutKind
	MinLen int

	// Vault-style: offsets of the 32-byte vault pubkeys and side mints.
	BaseVaultOffset  int
	QuoteVaultOffset int
	BaseMintOffset   int
	QuoteMintOffset  int

	// Embedded-curve: offsets of the u64 reserves and the completion byte.
	BaseReserveOffset  int
	QuoteReserveOffset int
	CompleteOffset     int
}

// SPL token account layout: mint(32) | owner(32) | amount(8) | ...
const (
	tokenAccountMinLen      = 165
	tokenAccountAmountOfs   = 64
	pubkeyLen               = 32
	raydiumStateLen         = 752
	raydiumBaseVaultOffset  = 336
	raydiumQuoteVaultOffset = 368
	raydiumBaseMintOffset   = 400
	raydiumQuoteMintOffset  = 432
)

// pump.fun bonding curve: discriminator(8) | virtualTokenReserves(8) |
// virtualSolReserves(8) | realTokenReserves(8) | realSolReserves(8) |
// tokenTotalSupply(8) | complete(1)
const (
	curveMinLen            = 49
	curveTokenReservesOfs  = 8
	curveSolReservesOfs    = 16
	curveCompleteOffset    = 48
)

// registry is the static owner-program -> layout table.
var registry = map[string]*LayoutSpec{
	RaydiumAMMV4: {
		Venue:            domain.VenueRaydiumAMM,
		Kind:             KindVault,
		MinLen:           raydiumStateLen,
		BaseVaultOffset:  raydiumBaseVaultOffset,
		QuoteVaultOffset: raydiumQuoteVaultOffset,
		BaseMintOffset:   raydiumBaseMintOffset,
		QuoteMintOffset:  raydiumQuoteMintOffset,
	},
	PumpFun: {
		Venue:              domain.VenuePumpFun,
		Kind:               KindEmbedded,
		MinLen:             curveMinLen,
		BaseReserveOffset:  curveTokenReservesOfs,
		QuoteReserveOffset: curveSolReservesOfs,
		CompleteOffset:     curveCompleteOffset,
	},
}

// venueIndex maps VenueKind back to its spec for pools whose owner program
// was resolved at discovery time.
var venueIndex = func() map[domain.VenueKind]*LayoutSpec {
	m := make(map[domain.VenueKind]*LayoutSpec, len(registry))
	for _, spec := range registry {
		m[spec.Venue] = spec
	}
	return m
}()

// LayoutFor returns the layout for an owning program, or false when the
// program is not a known venue.
func LayoutFor(ownerProgramID string) (*LayoutSpec, bool) {
	spec, ok := registry[ownerProgramID]
	return spec, ok
}

// LayoutForVenue returns the layout for a venue kind.
func LayoutForVenue(v domain.VenueKind) (*LayoutSpec, bool) {
	spec, ok := venueIndex[v]
	return spec, ok
}
