package domain

// VenueKind identifies the DEX program family a pool belongs to.
// The set is fixed: pools owned by any other program are never priced.
type VenueKind string

const (
	// VenueRaydiumAMM is a Raydium AMM v4 constant-product pool whose
	// reserves live in two external SPL vault accounts.
	VenueRaydiumAMM VenueKind = "RAYDIUM_AMM_V4"

	// VenuePumpFun is a pump.fun bonding curve whose virtual reserves and
	// completion flag are embedded directly in the curve account.
	VenuePumpFun VenueKind = "PUMP_FUN"
)

// IsConstantProduct reports whether the k-invariant heuristic applies to
// this venue. Bonding curves use virtual reserves, so no product invariant
// holds across trades there.
func (v VenueKind) IsConstantProduct() bool {
	return v == VenueRaydiumAMM
}

// IsEmbeddedCurve reports whether reserves are read from the pool account
// itself rather than from vault accounts.
func (v VenueKind) IsEmbeddedCurve() bool {
	return v == VenuePumpFun
}
