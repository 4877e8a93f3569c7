package domain

// PoolSnapshot is the prior-cycle state the volume estimator compares
// against. It lives in a TTL cache: eviction is equivalent to a first
// observation (the next sample emits volume 0), never an error.
type PoolSnapshot struct {
	// QuoteReserve is the normalized quote-side reserve at capture time.
	QuoteReserve float64

	// InvariantK is baseRaw x quoteRaw for constant-product venues,
	// 0 for bonding curves.
	InvariantK float64

	CapturedAtMs int64

	// Complete is the bonding-curve completion flag at capture time.
	Complete bool
}
