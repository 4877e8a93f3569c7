package domain

// SnapshotRecord is one archived observation of a pool, written append-only
// to the analytical store after each successful snapshot.
type SnapshotRecord struct {
	PoolAddress  string
	Mint         string
	Venue        VenueKind
	CapturedAtMs int64
	PriceUSD     float64
	LiquidityUSD float64
	VolumeUSD    float64
}
