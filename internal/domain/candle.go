package domain

// DefaultBucketMs is the candle bucket duration (1 minute).
const DefaultBucketMs int64 = 60_000

// Candle is one OHLCV row keyed by (PoolAddress, BucketStartMs).
// Rows are insert-or-merge only: a bucket is mutated additively while
// current and immutable once it has elapsed.
type Candle struct {
	PoolAddress   string
	BucketStartMs int64

	Open      float64
	High      float64
	Low       float64
	Close     float64
	VolumeUSD float64
}

// BucketStart truncates a millisecond timestamp to its bucket boundary.
func BucketStart(tsMs, bucketMs int64) int64 {
	if bucketMs <= 0 {
		bucketMs = DefaultBucketMs
	}
	return tsMs / bucketMs * bucketMs
}
