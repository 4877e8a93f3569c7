// Package volume estimates per-sample trade volume from reserve deltas.
//
// The estimator is a heuristic: it cannot see individual swaps, only the
// reserve movement between two snapshots. Its one hard contract is that
// liquidity adds/removes and curve migrations never count as volume.
package volume

import (
	"context"
	"log"
	"time"

	"solana-pool-indexer/internal/domain"
)

// Constant-product samples whose k drifted outside this band are liquidity
// events, not trades.
const (
	KRatioMin = 0.99
	KRatioMax = 1.01
)

// SnapshotCache stores the prior-cycle PoolSnapshot per pool. Get returns
// (nil, nil) on a miss; an eviction or backend failure is treated as a miss.
type SnapshotCache interface {
	Get(ctx context.Context, poolAddress string) (*domain.PoolSnapshot, error)
	Put(ctx context.Context, poolAddress string, snap domain.PoolSnapshot) error
}

// Sample is one decoded observation of a pool's reserves.
type Sample struct {
	PoolAddress string
	Venue       domain.VenueKind

	BaseRaw  uint64
	QuoteRaw uint64

	// QuoteNormalized and QuoteUSD come from the price calculation of the
	// same observation.
	QuoteNormalized float64
	QuoteUSD        float64

	// Complete is the bonding-curve completion flag; false for AMMs.
	Complete bool
}

// Estimator classifies reserve changes and emits incremental USD volume.
type Estimator struct {
	cache  SnapshotCache
	logger *log.Logger
	nowMs  func() int64
}

// NewEstimator creates an estimator over the given snapshot cache.
func NewEstimator(cache SnapshotCache, logger *log.Logger) *Estimator {
	if logger == nil {
		logger = log.Default()
	}
	return &Estimator{
		cache:  cache,
		logger: logger,
		nowMs:  func() int64 { return time.Now().UnixMilli() },
	}
}

// Estimate returns the USD volume attributed to this sample and records the
// sample as the new prior state. The first observation of a pool always
// yields 0.
func (e *Estimator) Estimate(ctx context.Context, s Sample) float64 {
	prev, err := e.cache.Get(ctx, s.PoolAddress)
	if err != nil {
		e.logger.Printf("[volume] snapshot read for %s failed, treating as first observation: %v", s.PoolAddress, err)
		prev = nil
	}

	vol := 0.0
	if prev != nil {
		vol = e.classify(s, prev)
	}

	snap := domain.PoolSnapshot{
		QuoteReserve: s.QuoteNormalized,
		CapturedAtMs: e.nowMs(),
		Complete:     s.Complete,
	}
	if s.Venue.IsConstantProduct() {
		snap.InvariantK = float64(s.BaseRaw) * float64(s.QuoteRaw)
	}
	// Fire-and-forget: a lost write only zeroes the next sample's volume.
	if err := e.cache.Put(ctx, s.PoolAddress, snap); err != nil {
		e.logger.Printf("[volume] snapshot write for %s failed: %v", s.PoolAddress, err)
	}

	return vol
}

func (e *Estimator) classify(s Sample, prev *domain.PoolSnapshot) float64 {
	if s.Venue.IsConstantProduct() {
		k := float64(s.BaseRaw) * float64(s.QuoteRaw)
		if prev.InvariantK <= 0 {
			return 0
		}
		ratio := k / prev.InvariantK
		if ratio < KRatioMin || ratio > KRatioMax {
			// Liquidity add/remove. State still advances.
			return 0
		}
	} else if s.Complete && !prev.Complete {
		// Curve migration to an AMM moves the whole reserve; not a trade.
		return 0
	}

	delta := s.QuoteNormalized - prev.QuoteReserve
	if delta < 0 {
		delta = -delta
	}
	return delta * s.QuoteUSD
}
