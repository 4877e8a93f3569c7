package volume

import (
	"context"
	"errors"
	"testing"

	"solana-pool-indexer/internal/domain"
)

type fakeCache struct {
	snaps  map[string]domain.PoolSnapshot
	getErr error
	putErr error
	puts   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{snaps: make(map[string]domain.PoolSnapshot)}
}

func (c *fakeCache) Get(_ context.Context, pool string) (*domain.PoolSnapshot, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	if s, ok := c.snaps[pool]; ok {
		out := s
		return &out, nil
	}
	return nil, nil
}

func (c *fakeCache) Put(_ context.Context, pool string, snap domain.PoolSnapshot) error {
	c.puts++
	if c.putErr != nil {
		return c.putErr
	}
	c.snaps[pool] = snap
	return nil
}

func ammSample(baseRaw, quoteRaw uint64, quoteNorm, quoteUSD float64) Sample {
	return Sample{
		PoolAddress:     "pool",
		Venue:           domain.VenueRaydiumAMM,
		BaseRaw:         baseRaw,
		QuoteRaw:        quoteRaw,
		QuoteNormalized: quoteNorm,
		QuoteUSD:        quoteUSD,
	}
}

func TestFirstObservationEmitsZero(t *testing.T) {
	cache := newFakeCache()
	e := NewEstimator(cache, nil)

	got := e.Estimate(context.Background(), ammSample(1000, 500, 500, 150))
	if got != 0 {
		t.Errorf("first observation volume = %f, want 0", got)
	}
	if cache.puts != 1 {
		t.Errorf("puts = %d, want 1 (state stored on first sight)", cache.puts)
	}
}

func TestLiquidityEventSuppressed(t *testing.T) {
	cache := newFakeCache()
	e := NewEstimator(cache, nil)
	ctx := context.Background()

	e.Estimate(ctx, ammSample(1000, 500, 500, 150))

	// Reserves (1000, 500) -> (1000, 1000): k doubles, a liquidity add.
	got := e.Estimate(ctx, ammSample(1000, 1000, 1000, 150))
	if got != 0 {
		t.Errorf("liquidity event volume = %f, want 0", got)
	}

	// State still advanced: a follow-up trade measures from the new level.
	snap := cache.snaps["pool"]
	if snap.QuoteReserve != 1000 {
		t.Errorf("stored quote reserve = %f, want 1000", snap.QuoteReserve)
	}
}

func TestTradeWithinKBand(t *testing.T) {
	cache := newFakeCache()
	e := NewEstimator(cache, nil)
	ctx := context.Background()

	// k = 520_000 both times (constant product across a swap).
	e.Estimate(ctx, ammSample(1040, 500, 500, 150))

	got := e.Estimate(ctx, ammSample(1000, 520, 520, 150))
	if want := 20.0 * 150; got != want {
		t.Errorf("trade volume = %f, want %f", got, want)
	}
}

func TestCurveMigrationSuppressed(t *testing.T) {
	cache := newFakeCache()
	e := NewEstimator(cache, nil)
	ctx := context.Background()

	curve := func(quoteNorm float64, complete bool) Sample {
		return Sample{
			PoolAddress:     "curve",
			Venue:           domain.VenuePumpFun,
			QuoteNormalized: quoteNorm,
			QuoteUSD:        150,
			Complete:        complete,
		}
	}

	e.Estimate(ctx, curve(80, false))

	// Completion flips false -> true: migration, suppressed once.
	if got := e.Estimate(ctx, curve(0, true)); got != 0 {
		t.Errorf("migration volume = %f, want 0", got)
	}

	// Curves have no k-invariant: ordinary deltas count directly.
	if got := e.Estimate(ctx, curve(5, true)); got != 5*150 {
		t.Errorf("post-migration volume = %f, want %f", got, 5.0*150)
	}
}

func TestCacheReadFailureMeansFirstObservation(t *testing.T) {
	cache := newFakeCache()
	e := NewEstimator(cache, nil)
	ctx := context.Background()

	e.Estimate(ctx, ammSample(1040, 500, 500, 150))

	cache.getErr = errors.New("redis down")
	got := e.Estimate(ctx, ammSample(1000, 520, 520, 150))
	if got != 0 {
		t.Errorf("volume with unreadable prior state = %f, want 0 (never inferred)", got)
	}
}

func TestCacheWriteFailureDoesNotPropagate(t *testing.T) {
	cache := newFakeCache()
	cache.putErr = errors.New("redis down")
	e := NewEstimator(cache, nil)

	got := e.Estimate(context.Background(), ammSample(1000, 500, 500, 150))
	if got != 0 {
		t.Errorf("volume = %f, want 0", got)
	}
}
