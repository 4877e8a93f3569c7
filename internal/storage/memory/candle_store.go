package memory

import (
	"context"
	"sort"
	"sync"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

type candleKey struct {
	pool   string
	bucket int64
}

// CandleStore is an in-memory implementation of storage.CandleStore.
type CandleStore struct {
	mu      sync.RWMutex
	candles map[candleKey]*domain.Candle
}

// NewCandleStore creates a new in-memory candle store.
func NewCandleStore() *CandleStore {
	return &CandleStore{candles: make(map[candleKey]*domain.Candle)}
}

// Upsert applies one sample to its (pool, bucket) row. The mutex makes the
// read-merge-write atomic, matching the SQL upsert semantics.
func (s *CandleStore) Upsert(_ context.Context, c *domain.Candle) error {
	if c == nil || c.PoolAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := candleKey{pool: c.PoolAddress, bucket: c.BucketStartMs}
	existing, ok := s.candles[key]
	if !ok {
		candleCopy := *c
		s.candles[key] = &candleCopy
		return nil
	}

	existing.Close = c.Close
	if c.Close > existing.High {
		existing.High = c.Close
	}
	if c.Close < existing.Low {
		existing.Low = c.Close
	}
	existing.VolumeUSD += c.VolumeUSD
	return nil
}

// GetByPoolRange retrieves candles with bucket start in [startMs, endMs],
// ordered by bucket ASC.
func (s *CandleStore) GetByPoolRange(_ context.Context, poolAddress string, startMs, endMs int64) ([]*domain.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Candle
	for key, c := range s.candles {
		if key.pool == poolAddress && key.bucket >= startMs && key.bucket <= endMs {
			candleCopy := *c
			out = append(out, &candleCopy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BucketStartMs < out[j].BucketStartMs })
	return out, nil
}

// SumVolumeSince sums candle volume with bucket start >= sinceMs.
func (s *CandleStore) SumVolumeSince(_ context.Context, poolAddress string, sinceMs int64) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum float64
	for key, c := range s.candles {
		if key.pool == poolAddress && key.bucket >= sinceMs {
			sum += c.VolumeUSD
		}
	}
	return sum, nil
}

var _ storage.CandleStore = (*CandleStore)(nil)
