// Package snapshot drives the periodic pool snapshot cycle.
package snapshot

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"solana-pool-indexer/internal/aggregate"
	"solana-pool-indexer/internal/fetch"
	"solana-pool-indexer/internal/observability"
	"solana-pool-indexer/internal/pricing"
	"solana-pool-indexer/internal/storage"
	"solana-pool-indexer/internal/volume"
)

// Config tunes the snapshot cadence and chunking.
type Config struct {
	// Interval is the tick period. Cycles never overlap: a tick that
	// arrives while a cycle runs is skipped, not queued.
	Interval time.Duration

	// ChunkSize is the number of pools processed per chunk.
	ChunkSize int

	// ChunkDelay is the pause between chunks, bounding RPC throughput.
	ChunkDelay time.Duration

	// BucketMs is the candle bucket duration in milliseconds.
	BucketMs int64

	// MaxTracked caps the tracked pools loaded per cycle. 0 means all.
	MaxTracked int
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Interval:   30 * time.Second,
		ChunkSize:  25,
		ChunkDelay: 500 * time.Millisecond,
		BucketMs:   60_000,
	}
}

// QuoteRefresher refreshes the quote-asset USD price before a cycle.
type QuoteRefresher interface {
	Refresh(ctx context.Context)
}

// DirtySource hands over pool addresses flagged as changed since the last
// cycle; they are snapshotted ahead of the regular polling order.
type DirtySource interface {
	Drain() []string
}

// Options carries the scheduler's collaborators. Archive, Quotes, and
// Dirty are optional; the rest are required.
type Options struct {
	Config Config

	Tracked    storage.TrackedPoolStore
	Pools      storage.PoolStore
	Tokens     storage.TokenStore
	Candles    storage.CandleStore
	Fetcher    *fetch.ReserveFetcher
	Calculator *pricing.Calculator
	Estimator  *volume.Estimator
	Aggregator *aggregate.Aggregator

	Archive storage.SnapshotArchive
	Quotes  QuoteRefresher
	Dirty   DirtySource

	Logger *log.Logger
}

// Scheduler runs snapshot cycles on a fixed interval.
type Scheduler struct {
	cfg Config

	tracked   storage.TrackedPoolStore
	pools     storage.PoolStore
	tokens    storage.TokenStore
	candles   storage.CandleStore
	fetcher   *fetch.ReserveFetcher
	calc      *pricing.Calculator
	estimator *volume.Estimator
	agg       *aggregate.Aggregator
	archive   storage.SnapshotArchive
	quotes    QuoteRefresher
	dirty     DirtySource

	logger  *log.Logger
	running atomic.Bool
	nowMs   func() int64
}

// New validates the options and creates a scheduler.
func New(opts Options) (*Scheduler, error) {
	switch {
	case opts.Tracked == nil:
		return nil, fmt.Errorf("tracked pool store is required")
	case opts.Pools == nil:
		return nil, fmt.Errorf("pool store is required")
	case opts.Tokens == nil:
		return nil, fmt.Errorf("token store is required")
	case opts.Candles == nil:
		return nil, fmt.Errorf("candle store is required")
	case opts.Fetcher == nil:
		return nil, fmt.Errorf("reserve fetcher is required")
	case opts.Calculator == nil:
		return nil, fmt.Errorf("price calculator is required")
	case opts.Estimator == nil:
		return nil, fmt.Errorf("volume estimator is required")
	case opts.Aggregator == nil:
		return nil, fmt.Errorf("token aggregator is required")
	}

	cfg := opts.Config
	def := DefaultConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkDelay < 0 {
		cfg.ChunkDelay = def.ChunkDelay
	}
	if cfg.BucketMs <= 0 {
		cfg.BucketMs = def.BucketMs
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Scheduler{
		cfg:       cfg,
		tracked:   opts.Tracked,
		pools:     opts.Pools,
		tokens:    opts.Tokens,
		candles:   opts.Candles,
		fetcher:   opts.Fetcher,
		calc:      opts.Calculator,
		estimator: opts.Estimator,
		agg:       opts.Aggregator,
		archive:   opts.Archive,
		quotes:    opts.Quotes,
		dirty:     opts.Dirty,
		logger:    logger,
		nowMs:     func() int64 { return time.Now().UnixMilli() },
	}, nil
}

// Run blocks, running cycles until the context is cancelled. The first
// cycle starts immediately.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick starts one cycle unless a previous one is still running, in which
// case the tick is dropped.
func (s *Scheduler) Tick(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Printf("[scheduler] previous cycle still running, skipping tick")
		observability.RecordCycleSkipped()
		return
	}
	go s.cycle(ctx)
}

// RunCycleBlocking runs one full cycle synchronously. Used by tests and
// one-shot invocations.
func (s *Scheduler) RunCycleBlocking(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		observability.RecordCycleSkipped()
		return
	}
	s.cycle(ctx)
}

// cycle is the panic boundary: whatever happens inside a cycle, the next
// tick can still start one.
func (s *Scheduler) cycle(ctx context.Context) {
	start := time.Now()
	status := "ok"
	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			s.logger.Printf("[scheduler] cycle panicked: %v", r)
		}
		observability.RecordCycle(status, time.Since(start).Seconds())
		if status == "ok" {
			observability.DefaultMetrics.LastSuccessfulCycle.Set(float64(time.Now().Unix()))
		}
		s.running.Store(false)
	}()

	if err := s.runCycle(ctx); err != nil {
		status = "error"
		s.logger.Printf("[scheduler] cycle failed: %v", err)
	}
}
