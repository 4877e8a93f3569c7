package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/layout"
	"solana-pool-indexer/internal/observability"
	"solana-pool-indexer/internal/pricing"
	"solana-pool-indexer/internal/storage"
	"solana-pool-indexer/internal/volume"
)

// defaultBaseDecimals is assumed when token metadata has not been
// provisioned yet. Both major launchpads mint 6-decimal tokens.
const defaultBaseDecimals = 6

const day = 24 * time.Hour

// runCycle executes one full snapshot pass: tracked pools in priority
// order, chunked, then per-mint aggregation.
func (s *Scheduler) runCycle(ctx context.Context) error {
	if s.quotes != nil {
		s.quotes.Refresh(ctx)
	}

	entries, err := s.tracked.ListActive(ctx, s.cfg.MaxTracked)
	if err != nil {
		return fmt.Errorf("list tracked pools: %w", err)
	}

	addresses := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	// Watcher-flagged pools jump the queue.
	if s.dirty != nil {
		for _, addr := range s.dirty.Drain() {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			addresses = append(addresses, addr)
		}
	}
	for _, e := range entries {
		if _, ok := seen[e.Address]; ok {
			continue
		}
		seen[e.Address] = struct{}{}
		addresses = append(addresses, e.Address)
	}
	if len(addresses) == 0 {
		return nil
	}

	touched := make(map[string]struct{})
	var records []*domain.SnapshotRecord

	for start := 0; start < len(addresses); start += s.cfg.ChunkSize {
		// Shutdown is honored between chunks, never mid-chunk.
		if err := ctx.Err(); err != nil {
			return err
		}

		end := start + s.cfg.ChunkSize
		if end > len(addresses) {
			end = len(addresses)
		}
		records = append(records, s.snapshotChunk(ctx, addresses[start:end], touched)...)

		if end < len(addresses) && s.cfg.ChunkDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.ChunkDelay):
			}
		}
	}

	if s.archive != nil && len(records) > 0 {
		if err := s.archive.AppendBatch(ctx, records); err != nil {
			observability.DefaultMetrics.ArchiveBatchErrors.Inc()
			s.logger.Printf("[scheduler] archive batch of %d records failed: %v", len(records), err)
		}
	}

	for mint := range touched {
		if err := s.agg.Aggregate(ctx, mint); err != nil {
			s.logger.Printf("[scheduler] aggregate %s failed: %v", mint, err)
			continue
		}
		observability.RecordAggregateComputed()
	}

	return nil
}

// snapshotChunk processes one chunk of pool addresses: resolve reserve
// refs, batch-fetch reserve accounts, then price each pool. Mints that got
// a successful snapshot are added to touched.
func (s *Scheduler) snapshotChunk(ctx context.Context, addrs []string, touched map[string]struct{}) []*domain.SnapshotRecord {
	pools := make([]*domain.Pool, 0, len(addrs))
	for _, addr := range addrs {
		p, err := s.pools.GetByAddress(ctx, addr)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.logger.Printf("[scheduler] load pool %s: %v", addr, err)
			}
			observability.RecordPoolSkipped("unknown_pool")
			continue
		}
		pools = append(pools, p)
	}

	s.resolveReserves(ctx, pools)

	var keys []string
	for _, p := range pools {
		if !p.ReservesResolved() {
			continue
		}
		keys = append(keys, *p.ReserveA)
		if *p.ReserveB != *p.ReserveA {
			keys = append(keys, *p.ReserveB)
		}
	}
	data := s.fetcher.FetchMany(ctx, keys)

	nowMs := s.nowMs()
	var records []*domain.SnapshotRecord
	for _, p := range pools {
		rec := s.snapshotPool(ctx, p, data, nowMs)
		if rec == nil {
			continue
		}
		touched[p.Mint] = struct{}{}
		records = append(records, rec)
	}
	return records
}

// resolveReserves fills in missing reserve refs. AMM pools need their pool
// account decoded once to learn the vault addresses; bonding curves derive
// the curve account from the mint. Resolved refs are persisted so later
// cycles skip this step.
func (s *Scheduler) resolveReserves(ctx context.Context, pools []*domain.Pool) {
	var needDecode []*domain.Pool
	for _, p := range pools {
		if p.ReservesResolved() {
			continue
		}
		if p.Venue.IsEmbeddedCurve() {
			curve, err := layout.DeriveCurveAddress(p.Mint)
			if err != nil {
				s.logger.Printf("[scheduler] derive curve for %s: %v", p.Mint, err)
				continue
			}
			if p.TokenA == "" || p.TokenB == "" {
				p.TokenA, p.TokenB = p.Mint, pricing.WSOLMint
			}
			s.setReserves(ctx, p, curve, curve)
			continue
		}
		needDecode = append(needDecode, p)
	}
	if len(needDecode) == 0 {
		return
	}

	addrs := make([]string, 0, len(needDecode))
	for _, p := range needDecode {
		addrs = append(addrs, p.Address)
	}
	data := s.fetcher.FetchMany(ctx, addrs)

	for _, p := range needDecode {
		raw := data[p.Address]
		if raw == nil {
			continue // skipped this cycle, retried next
		}
		spec, ok := layout.LayoutForVenue(p.Venue)
		if !ok {
			continue
		}
		baseVault, quoteVault, err := layout.DecodeVaults(spec, raw)
		if err != nil {
			s.logger.Printf("[scheduler] decode vaults for %s: %v", p.Address, err)
			continue
		}
		// The pool account also names the side mints; fill them in when
		// discovery left them blank.
		if p.TokenA == "" || p.TokenB == "" {
			if baseMint, quoteMint, err := layout.DecodeSideMints(spec, raw); err == nil {
				p.TokenA, p.TokenB = baseMint, quoteMint
			}
		}
		s.setReserves(ctx, p, baseVault, quoteVault)
	}
}

func (s *Scheduler) setReserves(ctx context.Context, p *domain.Pool, reserveA, reserveB string) {
	if err := s.pools.UpdateReserves(ctx, p.Address, p.TokenA, p.TokenB, reserveA, reserveB); err != nil {
		s.logger.Printf("[scheduler] persist reserves for %s: %v", p.Address, err)
	}
	p.ReserveA, p.ReserveB = &reserveA, &reserveB
}

// snapshotPool prices one pool from the fetched account data and writes
// its candle and market-data rows. Returns nil when the pool was skipped.
func (s *Scheduler) snapshotPool(ctx context.Context, p *domain.Pool, data map[string][]byte, nowMs int64) *domain.SnapshotRecord {
	spec, ok := layout.LayoutForVenue(p.Venue)
	if !ok {
		observability.RecordPoolSkipped("unknown_venue")
		return nil
	}
	if !p.ReservesResolved() {
		observability.RecordPoolSkipped("unresolved")
		return nil
	}

	var (
		pr       pricing.PoolPricing
		err      error
		complete bool
	)
	switch spec.Kind {
	case layout.KindVault:
		rawA, rawB := data[*p.ReserveA], data[*p.ReserveB]
		if rawA == nil || rawB == nil {
			observability.RecordPoolSkipped("fetch")
			return nil
		}
		amtA, errA := layout.DecodeTokenAmount(rawA)
		amtB, errB := layout.DecodeTokenAmount(rawB)
		if errA != nil || errB != nil {
			s.logger.Printf("[scheduler] decode vault amounts for %s: %v %v", p.Address, errA, errB)
			observability.RecordPoolSkipped("decode")
			return nil
		}
		pr, err = s.calc.Price(p.TokenA, p.TokenB, amtA, amtB, s.baseDecimals(ctx, p.Mint))

	case layout.KindEmbedded:
		raw := data[*p.ReserveA]
		if raw == nil {
			observability.RecordPoolSkipped("fetch")
			return nil
		}
		state, decErr := layout.DecodeCurve(spec, raw)
		if decErr != nil {
			s.logger.Printf("[scheduler] decode curve for %s: %v", p.Address, decErr)
			observability.RecordPoolSkipped("decode")
			return nil
		}
		complete = state.Complete
		pr, err = s.calc.Price(p.Mint, pricing.WSOLMint, state.BaseRaw, state.QuoteRaw, s.baseDecimals(ctx, p.Mint))

	default:
		observability.RecordPoolSkipped("unknown_venue")
		return nil
	}

	if err != nil {
		// Unpriceable this cycle: stored values stay as they are.
		observability.RecordPoolSkipped("unpriceable")
		return nil
	}

	vol := s.estimator.Estimate(ctx, volume.Sample{
		PoolAddress:     p.Address,
		Venue:           p.Venue,
		BaseRaw:         pr.BaseRaw,
		QuoteRaw:        pr.QuoteRaw,
		QuoteNormalized: pr.QuoteNormalized,
		QuoteUSD:        pr.QuoteUSD,
		Complete:        complete,
	})

	candle := &domain.Candle{
		PoolAddress:   p.Address,
		BucketStartMs: domain.BucketStart(nowMs, s.cfg.BucketMs),
		Open:          pr.PriceUSD,
		High:          pr.PriceUSD,
		Low:           pr.PriceUSD,
		Close:         pr.PriceUSD,
		VolumeUSD:     vol,
	}
	if err := s.candles.Upsert(ctx, candle); err != nil {
		s.logger.Printf("[scheduler] upsert candle for %s: %v", p.Address, err)
	} else {
		observability.RecordCandleWritten()
	}

	vol24, err := s.candles.SumVolumeSince(ctx, p.Address, nowMs-day.Milliseconds())
	if err != nil {
		s.logger.Printf("[scheduler] 24h volume for %s: %v", p.Address, err)
		vol24 = p.Volume24hUSD
	}

	if err := s.pools.UpdateMarketData(ctx, p.Address, pr.PriceUSD, pr.LiquidityUSD, vol24); err != nil {
		s.logger.Printf("[scheduler] update market data for %s: %v", p.Address, err)
	}
	if err := s.tracked.Touch(ctx, p.Address, time.UnixMilli(nowMs)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Printf("[scheduler] touch %s: %v", p.Address, err)
	}

	observability.RecordPoolSnapshotted()
	return &domain.SnapshotRecord{
		PoolAddress:  p.Address,
		Mint:         p.Mint,
		Venue:        p.Venue,
		CapturedAtMs: nowMs,
		PriceUSD:     pr.PriceUSD,
		LiquidityUSD: pr.LiquidityUSD,
		VolumeUSD:    vol,
	}
}

func (s *Scheduler) baseDecimals(ctx context.Context, mint string) uint8 {
	t, err := s.tokens.GetByMint(ctx, mint)
	if err != nil || t.Decimals <= 0 || t.Decimals > 18 {
		return defaultBaseDecimals
	}
	return uint8(t.Decimals)
}
