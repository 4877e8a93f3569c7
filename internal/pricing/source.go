package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// FallbackSOLUSD is used when the upstream price source has never answered.
// Pricing must keep moving even with the feed down.
const FallbackSOLUSD = 150.0

// DefaultQuoteTTL bounds how long a fetched SOL price is considered fresh.
const DefaultQuoteTTL = 1 * time.Minute

// QuoteUSDSource returns the current USD price of a quote asset. A zero
// return means the mint is not a known quote asset.
type QuoteUSDSource interface {
	USD(mint string) float64
}

// SOLPriceSource fetches the SOL/USD price over HTTP and caches it with a
// TTL. USD reads are synchronous and never block on the network: a stale or
// absent cache entry falls back to the last known value, then to
// FallbackSOLUSD. Stablecoin quotes are answered from the pinned registry.
type SOLPriceSource struct {
	client *resty.Client
	url    string
	ttl    time.Duration
	logger *log.Logger

	mu        sync.RWMutex
	solUSD    float64
	fetchedAt time.Time
}

// NewSOLPriceSource creates a source polling the given endpoint. The
// endpoint must answer GET with a JSON body containing {"price": <float>}.
func NewSOLPriceSource(url string, ttl time.Duration, logger *log.Logger) *SOLPriceSource {
	if ttl <= 0 {
		ttl = DefaultQuoteTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	client := resty.New()
	client.SetTimeout(10 * time.Second)
	return &SOLPriceSource{client: client, url: url, ttl: ttl, logger: logger}
}

type priceResponse struct {
	Price float64 `json:"price"`
}

// Refresh fetches a fresh SOL/USD price if the cached one has expired.
// Failures are logged and leave the cache untouched.
func (s *SOLPriceSource) Refresh(ctx context.Context) {
	s.mu.RLock()
	fresh := time.Since(s.fetchedAt) < s.ttl && s.solUSD > 0
	s.mu.RUnlock()
	if fresh {
		return
	}

	price, err := s.fetch(ctx)
	if err != nil {
		s.logger.Printf("[pricing] SOL/USD refresh failed, keeping cached value: %v", err)
		return
	}

	s.mu.Lock()
	s.solUSD = price
	s.fetchedAt = time.Now()
	s.mu.Unlock()
}

func (s *SOLPriceSource) fetch(ctx context.Context) (float64, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return 0, fmt.Errorf("fetch SOL price: %w", err)
	}
	if resp.StatusCode() != 200 {
		return 0, fmt.Errorf("fetch SOL price: status %d", resp.StatusCode())
	}

	var body priceResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return 0, fmt.Errorf("decode SOL price: %w", err)
	}
	if body.Price <= 0 {
		return 0, fmt.Errorf("SOL price out of range: %f", body.Price)
	}
	return body.Price, nil
}

// USD implements QuoteUSDSource.
func (s *SOLPriceSource) USD(mint string) float64 {
	q, ok := QuoteAssetFor(mint)
	if !ok {
		return 0
	}
	if q.Pinned {
		return q.PinnedUSD
	}

	s.mu.RLock()
	cached := s.solUSD
	s.mu.RUnlock()
	if cached > 0 {
		return cached
	}
	return FallbackSOLUSD
}

var _ QuoteUSDSource = (*SOLPriceSource)(nil)

// StaticQuoteSource answers from a fixed SOL price. Used in tests and as a
// degraded mode when no price endpoint is configured.
type StaticQuoteSource struct {
	SOLUSD float64
}

// USD implements QuoteUSDSource.
func (s StaticQuoteSource) USD(mint string) float64 {
	q, ok := QuoteAssetFor(mint)
	if !ok {
		return 0
	}
	if q.Pinned {
		return q.PinnedUSD
	}
	if s.SOLUSD > 0 {
		return s.SOLUSD
	}
	return FallbackSOLUSD
}

var _ QuoteUSDSource = StaticQuoteSource{}
