// Package memory provides in-memory store implementations, used in tests
// and as the degraded mode when no database is configured.
package memory

import (
	"context"
	"sync"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

// PoolStore is an in-memory implementation of storage.PoolStore.
type PoolStore struct {
	mu        sync.RWMutex
	byAddress map[string]*domain.Pool
	byMint    map[string][]string // mint -> addresses in insert order
}

// NewPoolStore creates a new in-memory pool store.
func NewPoolStore() *PoolStore {
	return &PoolStore{
		byAddress: make(map[string]*domain.Pool),
		byMint:    make(map[string][]string),
	}
}

// Insert adds a new pool. Returns ErrDuplicateKey if address exists.
func (s *PoolStore) Insert(_ context.Context, p *domain.Pool) error {
	if p == nil || p.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byAddress[p.Address]; exists {
		return storage.ErrDuplicateKey
	}

	poolCopy := *p
	s.byAddress[p.Address] = &poolCopy
	s.byMint[p.Mint] = append(s.byMint[p.Mint], p.Address)
	return nil
}

// GetByAddress retrieves a pool by address. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(_ context.Context, address string) (*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.byAddress[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	poolCopy := *p
	return &poolCopy, nil
}

// GetByMint retrieves all pools trading a given mint, in insert order.
func (s *PoolStore) GetByMint(_ context.Context, mint string) ([]*domain.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addresses := s.byMint[mint]
	out := make([]*domain.Pool, 0, len(addresses))
	for _, addr := range addresses {
		poolCopy := *s.byAddress[addr]
		out = append(out, &poolCopy)
	}
	return out, nil
}

// UpdateReserves records the resolved side mints and reserve account refs.
func (s *PoolStore) UpdateReserves(_ context.Context, address, tokenA, tokenB, reserveA, reserveB string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.byAddress[address]
	if !exists {
		return storage.ErrNotFound
	}

	p.TokenA = tokenA
	p.TokenB = tokenB
	a, b := reserveA, reserveB
	p.ReserveA = &a
	p.ReserveB = &b
	return nil
}

// UpdateMarketData writes the pool's price, liquidity, and 24h volume.
func (s *PoolStore) UpdateMarketData(_ context.Context, address string, priceUSD, liquidityUSD, volume24hUSD float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.byAddress[address]
	if !exists {
		return storage.ErrNotFound
	}

	p.PriceUSD = priceUSD
	p.LiquidityUSD = liquidityUSD
	p.Volume24hUSD = volume24hUSD
	return nil
}

var _ storage.PoolStore = (*PoolStore)(nil)
