package memory

import (
	"context"
	"sync"
	"time"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu     sync.RWMutex
	byMint map[string]*domain.Token
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{byMint: make(map[string]*domain.Token)}
}

// Insert adds a new token. Returns ErrDuplicateKey if mint exists.
func (s *TokenStore) Insert(_ context.Context, t *domain.Token) error {
	if t == nil || t.Mint == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byMint[t.Mint]; exists {
		return storage.ErrDuplicateKey
	}

	tokenCopy := *t
	s.byMint[t.Mint] = &tokenCopy
	return nil
}

// GetByMint retrieves a token by mint. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByMint(_ context.Context, mint string) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.byMint[mint]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// UpdateAggregates writes the aggregate columns for a mint. A non-positive
// priceUSD retains the previously stored price. Missing mint is a no-op.
func (s *TokenStore) UpdateAggregates(_ context.Context, mint string, priceUSD, liquidityUSD, volume24hUSD, marketCapUSD float64, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.byMint[mint]
	if !exists {
		return nil
	}

	if priceUSD > 0 {
		t.PriceUSD = priceUSD
	}
	t.LiquidityUSD = liquidityUSD
	t.Volume24hUSD = volume24hUSD
	t.MarketCapUSD = marketCapUSD
	t.LastUpdated = updatedAt
	return nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
