package postgres

import (
	"context"
	"fmt"
	"time"

	"solana-pool-indexer/internal/domain"
	"solana-pool-indexer/internal/storage"
)

// TrackedPoolStore implements storage.TrackedPoolStore using PostgreSQL.
type TrackedPoolStore struct {
	pool *Pool
}

// NewTrackedPoolStore creates a new TrackedPoolStore.
func NewTrackedPoolStore(pool *Pool) *TrackedPoolStore {
	return &TrackedPoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TrackedPoolStore = (*TrackedPoolStore)(nil)

// Upsert adds or updates a tracked-pool entry.
func (s *TrackedPoolStore) Upsert(ctx context.Context, tp *domain.TrackedPool) error {
	query := `
		INSERT INTO tracked_pools (address, priority, last_checked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (address) DO UPDATE SET
			priority        = EXCLUDED.priority,
			last_checked_at = EXCLUDED.last_checked_at
	`

	_, err := s.pool.Exec(ctx, query, tp.Address, tp.Priority, tp.LastCheckedAt)
	if err != nil {
		return fmt.Errorf("upsert tracked pool: %w", err)
	}
	return nil
}

// ListActive retrieves up to limit entries ordered by priority DESC, then
// LastCheckedAt ASC (stalest first).
func (s *TrackedPoolStore) ListActive(ctx context.Context, limit int) ([]*domain.TrackedPool, error) {
	query := `
		SELECT address, priority, last_checked_at
		FROM tracked_pools
		ORDER BY priority DESC, last_checked_at ASC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tracked pools: %w", err)
	}
	defer rows.Close()

	var out []*domain.TrackedPool
	for rows.Next() {
		var tp domain.TrackedPool
		if err := rows.Scan(&tp.Address, &tp.Priority, &tp.LastCheckedAt); err != nil {
			return nil, fmt.Errorf("scan tracked pool: %w", err)
		}
		out = append(out, &tp)
	}
	return out, rows.Err()
}

// Touch sets LastCheckedAt for an address.
func (s *TrackedPoolStore) Touch(ctx context.Context, address string, checkedAt time.Time) error {
	query := `UPDATE tracked_pools SET last_checked_at = $2 WHERE address = $1`

	tag, err := s.pool.Exec(ctx, query, address, checkedAt)
	if err != nil {
		return fmt.Errorf("touch tracked pool: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
