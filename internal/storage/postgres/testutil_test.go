package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema is the test database schema. Production schema management is owned
// by the deployment layer; the stores only assume these shapes.
const schema = `
CREATE TABLE pools (
	address        TEXT PRIMARY KEY,
	mint           TEXT NOT NULL,
	venue          TEXT NOT NULL DEFAULT '',
	token_a        TEXT NOT NULL DEFAULT '',
	token_b        TEXT NOT NULL DEFAULT '',
	reserve_a      TEXT,
	reserve_b      TEXT,
	price_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
	liquidity_usd  DOUBLE PRECISION NOT NULL DEFAULT 0,
	volume_24h_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX pools_mint_idx ON pools (mint);

CREATE TABLE tokens (
	mint           TEXT PRIMARY KEY,
	decimals       INTEGER NOT NULL DEFAULT 0,
	raw_supply     TEXT NOT NULL DEFAULT '',
	price_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
	liquidity_usd  DOUBLE PRECISION NOT NULL DEFAULT 0,
	volume_24h_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
	market_cap_usd DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_updated   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE candles (
	pool_address    TEXT NOT NULL,
	bucket_start_ms BIGINT NOT NULL,
	open            DOUBLE PRECISION NOT NULL,
	high            DOUBLE PRECISION NOT NULL,
	low             DOUBLE PRECISION NOT NULL,
	close           DOUBLE PRECISION NOT NULL,
	volume_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (pool_address, bucket_start_ms)
);

CREATE TABLE tracked_pools (
	address         TEXT PRIMARY KEY,
	priority        INTEGER NOT NULL DEFAULT 0,
	last_checked_at TIMESTAMPTZ NOT NULL DEFAULT 'epoch'
);
`

// setupTestDB creates a PostgreSQL container and applies the schema.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	_, err = pool.Exec(ctx, schema)
	require.NoError(t, err, "failed to apply schema")

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}
