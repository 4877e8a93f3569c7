// Package main runs the pool snapshot indexer: a scheduler that polls
// tracked DEX pools over RPC, prices them in USD, estimates trade volume,
// and writes candles and per-token aggregates.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"solana-pool-indexer/internal/aggregate"
	rediscache "solana-pool-indexer/internal/cache/redis"
	"solana-pool-indexer/internal/fetch"
	"solana-pool-indexer/internal/observability"
	"solana-pool-indexer/internal/pricing"
	"solana-pool-indexer/internal/snapshot"
	"solana-pool-indexer/internal/solana"
	"solana-pool-indexer/internal/storage"
	chstore "solana-pool-indexer/internal/storage/clickhouse"
	"solana-pool-indexer/internal/storage/memory"
	pgstore "solana-pool-indexer/internal/storage/postgres"
	"solana-pool-indexer/internal/volume"
	"solana-pool-indexer/internal/watch"
)

// stores holds the storage implementations the engine runs against.
type stores struct {
	pools   storage.PoolStore
	tokens  storage.TokenStore
	candles storage.CandleStore
	tracked storage.TrackedPoolStore
}

func main() {
	// Load .env if present; real env vars win.
	_ = godotenv.Load()

	rpcEndpoints := flag.String("rpc-endpoints", os.Getenv("SOLANA_RPC_ENDPOINTS"), "Comma-separated Solana RPC HTTP endpoints")
	wsEndpoint := flag.String("ws-endpoint", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional)")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (optional)")
	redisAddr := flag.String("redis-addr", os.Getenv("REDIS_ADDR"), "Redis address for the snapshot cache (optional)")
	solPriceURL := flag.String("sol-price-url", os.Getenv("SOL_PRICE_URL"), "HTTP endpoint returning the SOL/USD price (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	interval := flag.Duration("interval", 30*time.Second, "Snapshot cycle interval")
	chunkSize := flag.Int("chunk-size", 25, "Pools processed per chunk")
	chunkDelay := flag.Duration("chunk-delay", 500*time.Millisecond, "Pause between chunks")
	bucketMs := flag.Int64("bucket-ms", 60_000, "Candle bucket duration in milliseconds")
	maxTracked := flag.Int("max-tracked", 0, "Max tracked pools per cycle (0 = all)")
	watchLimit := flag.Int("watch-limit", 50, "Top tracked pools to subscribe over WebSocket")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for /health and /metrics")

	flag.Parse()

	logger := log.New(os.Stdout, "[indexer] ", log.LstdFlags|log.Lshortfile)

	endpoints := splitList(*rpcEndpoints)
	if len(endpoints) == 0 {
		logger.Fatal("--rpc-endpoints is required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients := make([]*solana.HTTPClient, 0, len(endpoints))
	for _, ep := range endpoints {
		clients = append(clients, solana.NewHTTPClient(ep))
	}
	mgr, err := solana.NewConnectionManager(clients)
	if err != nil {
		logger.Fatalf("Failed to create connection manager: %v", err)
	}
	logger.Printf("Using %d RPC endpoint(s)", len(endpoints))

	st, cleanup, err := createStores(ctx, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Snapshot cache backs the volume estimator; Redis keeps the prior
	// observations across restarts, memory is fine for a single run.
	var cache volume.SnapshotCache
	if *redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: *redisAddr})
		rc := rediscache.NewSnapshotCache(rdb, rediscache.DefaultSnapshotTTL)
		if err := rc.Ping(ctx); err != nil {
			logger.Fatalf("Failed to ping redis at %s: %v", *redisAddr, err)
		}
		defer rdb.Close()
		cache = rc
		logger.Printf("Snapshot cache: redis at %s", *redisAddr)
	} else {
		cache = memory.NewSnapshotCache(time.Hour)
		logger.Println("Snapshot cache: in-memory")
	}

	var archive storage.SnapshotArchive
	if *clickhouseDSN != "" {
		chConn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("Failed to connect to clickhouse: %v", err)
		}
		defer chConn.Close()
		archive = chstore.NewSnapshotArchive(chConn)
		logger.Println("Snapshot archive: clickhouse")
	}

	var (
		quoteSource pricing.QuoteUSDSource
		refresher   snapshot.QuoteRefresher
	)
	if *solPriceURL != "" {
		src := pricing.NewSOLPriceSource(*solPriceURL, pricing.DefaultQuoteTTL, logger)
		quoteSource = src
		refresher = src
	} else {
		logger.Printf("No --sol-price-url, pricing SOL at the %.2f fallback", pricing.FallbackSOLUSD)
		quoteSource = pricing.StaticQuoteSource{SOLUSD: pricing.FallbackSOLUSD}
	}

	var dirty snapshot.DirtySource
	if *wsEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, *wsEndpoint, nil)
		if err != nil {
			logger.Fatalf("Failed to create websocket client: %v", err)
		}
		defer ws.Close()

		watcher := watch.NewWatcher(ws, log.New(os.Stdout, "[watcher] ", log.LstdFlags|log.Lshortfile))
		defer watcher.Close()
		if err := watchTopPools(ctx, watcher, st.tracked, *watchLimit); err != nil {
			logger.Printf("Watcher subscriptions incomplete: %v", err)
		}
		dirty = watcher
	}

	sched, err := snapshot.New(snapshot.Options{
		Config: snapshot.Config{
			Interval:   *interval,
			ChunkSize:  *chunkSize,
			ChunkDelay: *chunkDelay,
			BucketMs:   *bucketMs,
			MaxTracked: *maxTracked,
		},
		Tracked:    st.tracked,
		Pools:      st.pools,
		Tokens:     st.tokens,
		Candles:    st.candles,
		Fetcher:    fetch.NewReserveFetcher(mgr, 100, logger),
		Calculator: pricing.NewCalculator(quoteSource),
		Estimator:  volume.NewEstimator(cache, log.New(os.Stdout, "[volume] ", log.LstdFlags|log.Lshortfile)),
		Aggregator: aggregate.NewAggregator(st.pools, st.tokens, log.New(os.Stdout, "[aggregate] ", log.LstdFlags|log.Lshortfile)),
		Archive:    archive,
		Quotes:     refresher,
		Dirty:      dirty,
		Logger:     log.New(os.Stdout, "[scheduler] ", log.LstdFlags|log.Lshortfile),
	})
	if err != nil {
		logger.Fatalf("Failed to create scheduler: %v", err)
	}

	go startHTTPServer(*metricsAddr, logger)

	logger.Printf("Starting snapshot scheduler (interval: %v, chunk: %d)", *interval, *chunkSize)
	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("Scheduler error: %v", err)
	}
	logger.Println("Shutdown complete")
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// createStores creates the storage implementations.
func createStores(ctx context.Context, postgresDSN string, useMemory bool) (*stores, func(), error) {
	if useMemory {
		st := &stores{
			pools:   memory.NewPoolStore(),
			tokens:  memory.NewTokenStore(),
			candles: memory.NewCandleStore(),
			tracked: memory.NewTrackedPoolStore(),
		}
		return st, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	st := &stores{
		pools:   pgstore.NewPoolStore(pool),
		tokens:  pgstore.NewTokenStore(pool),
		candles: pgstore.NewCandleStore(pool),
		tracked: pgstore.NewTrackedPoolStore(pool),
	}
	return st, pool.Close, nil
}

// watchTopPools subscribes the watcher to the highest-priority tracked
// pools so reserve changes mark them dirty between polling cycles.
func watchTopPools(ctx context.Context, w *watch.Watcher, tracked storage.TrackedPoolStore, limit int) error {
	if limit <= 0 {
		return nil
	}
	entries, err := tracked.ListActive(ctx, limit)
	if err != nil {
		return fmt.Errorf("list tracked pools: %w", err)
	}
	for _, e := range entries {
		if err := w.Watch(ctx, e.Address); err != nil {
			return fmt.Errorf("watch %s: %w", e.Address, err)
		}
	}
	return nil
}

// startHTTPServer serves liveness and Prometheus metrics.
func startHTTPServer(addr string, logger *log.Logger) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Printf("HTTP server error: %v", err)
	}
}
