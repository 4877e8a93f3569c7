package solana

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Retry configuration defaults.
const (
	DefaultMaxRetries = 4
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultMaxDelay   = 8 * time.Second
)

// ConnectionManager executes calls against an ordered endpoint list,
// rotating round-robin on retryable failures with bounded exponential
// backoff. Protocol errors propagate immediately without rotation.
type ConnectionManager struct {
	mu      sync.Mutex
	clients []*HTTPClient
	current int

	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration

	rotations atomic.Uint64
}

// ManagerOption configures ConnectionManager.
type ManagerOption func(*ConnectionManager)

// WithMaxRetries sets the retry budget per call.
func WithMaxRetries(n int) ManagerOption {
	return func(m *ConnectionManager) { m.maxRetries = n }
}

// WithRetryDelay sets the initial backoff delay.
func WithRetryDelay(d time.Duration) ManagerOption {
	return func(m *ConnectionManager) { m.retryDelay = d }
}

// WithMaxDelay caps the backoff delay.
func WithMaxDelay(d time.Duration) ManagerOption {
	return func(m *ConnectionManager) { m.maxDelay = d }
}

// NewConnectionManager creates a manager over one or more endpoint clients.
func NewConnectionManager(clients []*HTTPClient, opts ...ManagerOption) (*ConnectionManager, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("at least one RPC endpoint is required")
	}
	m := &ConnectionManager{
		clients:    clients,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Rotations returns the number of endpoint rotations performed.
func (m *ConnectionManager) Rotations() uint64 {
	return m.rotations.Load()
}

func (m *ConnectionManager) currentClient() *HTTPClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients[m.current]
}

func (m *ConnectionManager) rotate() {
	m.mu.Lock()
	m.current = (m.current + 1) % len(m.clients)
	m.mu.Unlock()
	m.rotations.Add(1)
}

// Call runs op against the current endpoint, rotating and retrying on
// retryable errors within the budget. The last error surfaces on
// exhaustion.
func (m *ConnectionManager) Call(ctx context.Context, op func(ctx context.Context, client *HTTPClient) error) error {
	delay := m.retryDelay
	var lastErr error

	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > m.maxDelay {
				delay = m.maxDelay
			}
		}

		err := op(ctx, m.currentClient())
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}

		lastErr = err
		m.rotate()
	}

	return fmt.Errorf("retries exhausted: %w", lastErr)
}

// GetMultipleAccounts implements AccountReader over the managed endpoints.
func (m *ConnectionManager) GetMultipleAccounts(ctx context.Context, keys []string) ([][]byte, error) {
	var out [][]byte
	err := m.Call(ctx, func(ctx context.Context, client *HTTPClient) error {
		res, err := client.GetMultipleAccounts(ctx, keys)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ AccountReader = (*ConnectionManager)(nil)
