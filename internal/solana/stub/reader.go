// Package stub provides fake chain-access implementations for tests.
package stub

import (
	"context"
	"sync"

	"solana-pool-indexer/internal/solana"
)

// AccountReader serves canned account data keyed by pubkey and records the
// batches it was asked for.
type AccountReader struct {
	mu       sync.Mutex
	accounts map[string][]byte
	calls    [][]string

	// Err, when set, fails every call.
	Err error

	// FailOnCall fails only the call with this 1-based index (0 disables).
	FailOnCall int
	failErr    error
}

// NewAccountReader creates a stub with the given account data.
func NewAccountReader(accounts map[string][]byte) *AccountReader {
	if accounts == nil {
		accounts = make(map[string][]byte)
	}
	return &AccountReader{accounts: accounts}
}

// SetAccount sets or replaces one account's data.
func (r *AccountReader) SetAccount(pubkey string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[pubkey] = data
}

// FailCall makes the nth call (1-based) return err.
func (r *AccountReader) FailCall(n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FailOnCall = n
	r.failErr = err
}

// Calls returns the key batches requested so far.
func (r *AccountReader) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// GetMultipleAccounts implements solana.AccountReader.
func (r *AccountReader) GetMultipleAccounts(_ context.Context, keys []string) ([][]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := make([]string, len(keys))
	copy(batch, keys)
	r.calls = append(r.calls, batch)

	if r.Err != nil {
		return nil, r.Err
	}
	if r.FailOnCall > 0 && len(r.calls) == r.FailOnCall {
		return nil, r.failErr
	}

	out := make([][]byte, len(keys))
	for i, k := range keys {
		if data, ok := r.accounts[k]; ok {
			out[i] = data
		}
	}
	return out, nil
}

var _ solana.AccountReader = (*AccountReader)(nil)
