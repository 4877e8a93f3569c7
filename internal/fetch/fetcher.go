// Package fetch batches account reads for the snapshot cycle.
package fetch

import (
	"context"
	"log"

	"github.com/mr-tron/base58"

	"solana-pool-indexer/internal/solana"
)

// DefaultChunkSize bounds keys per getMultipleAccounts call.
const DefaultChunkSize = 100

// ReserveFetcher fetches raw account bytes in bounded chunks, tolerating
// partial chunk failure: a chunk that fails after retries maps its keys to
// nil and the rest of the batch proceeds.
type ReserveFetcher struct {
	reader    solana.AccountReader
	chunkSize int
	logger    *log.Logger
}

// NewReserveFetcher creates a fetcher over the given reader. chunkSize <= 0
// selects DefaultChunkSize.
func NewReserveFetcher(reader solana.AccountReader, chunkSize int, logger *log.Logger) *ReserveFetcher {
	if chunkSize <= 0 || chunkSize > solana.MaxAccountsPerCall {
		chunkSize = DefaultChunkSize
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ReserveFetcher{reader: reader, chunkSize: chunkSize, logger: logger}
}

// FetchMany returns raw bytes per key. Keys resolve to nil when the
// account does not exist, the key is malformed, or its chunk failed; the
// caller treats such pools as skipped-this-cycle.
func (f *ReserveFetcher) FetchMany(ctx context.Context, keys []string) map[string][]byte {
	out := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return out
	}

	// Dedupe preserving order; malformed keys never reach the wire.
	valid := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, seen := out[k]; seen {
			continue
		}
		out[k] = nil
		if isValidPubkey(k) {
			valid = append(valid, k)
		}
	}

	for start := 0; start < len(valid); start += f.chunkSize {
		end := start + f.chunkSize
		if end > len(valid) {
			end = len(valid)
		}
		chunk := valid[start:end]

		data, err := f.reader.GetMultipleAccounts(ctx, chunk)
		if err != nil {
			f.logger.Printf("[fetch] chunk of %d keys failed, skipping: %v", len(chunk), err)
			continue
		}
		for i, k := range chunk {
			if i < len(data) {
				out[k] = data[i]
			}
		}
	}

	return out
}

func isValidPubkey(key string) bool {
	decoded, err := base58.Decode(key)
	return err == nil && len(decoded) == 32
}
