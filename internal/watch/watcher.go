// Package watch flags pools whose accounts changed between cycles so the
// scheduler can snapshot them first.
package watch

import (
	"context"
	"fmt"
	"log"
	"sync"

	"solana-pool-indexer/internal/observability"
	"solana-pool-indexer/internal/solana"
)

// Watcher subscribes to account changes for a set of pools and accumulates
// a dirty set. Draining the set hands the addresses to the next snapshot
// cycle; pools not watched are still covered by the regular polling order.
type Watcher struct {
	sub    solana.AccountSubscriber
	logger *log.Logger

	mu      sync.Mutex
	dirty   map[string]struct{}
	watched map[string]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates a watcher over the given subscriber.
func NewWatcher(sub solana.AccountSubscriber, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		sub:     sub,
		logger:  logger,
		dirty:   make(map[string]struct{}),
		watched: make(map[string]struct{}),
		done:    make(chan struct{}),
	}
}

// Watch subscribes to one pool address. Watching the same address twice is
// a no-op.
func (w *Watcher) Watch(ctx context.Context, address string) error {
	w.mu.Lock()
	if _, ok := w.watched[address]; ok {
		w.mu.Unlock()
		return nil
	}
	w.watched[address] = struct{}{}
	w.mu.Unlock()

	ch, err := w.sub.SubscribeAccount(ctx, address)
	if err != nil {
		w.mu.Lock()
		delete(w.watched, address)
		w.mu.Unlock()
		return fmt.Errorf("watch %s: %w", address, err)
	}

	w.wg.Add(1)
	go w.consume(address, ch)
	return nil
}

func (w *Watcher) consume(address string, ch <-chan solana.AccountNotification) {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			w.mu.Lock()
			w.dirty[address] = struct{}{}
			n := len(w.dirty)
			w.mu.Unlock()
			observability.DefaultMetrics.WatcherDirtyPools.Set(float64(n))
		}
	}
}

// Drain returns the accumulated dirty addresses and clears the set.
func (w *Watcher) Drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.dirty))
	for addr := range w.dirty {
		out = append(out, addr)
	}
	w.dirty = make(map[string]struct{})
	observability.DefaultMetrics.WatcherDirtyPools.Set(0)
	return out
}

// Close stops the consumer goroutines. The underlying subscriber is owned
// by the caller.
func (w *Watcher) Close() {
	close(w.done)
	w.wg.Wait()
}
