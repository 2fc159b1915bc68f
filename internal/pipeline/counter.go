package pipeline

import (
	"context"
	"log/slog"
	"sync"
)

// CounterStore applies one sender's accumulated delta.
type CounterStore interface {
	IncrementMessageCount(ctx context.Context, username string, delta int64) error
}

// Counter tallies accepted messages per sender in memory and flushes the
// tallies periodically. Failure isolation is per sender: a failed increment
// is merged back into whatever accumulated since the snapshot, other
// senders are unaffected.
type Counter struct {
	mu      sync.Mutex
	pending map[string]int64

	store CounterStore
	log   *slog.Logger
}

func NewCounter(store CounterStore, log *slog.Logger) *Counter {
	return &Counter{pending: make(map[string]int64), store: store, log: log}
}

func (c *Counter) Increment(username string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[username]++
}

// Pending returns the currently accumulated delta for a sender.
func (c *Counter) Pending(username string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[username]
}

func (c *Counter) FlushOnce(ctx context.Context) {
	c.mu.Lock()
	snapshot := c.pending
	c.pending = make(map[string]int64)
	c.mu.Unlock()

	for username, delta := range snapshot {
		if delta <= 0 {
			continue
		}
		if err := c.store.IncrementMessageCount(ctx, username, delta); err != nil {
			c.log.Error("counter flush failed, merging back",
				"user", username, "delta", delta, "err", err)
			c.mu.Lock()
			c.pending[username] += delta
			c.mu.Unlock()
		}
	}
}
