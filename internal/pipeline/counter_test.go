package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeCounterStore struct {
	mu      sync.Mutex
	failFor map[string]bool
	applied map[string]int64
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{failFor: map[string]bool{}, applied: map[string]int64{}}
}

func (s *fakeCounterStore) IncrementMessageCount(_ context.Context, username string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[username] {
		return errors.New("storage down")
	}
	s.applied[username] += delta
	return nil
}

func TestCounter_FlushAppliesAndResets(t *testing.T) {
	req := require.New(t)
	store := newFakeCounterStore()
	c := NewCounter(store, slog.Default())

	c.Increment("alice")
	c.Increment("alice")
	c.Increment("bob")

	c.FlushOnce(context.Background())

	req.EqualValues(2, store.applied["alice"])
	req.EqualValues(1, store.applied["bob"])
	req.Zero(c.Pending("alice"))
	req.Zero(c.Pending("bob"))
}

func TestCounter_MergeBackOnFailure(t *testing.T) {
	req := require.New(t)
	store := newFakeCounterStore()
	store.failFor["alice"] = true
	c := NewCounter(store, slog.Default())

	// pending delta D=3 fails to flush
	c.Increment("alice")
	c.Increment("alice")
	c.Increment("alice")
	c.FlushOnce(context.Background())
	req.EqualValues(3, c.Pending("alice"))

	// M=2 more arrive before the next cycle: next attempt carries D+M
	c.Increment("alice")
	c.Increment("alice")

	store.failFor["alice"] = false
	c.FlushOnce(context.Background())
	req.EqualValues(5, store.applied["alice"])
	req.Zero(c.Pending("alice"))
}

func TestCounter_FailureIsolationPerSender(t *testing.T) {
	req := require.New(t)
	store := newFakeCounterStore()
	store.failFor["alice"] = true
	c := NewCounter(store, slog.Default())

	c.Increment("alice")
	c.Increment("bob")
	c.FlushOnce(context.Background())

	req.EqualValues(0, store.applied["alice"])
	req.EqualValues(1, store.applied["bob"])
	req.EqualValues(1, c.Pending("alice"))
}

func TestCounter_ConcurrentIncrements(t *testing.T) {
	store := newFakeCounterStore()
	c := NewCounter(store, slog.Default())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Increment("alice")
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1000, c.Pending("alice"))
}
