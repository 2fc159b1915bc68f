package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/domain"
)

type fakeBatchStore struct {
	mu      sync.Mutex
	failing bool
	saved   [][]domain.QueuedMessage
}

func (s *fakeBatchStore) SaveBatch(_ context.Context, batch []domain.QueuedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("storage down")
	}
	cp := make([]domain.QueuedMessage, len(batch))
	copy(cp, batch)
	s.saved = append(s.saved, cp)
	return nil
}

func enqueueN(q *Queue, n int) []domain.QueuedMessage {
	msgs := make([]domain.QueuedMessage, 0, n)
	for i := 0; i < n; i++ {
		m := domain.NewQueuedMessage("7", "alice", nil, fmt.Sprintf("msg-%d", i))
		q.Enqueue(m)
		msgs = append(msgs, m)
	}
	return msgs
}

func TestBatchSizeBounds(t *testing.T) {
	tests := []struct {
		depth int
		want  int
	}{
		{depth: 0, want: 10},
		{depth: 5, want: 10},
		{depth: 99, want: 10},
		{depth: 100, want: 10},
		{depth: 101, want: 10},
		{depth: 250, want: 25},
		{depth: 1000, want: 100},
		{depth: 50000, want: 100},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, batchSizeFor(tt.depth), "depth=%d", tt.depth)
	}
}

func TestQueue_FIFO(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	msgs := enqueueN(q, 5)

	batch := q.take(3)
	req.Equal(msgs[:3], batch)
	req.Equal(2, q.Depth())

	batch = q.take(10)
	req.Equal(msgs[3:], batch)
	req.Zero(q.Depth())
	req.Nil(q.take(10))
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q.Enqueue(domain.NewQueuedMessage("7", "alice", nil, "x"))
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1000, q.Depth())
}

func TestBatcher_RequeueOnFailure(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	store := &fakeBatchStore{failing: true}
	b := NewBatcher(q, store, 0, slog.Default())

	msgs := enqueueN(q, 8)

	// failed cycle: all 8 back in the queue exactly once
	b.DrainOnce(context.Background())
	req.Equal(8, q.Depth())
	req.Empty(store.saved)

	// storage recovers: next cycle persists them in original order
	store.failing = false
	b.DrainOnce(context.Background())
	req.Zero(q.Depth())
	req.Len(store.saved, 1)
	req.Equal(msgs, store.saved[0])
}

func TestBatcher_RetriedBatchPersistsAfterNewerMessages(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	store := &fakeBatchStore{failing: true}
	b := NewBatcher(q, store, 0, slog.Default())

	old := enqueueN(q, 3)
	b.DrainOnce(context.Background()) // takes all 3 (floor is 10), requeues to tail

	fresh := domain.NewQueuedMessage("7", "bob", nil, "newer")
	q.Enqueue(fresh)

	store.failing = false
	b.DrainOnce(context.Background())

	req.Len(store.saved, 1)
	texts := lo.Map(store.saved[0], func(m domain.QueuedMessage, _ int) string { return m.Text })
	// requeued-to-tail: the retried trio follows nothing here, but among
	// themselves the original order holds
	req.Equal([]string{old[0].Text, old[1].Text, old[2].Text, "newer"}, texts)
}

func TestBatcher_DrainsUpToBatchSize(t *testing.T) {
	req := require.New(t)
	q := NewQueue()
	store := &fakeBatchStore{}
	b := NewBatcher(q, store, 0, slog.Default())

	enqueueN(q, 25) // size = max(10, 25/10) = 10
	b.DrainOnce(context.Background())

	req.Len(store.saved, 1)
	req.Len(store.saved[0], 10)
	req.Equal(15, q.Depth())
}

func TestBatcher_EmptyQueueIsNoop(t *testing.T) {
	q := NewQueue()
	store := &fakeBatchStore{}
	NewBatcher(q, store, 0, slog.Default()).DrainOnce(context.Background())
	require.Empty(t, store.saved)
}
