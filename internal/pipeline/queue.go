package pipeline

import (
	"sync"

	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/domain"
)

// Queue is the unbounded FIFO buffer between accepted messages and the
// periodic batch persist. Many connection goroutines enqueue; a single
// batcher cycle drains. Back-pressure is deliberately absent: the buffer
// grows while storage is down.
type Queue struct {
	mu    sync.Mutex
	items []domain.QueuedMessage
}

func NewQueue() *Queue {
	return &Queue{}
}

func (q *Queue) Enqueue(m domain.QueuedMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, m)
}

func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// take removes up to n messages from the head, preserving order.
func (q *Queue) take(n int) []domain.QueuedMessage {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n > len(q.items) {
		n = len(q.items)
	}
	if n == 0 {
		return nil
	}

	batch := make([]domain.QueuedMessage, n)
	copy(batch, q.items[:n])
	rest := make([]domain.QueuedMessage, len(q.items)-n)
	copy(rest, q.items[n:])
	q.items = rest
	return batch
}

// requeue appends a failed batch to the tail for a later cycle.
func (q *Queue) requeue(batch []domain.QueuedMessage) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, batch...)
}
