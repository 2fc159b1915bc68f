package pipeline

import (
	"context"
	"log/slog"

	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/domain"
)

const (
	batchFloor   = 10
	batchCeiling = 100
)

// BatchStore persists one drained batch as a unit.
type BatchStore interface {
	SaveBatch(ctx context.Context, batch []domain.QueuedMessage) error
}

// Batcher drains the ingestion queue on a fixed interval. A failed batch is
// re-appended to the tail verbatim and retried on a later cycle; there is no
// retry cap and no dead-letter, so a persistently broken store only shows up
// as queue growth (watched via warnDepth).
type Batcher struct {
	queue     *Queue
	store     BatchStore
	warnDepth int
	log       *slog.Logger
}

func NewBatcher(queue *Queue, store BatchStore, warnDepth int, log *slog.Logger) *Batcher {
	return &Batcher{queue: queue, store: store, warnDepth: warnDepth, log: log}
}

// batchSizeFor adapts the cut to the backlog: depth/10 clamped to
// [batchFloor, batchCeiling].
func batchSizeFor(depth int) int {
	size := depth / 10
	if size < batchFloor {
		return batchFloor
	}
	if size > batchCeiling {
		return batchCeiling
	}
	return size
}

func (b *Batcher) DrainOnce(ctx context.Context) {
	depth := b.queue.Depth()
	if depth == 0 {
		return
	}
	if b.warnDepth > 0 && depth > b.warnDepth {
		b.log.Warn("ingestion queue backlog", "depth", depth)
	}

	batch := b.queue.take(batchSizeFor(depth))
	if len(batch) == 0 {
		return
	}

	if err := b.store.SaveBatch(ctx, batch); err != nil {
		b.log.Error("message batch persist failed, requeueing",
			"size", len(batch), "err", err)
		b.queue.requeue(batch)
		return
	}
	b.log.Debug("message batch persisted", "size", len(batch))
}
