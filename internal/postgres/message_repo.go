package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/domain"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

// SaveBatch writes one drained batch via COPY. A single COPY is
// all-or-nothing, which is exactly what the requeue-on-failure contract
// needs: a failed batch leaves no partial rows behind.
func (r *MessageRepository) SaveBatch(ctx context.Context, batch []domain.QueuedMessage) error {
	if len(batch) == 0 {
		return nil
	}

	rows := pgx.CopyFromSlice(len(batch), func(i int) ([]any, error) {
		m := batch[i]
		var senderID *int64
		if m.SenderRecord != nil {
			senderID = &m.SenderRecord.ID
		}
		return []any{m.ID, m.RoomID, senderID, m.Sender, m.Text, m.SentAt}, nil
	})

	n, err := r.db.CopyFrom(ctx,
		pgx.Identifier{"chat_messages"},
		[]string{"id", "room_id", "sender_id", "sender_name", "text", "sent_at"},
		rows)
	if err != nil {
		return fmt.Errorf("copy chat_messages: %w", err)
	}
	if n != int64(len(batch)) {
		return fmt.Errorf("copy chat_messages: wrote %d of %d rows", n, len(batch))
	}
	return nil
}
