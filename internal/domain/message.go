package domain

import (
	"time"

	"github.com/google/uuid"
)

// QueuedMessage is an accepted chat message waiting for its batch flush.
// Immutable once constructed; the ingestion queue owns it until storage
// takes the batch.
type QueuedMessage struct {
	ID     uuid.UUID
	RoomID string
	Sender string
	// Sender's backing record, resolved once per room lifetime.
	// May be nil when the lookup failed; persistence falls back to the name.
	SenderRecord *User
	Text         string
	SentAt       time.Time
}

func NewQueuedMessage(roomID, sender string, rec *User, text string) QueuedMessage {
	return QueuedMessage{
		ID:           uuid.New(),
		RoomID:       roomID,
		Sender:       sender,
		SenderRecord: rec,
		Text:         text,
		SentAt:       time.Now().UTC(),
	}
}
