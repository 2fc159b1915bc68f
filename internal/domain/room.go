package domain

import "time"

// RoomCapacity is fixed: a session pairs exactly one seeker with one listener.
const RoomCapacity = 2

type Room struct {
	ID        string    `db:"id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}
