package domain

import "time"

type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	MessageCount int64     `db:"message_count"`
	CreatedAt    time.Time `db:"created_at"`
}
