package models

import "time"

// Message is a private chat message between two users.
type Message struct {
	ID         int64     `db:"id"`
	Content    string    `db:"content"`
	CreatedAt  time.Time `db:"created_at"`
	Delivered  bool      `db:"delivered"`
	Read       bool      `db:"read"`
	SenderID   int64     `db:"sender_id"`
	ReceiverID int64     `db:"receiver_id"`

	// Resolved usernames, filled by joins.
	SenderUsername   string
	ReceiverUsername string
}
