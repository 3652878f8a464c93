package models

import "time"

// Notification is a timed message addressed to a single user.
type Notification struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Message   string    `db:"message"`
	SendDate  time.Time `db:"send_date"`
	IsSent    bool      `db:"is_sent"`
	ClientID  *int64    `db:"client_id"`
	CreatedAt time.Time `db:"created_at"`
}
