package models

import "time"

// User represents a registered notification recipient.
type User struct {
	ID         int64     `db:"id"`
	TelegramID *int64    `db:"telegram_id"`
	Username   string    `db:"username"`
	Email      *string   `db:"email"`
	Password   *string   `db:"password"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// HasTelegram reports whether the user can be reached on Telegram.
func (u *User) HasTelegram() bool {
	return u != nil && u.TelegramID != nil && *u.TelegramID != 0
}
