package db

import (
	"tg-notifier/internal/models"
)

// CreateUser inserts a new user row and returns it.
func CreateUser(username string, email, password *string, telegramID *int64) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password, telegram_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, telegram_id, username, email, password, created_at, updated_at
	`
	user := &models.User{}
	err := DB.Get(user, query, username, email, password, telegramID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func GetUserByID(id int64) (*models.User, error) {
	user := &models.User{}
	err := DB.Get(user, "SELECT * FROM users WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByTelegramID returns the user bound to the given Telegram account.
// Returns sql.ErrNoRows when no such user exists.
func GetUserByTelegramID(telegramID int64) (*models.User, error) {
	user := &models.User{}
	err := DB.Get(user, "SELECT * FROM users WHERE telegram_id = $1", telegramID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func GetUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	err := DB.Get(user, "SELECT * FROM users WHERE email = $1", email)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func GetAllUsers() ([]models.User, error) {
	query := `
		SELECT id, telegram_id, username, email, password, created_at, updated_at
		FROM users
		ORDER BY id
	`
	var users []models.User
	err := DB.Select(&users, query)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUsername changes the display name of the user bound to telegramID.
func UpdateUsername(telegramID int64, username string) error {
	query := `
		UPDATE users
		SET username = $1, updated_at = NOW()
		WHERE telegram_id = $2
	`
	_, err := DB.Exec(query, username, telegramID)
	return err
}
