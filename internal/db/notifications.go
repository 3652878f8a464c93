package db

import (
	"time"

	"tg-notifier/internal/models"
)

// CreateNotification inserts a notification scheduled for sendDate.
func CreateNotification(title, message string, sendDate time.Time, clientID *int64) (*models.Notification, error) {
	query := `
		INSERT INTO notifications (title, message, send_date, client_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, title, message, send_date, is_sent, client_id, created_at
	`
	notif := &models.Notification{}
	err := DB.Get(notif, query, title, message, sendDate, clientID)
	if err != nil {
		return nil, err
	}
	return notif, nil
}

func GetAllNotifications() ([]models.Notification, error) {
	query := `
		SELECT id, title, message, send_date, is_sent, client_id, created_at
		FROM notifications
		ORDER BY send_date DESC
	`
	var notifications []models.Notification
	err := DB.Select(&notifications, query)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// GetUnsentNotifications returns every notification that has not been
// delivered yet, regardless of send_date. Due filtering happens in the
// delivery layer, which normalizes timestamps first.
func GetUnsentNotifications() ([]models.Notification, error) {
	query := `
		SELECT id, title, message, send_date, is_sent, client_id, created_at
		FROM notifications
		WHERE is_sent = FALSE
		ORDER BY id
	`
	var notifications []models.Notification
	err := DB.Select(&notifications, query)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// GetUnsentNotificationsByClientID returns the undelivered notifications
// owned by one user.
func GetUnsentNotificationsByClientID(clientID int64) ([]models.Notification, error) {
	query := `
		SELECT id, title, message, send_date, is_sent, client_id, created_at
		FROM notifications
		WHERE is_sent = FALSE AND client_id = $1
		ORDER BY id
	`
	var notifications []models.Notification
	err := DB.Select(&notifications, query, clientID)
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// ClaimNotification atomically marks a notification as sent, but only if it
// was still unsent. It returns false when another invocation claimed the row
// first, which is how concurrent delivery runs avoid double sends.
func ClaimNotification(id int64) (bool, error) {
	res, err := DB.Exec("UPDATE notifications SET is_sent = TRUE WHERE id = $1 AND is_sent = FALSE", id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// ReleaseNotification undoes a claim after a failed delivery attempt so the
// notification is picked up again on the next cycle.
func ReleaseNotification(id int64) error {
	_, err := DB.Exec("UPDATE notifications SET is_sent = FALSE WHERE id = $1", id)
	return err
}
