package delivery

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"tg-notifier/internal/db"
	"tg-notifier/internal/models"
)

// Deliverer runs delivery checks: it selects due, unsent notifications,
// claims each one, and sends it to the owning user. The messenger is
// injected so the periodic worker and the bot process share one
// implementation of the algorithm.
type Deliverer struct {
	messenger Messenger
	log       *zap.Logger
}

func New(messenger Messenger, log *zap.Logger) *Deliverer {
	return &Deliverer{messenger: messenger, log: log}
}

// normalizeUTC reinterprets a timestamp that arrived without an explicit
// offset as UTC wall-clock time. send_date values predating the timestamptz
// migration were stored naive, and treating them as local time misdelivers.
func normalizeUTC(t time.Time) time.Time {
	if t.Location() == time.Local {
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	return t.UTC()
}

// Due reports whether a notification scheduled for sendDate should be
// delivered at instant now.
func Due(sendDate, now time.Time) bool {
	return !normalizeUTC(sendDate).After(now.UTC())
}

// ComposeMessage renders the outbound text: title, blank line, body.
func ComposeMessage(title, message string) string {
	return fmt.Sprintf("%s\n\n%s", title, message)
}

// DeliverDue performs one finite pass over all unsent notifications at
// instant now. Failures on individual notifications are logged and do not
// stop the batch.
func (d *Deliverer) DeliverDue(now time.Time) error {
	notifications, err := db.GetUnsentNotifications()
	if err != nil {
		return fmt.Errorf("failed to select unsent notifications: %w", err)
	}
	d.log.Info("delivery check started", zap.Int("pending", len(notifications)))

	sent := 0
	for i := range notifications {
		if d.deliverOne(&notifications[i], now) {
			sent++
		}
	}

	d.log.Info("delivery check finished", zap.Int("sent", sent))
	return nil
}

// UserCheckResult summarizes an on-demand check for a single user.
type UserCheckResult struct {
	Sent   int
	Future int
}

// DeliverDueForUser runs the same selection and claim logic scoped to one
// user, for the /check_notifications command.
func (d *Deliverer) DeliverDueForUser(userID int64, now time.Time) (UserCheckResult, error) {
	var res UserCheckResult

	notifications, err := db.GetUnsentNotificationsByClientID(userID)
	if err != nil {
		return res, fmt.Errorf("failed to select notifications for user %d: %w", userID, err)
	}

	for i := range notifications {
		if !Due(notifications[i].SendDate, now) {
			res.Future++
			continue
		}
		if d.deliverOne(&notifications[i], now) {
			res.Sent++
		}
	}
	return res, nil
}

// deliverOne attempts delivery of a single notification. The claim happens
// before the send: a conditional update that only one concurrent invocation
// can win. A failed send releases the claim so the next cycle retries.
func (d *Deliverer) deliverOne(n *models.Notification, now time.Time) bool {
	if !Due(n.SendDate, now) {
		return false
	}

	if n.ClientID == nil {
		d.log.Error("notification has no recipient", zap.Int64("notification_id", n.ID))
		return false
	}

	user, err := db.GetUserByID(*n.ClientID)
	if err != nil {
		d.log.Warn("recipient not found",
			zap.Int64("notification_id", n.ID),
			zap.Int64("client_id", *n.ClientID),
			zap.Error(err))
		return false
	}
	if !user.HasTelegram() {
		d.log.Warn("recipient has no telegram id",
			zap.Int64("notification_id", n.ID),
			zap.Int64("client_id", *n.ClientID))
		return false
	}

	claimed, err := db.ClaimNotification(n.ID)
	if err != nil {
		d.log.Error("failed to claim notification", zap.Int64("notification_id", n.ID), zap.Error(err))
		return false
	}
	if !claimed {
		// Another invocation got there first.
		return false
	}

	if err := d.messenger.Send(*user.TelegramID, ComposeMessage(n.Title, n.Message)); err != nil {
		d.log.Error("delivery failed",
			zap.Int64("notification_id", n.ID),
			zap.Int64("telegram_id", *user.TelegramID),
			zap.Error(err))
		if rerr := db.ReleaseNotification(n.ID); rerr != nil {
			d.log.Error("failed to release claim", zap.Int64("notification_id", n.ID), zap.Error(rerr))
		}
		return false
	}

	d.log.Info("notification delivered",
		zap.Int64("notification_id", n.ID),
		zap.String("username", user.Username))
	return true
}
