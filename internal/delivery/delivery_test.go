package delivery

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"tg-notifier/internal/test"
)

type sentMessage struct {
	chatID int64
	text   string
}

// mockMessenger records sends and can be told to fail.
type mockMessenger struct {
	sent []sentMessage
	err  error
}

func (m *mockMessenger) Send(chatID int64, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

var notificationCols = []string{"id", "title", "message", "send_date", "is_sent", "client_id", "created_at"}
var userCols = []string{"id", "telegram_id", "username", "email", "password", "created_at", "updated_at"}

func expectUnsentQuery(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(`SELECT id, title, message, send_date, is_sent, client_id, created_at\s+FROM notifications\s+WHERE is_sent = FALSE`).
		WillReturnRows(rows)
}

func expectUserQuery(mock sqlmock.Sqlmock, id int64, telegramID int64) {
	rows := sqlmock.NewRows(userCols).
		AddRow(id, telegramID, "testuser", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).WithArgs(id).WillReturnRows(rows)
}

func TestDeliverDueSendsDueNotification(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(notificationCols).
		AddRow(1, "Reminder", "Pay your bills", now.Add(-time.Minute), false, int64(7), now)
	expectUnsentQuery(mock, rows)
	expectUserQuery(mock, 7, 4242)
	mock.ExpectExec(`UPDATE notifications SET is_sent = TRUE WHERE id = \$1 AND is_sent = FALSE`).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	messenger := &mockMessenger{}
	d := New(messenger, zap.NewNop())

	err := d.DeliverDue(now)

	assert.NoError(t, err)
	assert.Len(t, messenger.sent, 1)
	assert.Equal(t, int64(4242), messenger.sent[0].chatID)
	assert.Equal(t, "Reminder\n\nPay your bills", messenger.sent[0].text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliverDueLeavesFutureNotificationUnsent(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(notificationCols).
		AddRow(1, "Later", "Not yet", now.Add(time.Hour), false, int64(7), now)
	expectUnsentQuery(mock, rows)
	// No user lookup, no claim, no send.

	messenger := &mockMessenger{}
	d := New(messenger, zap.NewNop())

	err := d.DeliverDue(now)

	assert.NoError(t, err)
	assert.Empty(t, messenger.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliverDueReleasesClaimOnSendFailure(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(notificationCols).
		AddRow(1, "Reminder", "Pay your bills", now.Add(-time.Minute), false, int64(7), now)
	expectUnsentQuery(mock, rows)
	expectUserQuery(mock, 7, 4242)
	mock.ExpectExec(`UPDATE notifications SET is_sent = TRUE WHERE id = \$1 AND is_sent = FALSE`).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE notifications SET is_sent = FALSE WHERE id = \$1`).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	messenger := &mockMessenger{err: errors.New("telegram unavailable")}
	d := New(messenger, zap.NewNop())

	err := d.DeliverDue(now)

	assert.NoError(t, err)
	assert.Empty(t, messenger.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliverDueSkipsBadRecipientsAndContinues(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(notificationCols).
		AddRow(1, "Orphan", "no client", now.Add(-time.Minute), false, nil, now).
		AddRow(2, "Dangling", "client gone", now.Add(-time.Minute), false, int64(8), now).
		AddRow(3, "OK", "delivered", now.Add(-time.Minute), false, int64(7), now)
	expectUnsentQuery(mock, rows)

	// Notification 1 is skipped without any further queries.
	// Notification 2: recipient lookup fails.
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).WithArgs(int64(8)).WillReturnError(sql.ErrNoRows)
	// Notification 3 goes through.
	expectUserQuery(mock, 7, 4242)
	mock.ExpectExec(`UPDATE notifications SET is_sent = TRUE WHERE id = \$1 AND is_sent = FALSE`).
		WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))

	messenger := &mockMessenger{}
	d := New(messenger, zap.NewNop())

	err := d.DeliverDue(now)

	assert.NoError(t, err)
	assert.Len(t, messenger.sent, 1)
	assert.Equal(t, "OK\n\ndelivered", messenger.sent[0].text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliverDueSkipsNotificationClaimedElsewhere(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(notificationCols).
		AddRow(1, "Raced", "claimed by the other run", now.Add(-time.Minute), false, int64(7), now)
	expectUnsentQuery(mock, rows)
	expectUserQuery(mock, 7, 4242)
	// Zero rows affected: the concurrent invocation won the claim.
	mock.ExpectExec(`UPDATE notifications SET is_sent = TRUE WHERE id = \$1 AND is_sent = FALSE`).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))

	messenger := &mockMessenger{}
	d := New(messenger, zap.NewNop())

	err := d.DeliverDue(now)

	assert.NoError(t, err)
	assert.Empty(t, messenger.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliverDueSecondRunIsNoOp(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// Everything was marked sent by the first run, so the unsent selection
	// comes back empty.
	expectUnsentQuery(mock, sqlmock.NewRows(notificationCols))

	messenger := &mockMessenger{}
	d := New(messenger, zap.NewNop())

	err := d.DeliverDue(now)

	assert.NoError(t, err)
	assert.Empty(t, messenger.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliverDueForUser(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(notificationCols).
		AddRow(1, "Due", "now", now.Add(-time.Minute), false, int64(7), now).
		AddRow(2, "Future", "later", now.Add(time.Hour), false, int64(7), now)
	mock.ExpectQuery(`SELECT id, title, message, send_date, is_sent, client_id, created_at\s+FROM notifications\s+WHERE is_sent = FALSE AND client_id = \$1`).
		WithArgs(int64(7)).WillReturnRows(rows)
	expectUserQuery(mock, 7, 4242)
	mock.ExpectExec(`UPDATE notifications SET is_sent = TRUE WHERE id = \$1 AND is_sent = FALSE`).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	messenger := &mockMessenger{}
	d := New(messenger, zap.NewNop())

	res, err := d.DeliverDueForUser(7, now)

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Future)
	assert.Len(t, messenger.sent, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDueTreatsNaiveTimestampAsUTC(t *testing.T) {
	// A send_date stored without an offset must be read as UTC, not local
	// time, no matter what zone the process runs in.
	naive := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
	now := time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC)

	assert.True(t, Due(naive, now))
	assert.False(t, Due(time.Date(2024, 1, 1, 0, 0, 2, 0, time.Local), now))
}

func TestDueConvertsExplicitOffsets(t *testing.T) {
	// 15:00+03:00 is 12:00 UTC.
	zone := time.FixedZone("MSK", 3*60*60)
	sendDate := time.Date(2024, 1, 1, 15, 0, 0, 0, zone)

	assert.True(t, Due(sendDate, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)))
	assert.False(t, Due(sendDate, time.Date(2024, 1, 1, 11, 59, 59, 0, time.UTC)))
}

func TestComposeMessage(t *testing.T) {
	assert.Equal(t, "Title\n\nBody", ComposeMessage("Title", "Body"))
}
