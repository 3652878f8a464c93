package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"tg-notifier/internal/delivery"
	"tg-notifier/internal/test"
	"tg-notifier/pkg/tasks"
)

type sentMessage struct {
	chatID int64
	text   string
}

type mockMessenger struct {
	sent []sentMessage
}

func (m *mockMessenger) Send(chatID int64, text string) error {
	m.sent = append(m.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

var notificationCols = []string{"id", "title", "message", "send_date", "is_sent", "client_id", "created_at"}

func TestHandleDeliverDueTask(t *testing.T) {
	_, mock := test.NewMockDB(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows(notificationCols).
		AddRow(1, "Reminder", "Pay your bills", now.Add(-time.Minute), false, int64(7), now)
	mock.ExpectQuery(`SELECT id, title, message, send_date, is_sent, client_id, created_at\s+FROM notifications\s+WHERE is_sent = FALSE`).
		WillReturnRows(rows)
	userRows := sqlmock.NewRows([]string{"id", "telegram_id", "username", "email", "password", "created_at", "updated_at"}).
		AddRow(7, int64(4242), "testuser", nil, nil, now, now)
	mock.ExpectQuery(`SELECT \* FROM users WHERE id = \$1`).WithArgs(int64(7)).WillReturnRows(userRows)
	mock.ExpectExec(`UPDATE notifications SET is_sent = TRUE`).
		WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	messenger := &mockMessenger{}
	handler := NewTaskHandler(delivery.New(messenger, zap.NewNop()), zap.NewNop())

	task, err := tasks.NewDeliverDueTask()
	assert.NoError(t, err)

	err = handler.HandleDeliverDueTask(context.Background(), task)

	assert.NoError(t, err)
	assert.Len(t, messenger.sent, 1)
	assert.Equal(t, int64(4242), messenger.sent[0].chatID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleDeliverForUserTask(t *testing.T) {
	_, mock := test.NewMockDB(t)

	mock.ExpectQuery(`SELECT id, title, message, send_date, is_sent, client_id, created_at\s+FROM notifications\s+WHERE is_sent = FALSE AND client_id = \$1`).
		WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows(notificationCols))

	messenger := &mockMessenger{}
	handler := NewTaskHandler(delivery.New(messenger, zap.NewNop()), zap.NewNop())

	task, err := tasks.NewDeliverForUserTask(7)
	assert.NoError(t, err)

	err = handler.HandleDeliverForUserTask(context.Background(), task)

	assert.NoError(t, err)
	assert.Empty(t, messenger.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleDeliverForUserTaskBadPayload(t *testing.T) {
	handler := NewTaskHandler(delivery.New(&mockMessenger{}, zap.NewNop()), zap.NewNop())

	task := asynq.NewTask(tasks.TypeDeliverForUser, []byte("not json"))
	err := handler.HandleDeliverForUserTask(context.Background(), task)

	assert.Error(t, err)
}

func TestDeliverForUserPayloadRoundTrip(t *testing.T) {
	task, err := tasks.NewDeliverForUserTask(42)
	assert.NoError(t, err)
	assert.Equal(t, tasks.TypeDeliverForUser, task.Type())

	var p tasks.DeliverForUserPayload
	assert.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, int64(42), p.UserID)
}
