package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TypeDeliverDue     = "notifications:deliver"
	TypeDeliverForUser = "notifications:deliver_user"
)

// NewDeliverDueTask builds the periodic delivery-check task. It carries no
// payload; the worker selects due notifications itself.
func NewDeliverDueTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeDeliverDue, nil), nil
}

type DeliverForUserPayload struct {
	UserID int64
}

// NewDeliverForUserTask builds a delivery check scoped to a single user,
// enqueued when the admin creates a notification that is already due.
func NewDeliverForUserTask(userID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(DeliverForUserPayload{UserID: userID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDeliverForUser, payload), nil
}
