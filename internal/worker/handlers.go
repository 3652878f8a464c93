package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"tg-notifier/internal/delivery"
	"tg-notifier/pkg/tasks"
)

// TaskHandler executes delivery tasks dequeued from asynq.
type TaskHandler struct {
	deliverer *delivery.Deliverer
	log       *zap.Logger
}

func NewTaskHandler(deliverer *delivery.Deliverer, log *zap.Logger) *TaskHandler {
	return &TaskHandler{deliverer: deliverer, log: log}
}

// HandleDeliverDueTask runs the minute-cadence delivery check.
func (h *TaskHandler) HandleDeliverDueTask(ctx context.Context, t *asynq.Task) error {
	if err := h.deliverer.DeliverDue(time.Now().UTC()); err != nil {
		return fmt.Errorf("delivery check failed: %w", err)
	}
	return nil
}

// HandleDeliverForUserTask runs a delivery check scoped to a single user.
// Enqueued when the admin creates a notification whose send_date has
// already passed.
func (h *TaskHandler) HandleDeliverForUserTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.DeliverForUserPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	res, err := h.deliverer.DeliverDueForUser(p.UserID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delivery check for user %d failed: %w", p.UserID, err)
	}
	h.log.Info("user delivery check finished",
		zap.Int64("user_id", p.UserID),
		zap.Int("sent", res.Sent),
		zap.Int("future", res.Future))
	return nil
}
