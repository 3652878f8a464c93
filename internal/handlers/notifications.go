package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"tg-notifier/internal/db"
	"tg-notifier/internal/delivery"
	"tg-notifier/internal/models"
	"tg-notifier/pkg/tasks"
)

func (h *Handlers) GetNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := db.GetAllNotifications()
	if err != nil {
		h.log.Error("failed to list notifications", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.templates.ExecuteTemplate(w, "notifications.html", notifications); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// PostNotifications creates a notification from the admin form and
// re-renders the list.
func (h *Handlers) PostNotifications(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	message := r.FormValue("message")
	if title == "" || message == "" {
		http.Error(w, "Title and message are required", http.StatusBadRequest)
		return
	}

	sendDate, err := parseSendDate(r.FormValue("send_date"))
	if err != nil {
		http.Error(w, "Invalid send date", http.StatusBadRequest)
		return
	}

	var clientID *int64
	if raw := r.FormValue("client_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid client ID", http.StatusBadRequest)
			return
		}
		clientID = &id
	}

	notif, err := db.CreateNotification(title, message, sendDate, clientID)
	if err != nil {
		h.log.Error("failed to create notification", zap.Error(err))
		http.Error(w, "Failed to create notification", http.StatusInternalServerError)
		return
	}

	h.enqueueIfDue(notif)
	h.GetNotifications(w, r)
}

// enqueueIfDue kicks an immediate delivery check for notifications created
// with a send_date that has already passed, so they don't wait for the next
// minute tick.
func (h *Handlers) enqueueIfDue(notif *models.Notification) {
	if !delivery.Due(notif.SendDate, time.Now().UTC()) {
		return
	}

	var task *asynq.Task
	var err error
	if notif.ClientID != nil {
		task, err = tasks.NewDeliverForUserTask(*notif.ClientID)
	} else {
		task, err = tasks.NewDeliverDueTask()
	}
	if err != nil {
		h.log.Error("failed to create delivery task", zap.Int64("notification_id", notif.ID), zap.Error(err))
		return
	}

	if _, err := h.asynqClient.Enqueue(task); err != nil {
		h.log.Error("failed to enqueue delivery task", zap.Int64("notification_id", notif.ID), zap.Error(err))
	}
}
