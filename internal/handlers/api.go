package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tg-notifier/internal/db"
	"tg-notifier/internal/models"
)

type apiError struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type userResponse struct {
	ID         int64     `json:"id"`
	TelegramID *int64    `json:"telegram_id"`
	Username   string    `json:"username"`
	Email      *string   `json:"email"`
	CreatedAt  time.Time `json:"created_at"`
}

// Password hashes never leave the service.
func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:         u.ID,
		TelegramID: u.TelegramID,
		Username:   u.Username,
		Email:      u.Email,
		CreatedAt:  u.CreatedAt,
	}
}

type createUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) APICreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Detail: "Invalid request body"})
		return
	}
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Detail: "Username is required"})
		return
	}

	user, err := h.createUser(req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, errEmailTaken) {
			writeJSON(w, http.StatusBadRequest, apiError{Detail: "Email already registered"})
			return
		}
		h.log.Error("failed to create user", zap.String("username", req.Username), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiError{Detail: "Internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *Handlers) APIListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := db.GetAllUsers()
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiError{Detail: "Internal server error"})
		return
	}

	resp := make([]userResponse, 0, len(users))
	for i := range users {
		resp = append(resp, toUserResponse(&users[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

type createNotificationRequest struct {
	Title    string `json:"title"`
	Message  string `json:"message"`
	SendDate string `json:"send_date"`
	ClientID *int64 `json:"client_id"`
}

type notificationResponse struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	SendDate time.Time `json:"send_date"`
	IsSent   bool      `json:"is_sent"`
	ClientID *int64    `json:"client_id"`
}

func toNotificationResponse(n *models.Notification) notificationResponse {
	return notificationResponse{
		ID:       n.ID,
		Title:    n.Title,
		Message:  n.Message,
		SendDate: n.SendDate,
		IsSent:   n.IsSent,
		ClientID: n.ClientID,
	}
}

func (h *Handlers) APICreateNotification(w http.ResponseWriter, r *http.Request) {
	var req createNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Detail: "Invalid request body"})
		return
	}
	if req.Title == "" || req.Message == "" {
		writeJSON(w, http.StatusBadRequest, apiError{Detail: "Title and message are required"})
		return
	}

	sendDate, err := parseSendDate(req.SendDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError{Detail: "Invalid send_date"})
		return
	}

	notif, err := db.CreateNotification(req.Title, req.Message, sendDate, req.ClientID)
	if err != nil {
		h.log.Error("failed to create notification", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiError{Detail: "Internal server error"})
		return
	}

	h.enqueueIfDue(notif)
	writeJSON(w, http.StatusCreated, toNotificationResponse(notif))
}

func (h *Handlers) APIListNotifications(w http.ResponseWriter, r *http.Request) {
	notifications, err := db.GetAllNotifications()
	if err != nil {
		h.log.Error("failed to list notifications", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiError{Detail: "Internal server error"})
		return
	}

	resp := make([]notificationResponse, 0, len(notifications))
	for i := range notifications {
		resp = append(resp, toNotificationResponse(&notifications[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}
