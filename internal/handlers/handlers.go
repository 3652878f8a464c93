package handlers

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"tg-notifier/internal/middleware"
	"tg-notifier/pkg/tasks"
)

// Handlers serves the admin panel: login, user and notification CRUD.
type Handlers struct {
	templates   *template.Template
	asynqClient tasks.TaskEnqueuer
	log         *zap.Logger
}

func New(templates *template.Template, asynqClient tasks.TaskEnqueuer, log *zap.Logger) *Handlers {
	return &Handlers{
		templates:   templates,
		asynqClient: asynqClient,
		log:         log,
	}
}

func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.ExecuteTemplate(w, "index.html", nil); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handlers) GetLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.ExecuteTemplate(w, "login.html", nil); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// PostLogin checks the shared admin credential and issues a session cookie.
func (h *Handlers) PostLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	if !middleware.CheckCredentials(r.FormValue("username"), r.FormValue("password")) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := middleware.NewSessionToken()
	if err != nil {
		h.log.Error("failed to issue session token", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:   middleware.SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// parseSendDate accepts RFC 3339 timestamps and, for values without an
// explicit offset (e.g. from a datetime-local form input), assumes UTC.
func parseSendDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized send_date format: %q", s)
}
