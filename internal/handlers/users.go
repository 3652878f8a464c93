package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tg-notifier/internal/db"
	"tg-notifier/internal/models"
)

func (h *Handlers) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := db.GetAllUsers()
	if err != nil {
		h.log.Error("failed to list users", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.templates.ExecuteTemplate(w, "users.html", users); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// PostUsers creates a user from the admin form and re-renders the list.
func (h *Handlers) PostUsers(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	username := r.FormValue("username")
	if username == "" {
		http.Error(w, "Username is required", http.StatusBadRequest)
		return
	}

	if _, err := h.createUser(username, r.FormValue("email"), r.FormValue("password")); err != nil {
		if errors.Is(err, errEmailTaken) {
			http.Error(w, "Email already registered", http.StatusBadRequest)
			return
		}
		h.log.Error("failed to create user", zap.String("username", username), zap.Error(err))
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.GetUsers(w, r)
}

var errEmailTaken = errors.New("email already registered")

// createUser enforces email uniqueness and hashes the password before
// inserting. Empty email/password are stored as NULL.
func (h *Handlers) createUser(username, email, password string) (*models.User, error) {
	var emailPtr *string
	if email != "" {
		if _, err := db.GetUserByEmail(email); err == nil {
			return nil, errEmailTaken
		} else if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		emailPtr = &email
	}

	var passwordPtr *string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed := string(hash)
		passwordPtr = &hashed
	}

	return db.CreateUser(username, emailPtr, passwordPtr, nil)
}
