package middleware

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the name of the signed admin session cookie.
const SessionCookie = "admin_session"

const sessionTTL = 12 * time.Hour

func signingSecret() []byte {
	return []byte(os.Getenv("ADMIN_SECRET"))
}

// CheckCredentials compares a login attempt against the shared admin
// credential from the environment.
func CheckCredentials(username, password string) bool {
	return username != "" &&
		username == os.Getenv("ADMIN_USERNAME") &&
		password == os.Getenv("ADMIN_PASSWORD")
}

// NewSessionToken issues a signed session token for a successful login.
func NewSessionToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(sessionTTL).Unix(),
	})
	return token.SignedString(signingSecret())
}

func validateSessionToken(raw string) error {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingSecret(), nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("invalid session token")
	}
	return nil
}

// AuthMiddleware rejects requests without a valid admin session cookie.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		if err := validateSessionToken(cookie.Value); err != nil {
			http.Error(w, "Invalid session", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
