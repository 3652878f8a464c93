package main

import (
	"html/template"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tg-notifier/internal/db"
	"tg-notifier/internal/handlers"
	"tg-notifier/internal/logger"
	"tg-notifier/internal/middleware"
	"tg-notifier/web"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	zl, err := logger.New()
	if err != nil {
		log.Fatalf("could not init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db.InitDB()
	if err := db.Migrate(); err != nil {
		zl.Fatal("migrations failed", zap.Error(err))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	defer client.Close()

	templates, err := template.ParseFS(web.TemplatesFS, "templates/*.html")
	if err != nil {
		zl.Fatal("could not parse templates", zap.Error(err))
	}

	h := handlers.New(templates, client, zl)
	rateLimiter := middleware.NewRateLimiterMiddleware(5, 10)

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.HandleFunc("/login", h.GetLogin).Methods(http.MethodGet)
	r.HandleFunc("/login", h.PostLogin).Methods(http.MethodPost)
	r.HandleFunc("/logout", h.Logout).Methods(http.MethodGet)

	admin := r.NewRoute().Subrouter()
	admin.Use(middleware.AuthMiddleware, rateLimiter.Middleware)
	admin.HandleFunc("/", h.Index).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.GetUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users", h.PostUsers).Methods(http.MethodPost)
	admin.HandleFunc("/notifications", h.GetNotifications).Methods(http.MethodGet)
	admin.HandleFunc("/notifications", h.PostNotifications).Methods(http.MethodPost)
	admin.HandleFunc("/api/users", h.APIListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/api/users", h.APICreateUser).Methods(http.MethodPost)
	admin.HandleFunc("/api/notifications", h.APIListNotifications).Methods(http.MethodGet)
	admin.HandleFunc("/api/notifications", h.APICreateNotification).Methods(http.MethodPost)

	zl.Info("starting admin server", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, r); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
