package main

import (
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tg-notifier/internal/db"
	"tg-notifier/internal/delivery"
	"tg-notifier/internal/logger"
	"tg-notifier/internal/worker"
	"tg-notifier/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

const defaultSendTimeout = 30 * time.Second

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

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	sendTimeout := defaultSendTimeout
	if raw := os.Getenv("SEND_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			sendTimeout = d
		}
	}

	messenger, err := delivery.NewTelegramMessenger(os.Getenv("TELEGRAM_BOT_TOKEN"), sendTimeout)
	if err != nil {
		zl.Fatal("could not connect to telegram", zap.Error(err))
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			// One delivery run at a time. Together with the per-row claim
			// this keeps overlapping invocations from double-sending.
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(delivery.New(messenger, zl), zl)

	mux.HandleFunc(tasks.TypeDeliverDue, taskHandler.HandleDeliverDueTask)
	mux.HandleFunc(tasks.TypeDeliverForUser, taskHandler.HandleDeliverForUserTask)

	zl.Info("worker starting", zap.String("commit", CommitSHA))
	if err := srv.Run(mux); err != nil {
		zl.Fatal("could not run server", zap.Error(err))
	}
}
