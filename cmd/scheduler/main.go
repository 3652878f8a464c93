package main

import (
	"log"
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tg-notifier/internal/logger"
	"tg-notifier/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

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

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "127.0.0.1:6379"
	}

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: redisAddr},
		&asynq.SchedulerOpts{},
	)

	task, err := tasks.NewDeliverDueTask()
	if err != nil {
		zl.Fatal("could not create task", zap.Error(err))
	}

	// Run every minute
	if _, err := scheduler.Register("@every 1m", task); err != nil {
		zl.Fatal("could not register task", zap.Error(err))
	}

	zl.Info("scheduler starting", zap.String("commit", CommitSHA))
	if err := scheduler.Run(); err != nil {
		zl.Fatal("could not run scheduler", zap.Error(err))
	}
}
