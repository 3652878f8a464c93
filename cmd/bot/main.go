package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"tg-notifier/internal/bot"
	"tg-notifier/internal/db"
	"tg-notifier/internal/delivery"
	"tg-notifier/internal/logger"
	"tg-notifier/internal/session"
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

	api, err := tgbotapi.NewBotAPI(os.Getenv("TELEGRAM_BOT_TOKEN"))
	if err != nil {
		zl.Fatal("could not connect to telegram", zap.Error(err))
	}

	var sessions session.Store
	if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
		sessions = session.NewRedisStore(redisAddr)
		zl.Info("using redis session store", zap.String("addr", redisAddr))
	} else {
		sessions = session.NewMemoryStore()
		zl.Info("using in-memory session store")
	}

	messenger := delivery.WrapBot(api)
	b := bot.New(api, messenger, sessions, delivery.New(messenger, zl), zl)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b.Run(ctx)
}
