package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tg-notifier/internal/delivery"
	"tg-notifier/internal/session"
)

// Bot receives Telegram updates and routes them to command handlers. All
// outbound messages go through the injected Messenger, so handlers can be
// tested without a live Bot API connection.
type Bot struct {
	api       *tgbotapi.BotAPI
	messenger delivery.Messenger
	sessions  session.Store
	deliverer *delivery.Deliverer
	log       *zap.Logger
}

func New(api *tgbotapi.BotAPI, messenger delivery.Messenger, sessions session.Store, deliverer *delivery.Deliverer, log *zap.Logger) *Bot {
	return &Bot{
		api:       api,
		messenger: messenger,
		sessions:  sessions,
		deliverer: deliverer,
		log:       log,
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("bot started", zap.String("account", b.api.Self.UserName))

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bot stopping")
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil { // ignore any non-Message updates
		return
	}
	message := update.Message

	if !message.IsCommand() {
		b.handleDialogueMessage(ctx, message)
		return
	}

	switch message.Command() {
	case "start":
		b.reply(message.Chat.ID, textStart)
	case "register":
		b.handleRegister(ctx, message)
	case "cancel":
		b.handleCancel(ctx, message)
	case "update_info":
		b.handleUpdateInfo(ctx, message)
	case "check_notifications":
		b.handleCheckNotifications(ctx, message)
	default:
		b.reply(message.Chat.ID, textUnknownCommand)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.messenger.Send(chatID, text); err != nil {
		b.log.Error("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// handleCheckNotifications delivers the requesting user's due notifications
// on demand, with the same claim semantics as the periodic check.
func (b *Bot) handleCheckNotifications(ctx context.Context, message *tgbotapi.Message) {
	user, err := findUserByTelegramID(message.From.ID)
	if err != nil {
		b.log.Error("user lookup failed", zap.Int64("telegram_id", message.From.ID), zap.Error(err))
		b.reply(message.Chat.ID, textGenericError)
		return
	}
	if user == nil {
		b.reply(message.Chat.ID, textNotRegistered)
		return
	}

	res, err := b.deliverer.DeliverDueForUser(user.ID, time.Now().UTC())
	if err != nil {
		b.log.Error("check_notifications failed", zap.Int64("user_id", user.ID), zap.Error(err))
		b.reply(message.Chat.ID, textCheckError)
		return
	}

	switch {
	case res.Sent > 0:
		b.reply(message.Chat.ID, textAllSent)
	case res.Future > 0:
		b.reply(message.Chat.ID, textOnlyFuture)
	default:
		b.reply(message.Chat.ID, textNoNotifications)
	}
}
