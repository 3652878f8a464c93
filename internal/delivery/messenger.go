package delivery

import (
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Messenger sends a text message to a Telegram chat. Implemented by
// TelegramMessenger and mocked in tests.
type Messenger interface {
	Send(chatID int64, text string) error
}

// TelegramMessenger delivers messages through the Telegram Bot API.
type TelegramMessenger struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramMessenger authorizes against the Bot API with a per-request
// timeout, so a stuck send cannot block a delivery run indefinitely.
func NewTelegramMessenger(token string, sendTimeout time.Duration) (*TelegramMessenger, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: sendTimeout})
	if err != nil {
		return nil, err
	}
	return &TelegramMessenger{bot: bot}, nil
}

// WrapBot reuses an already authorized Bot API client. Used by the bot
// process, which shares one client between the update loop and delivery.
func WrapBot(bot *tgbotapi.BotAPI) *TelegramMessenger {
	return &TelegramMessenger{bot: bot}
}

func (m *TelegramMessenger) Send(chatID int64, text string) error {
	_, err := m.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}
