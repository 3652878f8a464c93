package bot

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"tg-notifier/internal/db"
	"tg-notifier/internal/models"
	"tg-notifier/internal/session"
)

// Registration dialogue states, strictly ordered.
const (
	stateUsername = "await_username"
	stateEmail    = "await_email"
	statePassword = "await_password"
)

func findUserByTelegramID(telegramID int64) (*models.User, error) {
	user, err := db.GetUserByTelegramID(telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// handleRegister starts the registration dialogue unless the user is
// already registered.
func (b *Bot) handleRegister(ctx context.Context, message *tgbotapi.Message) {
	user, err := findUserByTelegramID(message.From.ID)
	if err != nil {
		b.log.Error("user lookup failed", zap.Int64("telegram_id", message.From.ID), zap.Error(err))
		b.reply(message.Chat.ID, textGenericError)
		return
	}
	if user != nil {
		b.reply(message.Chat.ID, textAlreadyRegistered)
		return
	}

	if err := b.sessions.Set(ctx, message.Chat.ID, &session.Registration{State: stateUsername}); err != nil {
		b.log.Error("failed to create session", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		b.reply(message.Chat.ID, textGenericError)
		return
	}
	b.reply(message.Chat.ID, textAskUsername)
}

// handleCancel aborts an in-progress dialogue without persisting anything.
func (b *Bot) handleCancel(ctx context.Context, message *tgbotapi.Message) {
	reg, err := b.sessions.Get(ctx, message.Chat.ID)
	if err != nil {
		b.log.Error("session lookup failed", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		b.reply(message.Chat.ID, textGenericError)
		return
	}
	if reg == nil {
		b.reply(message.Chat.ID, textNothingToCancel)
		return
	}
	if err := b.sessions.Delete(ctx, message.Chat.ID); err != nil {
		b.log.Error("failed to delete session", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}
	b.reply(message.Chat.ID, textCancelled)
}

// handleDialogueMessage advances the registration dialogue with free-form
// text. Messages outside a dialogue get a hint.
func (b *Bot) handleDialogueMessage(ctx context.Context, message *tgbotapi.Message) {
	reg, err := b.sessions.Get(ctx, message.Chat.ID)
	if err != nil {
		b.log.Error("session lookup failed", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
		b.reply(message.Chat.ID, textGenericError)
		return
	}
	if reg == nil {
		b.reply(message.Chat.ID, textHint)
		return
	}

	text := strings.TrimSpace(message.Text)

	switch reg.State {
	case stateUsername:
		if text == "" {
			b.reply(message.Chat.ID, textAskUsername)
			return
		}
		reg.Username = text
		reg.State = stateEmail
		if err := b.sessions.Set(ctx, message.Chat.ID, reg); err != nil {
			b.log.Error("failed to save session", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
			b.reply(message.Chat.ID, textGenericError)
			return
		}
		b.reply(message.Chat.ID, textAskEmail)

	case stateEmail:
		if !strings.Contains(text, "@") {
			b.reply(message.Chat.ID, textInvalidEmail)
			return
		}
		if _, err := db.GetUserByEmail(text); err == nil {
			b.reply(message.Chat.ID, textEmailTaken)
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			b.log.Error("email lookup failed", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
			b.reply(message.Chat.ID, textGenericError)
			return
		}
		reg.Email = text
		reg.State = statePassword
		if err := b.sessions.Set(ctx, message.Chat.ID, reg); err != nil {
			b.log.Error("failed to save session", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
			b.reply(message.Chat.ID, textGenericError)
			return
		}
		b.reply(message.Chat.ID, textAskPassword)

	case statePassword:
		b.finishRegistration(ctx, message, reg, text)

	default:
		// Unknown state, drop the session and start over.
		_ = b.sessions.Delete(ctx, message.Chat.ID)
		b.reply(message.Chat.ID, textHint)
	}
}

// finishRegistration persists the collected fields as a new user.
func (b *Bot) finishRegistration(ctx context.Context, message *tgbotapi.Message, reg *session.Registration, password string) {
	if password == "" {
		b.reply(message.Chat.ID, textAskPassword)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		b.log.Error("failed to hash password", zap.Error(err))
		b.reply(message.Chat.ID, textGenericError)
		return
	}

	telegramID := message.From.ID
	hashed := string(hash)
	_, err = db.CreateUser(reg.Username, &reg.Email, &hashed, &telegramID)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a race with a concurrent registration for the same
			// telegram_id or email. No new row was created.
			_ = b.sessions.Delete(ctx, message.Chat.ID)
			b.reply(message.Chat.ID, textAlreadyRegistered)
			return
		}
		b.log.Error("failed to create user", zap.Int64("telegram_id", telegramID), zap.Error(err))
		b.reply(message.Chat.ID, textRegistrationFailed)
		return
	}

	if err := b.sessions.Delete(ctx, message.Chat.ID); err != nil {
		b.log.Error("failed to delete session", zap.Int64("chat_id", message.Chat.ID), zap.Error(err))
	}
	b.log.Info("user registered", zap.Int64("telegram_id", telegramID), zap.String("username", reg.Username))
	b.reply(message.Chat.ID, textRegistered)
}

// handleUpdateInfo refreshes the stored username from the Telegram profile.
func (b *Bot) handleUpdateInfo(ctx context.Context, message *tgbotapi.Message) {
	if message.From.UserName == "" {
		b.reply(message.Chat.ID, textNoTelegramUsername)
		return
	}

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

	if err := db.UpdateUsername(message.From.ID, message.From.UserName); err != nil {
		b.log.Error("failed to update username", zap.Int64("telegram_id", message.From.ID), zap.Error(err))
		b.reply(message.Chat.ID, textGenericError)
		return
	}
	b.reply(message.Chat.ID, textInfoUpdated)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
