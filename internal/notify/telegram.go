// Package notify сообщает исполнителям о назначенных задачах.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// Nop: уведомления выключены (не задан TELEGRAM_BOT_TOKEN).
type Nop struct{}

func (Nop) Notify(context.Context, int64, string) error { return nil }

type Telegram struct {
	bot *tgbotapi.BotAPI
	log *zap.Logger
}

func NewTelegram(token string, log *zap.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	log.Info("telegram notifier authorized", zap.String("bot", bot.Self.UserName))
	return &Telegram{bot: bot, log: log}, nil
}

func (t *Telegram) Notify(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}
