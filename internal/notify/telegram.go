package notify

import (
	"context"
	"fmt"

	"github.com/pocketsafe/pocketsafe/internal/reminder"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sender is the part of *tgbotapi.BotAPI used here.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends reminders to a single chat through a bot.
type Telegram struct {
	bot    sender
	chatID int64
}

// NewTelegram authenticates the bot token against the Telegram API.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Channel() string { return "telegram" }

// Deliver implements reminder.Notifier.
func (t *Telegram) Deliver(ctx context.Context, n reminder.Notification) error {
	if err := ctx.Err(); err != nil {
		return deliveryError("telegram", err)
	}
	msg := tgbotapi.NewMessage(t.chatID, n.Title+"\n"+n.Body)
	if _, err := t.bot.Send(msg); err != nil {
		return deliveryError("telegram", err)
	}
	return nil
}
