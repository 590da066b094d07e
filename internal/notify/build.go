package notify

import (
	"github.com/pocketsafe/pocketsafe/internal/config"
	"github.com/pocketsafe/pocketsafe/internal/reminder"

	"go.uber.org/zap"
)

// FromConfig assembles the notifier for every channel enabled in cfg.
// A Telegram channel that fails to authenticate is logged and skipped so the
// remaining channels still work.
func FromConfig(cfg config.Config, log *zap.Logger) Multi {
	if log == nil {
		log = zap.NewNop()
	}

	var out Multi
	if cfg.Notify.Log {
		out = append(out, NewLogger(log))
	}
	if wh := NewWebhook(cfg.Notify.Webhook.URL, cfg.WebhookTimeout()); wh != nil {
		out = append(out, wh)
	}
	if tg := cfg.Notify.Telegram; tg.Token != "" {
		t, err := NewTelegram(tg.Token, tg.ChatID)
		if err != nil {
			log.Warn("telegram notifier disabled", zap.Error(err))
		} else {
			out = append(out, t)
		}
	}
	return out
}

var _ reminder.Notifier = Multi(nil)
