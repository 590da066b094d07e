// Package notify delivers reminder notifications to the channels a user has
// configured: the log, an HTTP webhook, and a Telegram chat.
package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/pocketsafe/pocketsafe/internal/reminder"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrDelivery wraps every channel failure so callers can match on it.
var ErrDelivery = errors.New("notify: delivery failed")

// Logger writes each notification as a structured log line.
type Logger struct {
	log *zap.Logger
}

// NewLogger returns a notifier that logs at info level.
func NewLogger(log *zap.Logger) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Logger{log: log.Named("notify")}
}

// Channel names the channel in the sent-reminder log.
func (l *Logger) Channel() string { return "log" }

// Deliver implements reminder.Notifier.
func (l *Logger) Deliver(_ context.Context, n reminder.Notification) error {
	l.log.Info(n.Title,
		zap.String("body", n.Body),
		zap.Int32("notification_id", n.StableID),
	)
	return nil
}

// Multi fans a notification out to every child notifier.
type Multi []reminder.Notifier

// Deliver sends to each child in order. One failing channel does not stop
// the others; all failures are combined into the returned error.
func (m Multi) Deliver(ctx context.Context, n reminder.Notification) error {
	var err error
	for _, child := range m {
		if child == nil {
			continue
		}
		if cerr := child.Deliver(ctx, n); cerr != nil {
			err = multierr.Append(err, cerr)
		}
	}
	return err
}

func deliveryError(channel string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrDelivery, channel, err)
}
