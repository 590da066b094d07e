package notify

import (
	"context"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/reminder"

	"go.uber.org/zap"
)

// SentLog remembers which notification went out on which channel and day.
type SentLog interface {
	ReminderSent(ctx context.Context, channel string, id int32, day string) (bool, error)
	MarkReminderSent(ctx context.Context, channel string, id int32, day string) error
}

// Once passes a notification on at most once per channel and UTC day.
// A failed delivery is not recorded, so the next scan tries again.
type Once struct {
	next    reminder.Notifier
	channel string
	sent    SentLog
	now     func() time.Time
	log     *zap.Logger
}

// Channel implements the channel name lookup used by Multi.Once.
func (o *Once) Channel() string { return o.channel }

// Deliver implements reminder.Notifier. When the sent log cannot be read the
// notification is delivered anyway.
func (o *Once) Deliver(ctx context.Context, n reminder.Notification) error {
	day := o.now().UTC().Format(time.DateOnly)
	log := o.log.With(
		zap.String("channel", o.channel),
		zap.Int32("notification_id", n.StableID),
		zap.String("day", day),
	)

	sent, err := o.sent.ReminderSent(ctx, o.channel, n.StableID, day)
	switch {
	case err != nil:
		log.Warn("reading sent reminders failed", zap.Error(err))
	case sent:
		log.Debug("reminder already sent today")
		return nil
	}

	if err := o.next.Deliver(ctx, n); err != nil {
		return err
	}
	if err := o.sent.MarkReminderSent(ctx, o.channel, n.StableID, day); err != nil {
		log.Warn("recording sent reminder failed", zap.Error(err))
	}
	return nil
}

// Once wraps every channel so a reminder reaches it at most once per UTC
// day, however many scans run. now defaults to time.Now and log may be nil.
func (m Multi) Once(sent SentLog, now func() time.Time, log *zap.Logger) Multi {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	out := make(Multi, 0, len(m))
	for _, child := range m {
		if child == nil {
			continue
		}
		out = append(out, &Once{
			next:    child,
			channel: channelName(child),
			sent:    sent,
			now:     now,
			log:     log.Named("notify"),
		})
	}
	return out
}

func channelName(n reminder.Notifier) string {
	if c, ok := n.(interface{ Channel() string }); ok {
		return c.Channel()
	}
	return "custom"
}
