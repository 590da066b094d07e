package store

import (
	"context"
	"time"
)

// ReminderSent reports whether notification id already went out on channel
// during day (a UTC "2006-01-02" date).
func (s *Store) ReminderSent(ctx context.Context, channel string, id int32, day string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sent_reminders WHERE channel = ? AND notification_id = ? AND day = ?",
		channel, id, day).Scan(&n)
	return n > 0, err
}

// MarkReminderSent records a delivery. Marking the same day twice is a no-op.
func (s *Store) MarkReminderSent(ctx context.Context, channel string, id int32, day string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO sent_reminders (channel, notification_id, day, sent_at) VALUES (?, ?, ?, ?)",
		channel, id, day, formatTime(time.Now()))
	return err
}

// PruneSentReminders drops delivery records for days before day.
func (s *Store) PruneSentReminders(ctx context.Context, day string) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sent_reminders WHERE day < ?", day)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
