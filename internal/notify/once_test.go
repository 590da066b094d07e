package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/logger"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/reminder"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSentLog struct {
	sent    map[string]bool
	readErr error
}

func newMemSentLog() *memSentLog { return &memSentLog{sent: map[string]bool{}} }

func sentKey(channel string, id int32, day string) string {
	return fmt.Sprintf("%s/%d/%s", channel, id, day)
}

func (m *memSentLog) ReminderSent(_ context.Context, channel string, id int32, day string) (bool, error) {
	if m.readErr != nil {
		return false, m.readErr
	}
	return m.sent[sentKey(channel, id, day)], nil
}

func (m *memSentLog) MarkReminderSent(_ context.Context, channel string, id int32, day string) error {
	m.sent[sentKey(channel, id, day)] = true
	return nil
}

type billStore []model.Obligation

func (b billStore) ListActiveUnsettled(_ context.Context, kind model.Kind) ([]model.Obligation, error) {
	var out []model.Obligation
	for _, o := range b {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out, nil
}

func TestOnce_SameDayRescanSendsOneTelegramMessage(t *testing.T) {
	clock := time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	store := billStore{{
		ID: "rent", Kind: model.KindBill, Name: "Rent", Amount: decimal.NewFromInt(1200),
		DueAt: clock.Add(48 * time.Hour), Recurrence: model.Monthly, Active: true,
	}}
	bot := &fakeBot{}
	channels := Multi{&Telegram{bot: bot, chatID: 42}}.Once(newMemSentLog(), now, nil)
	s := reminder.New(store, channels, nil, reminder.Config{Kind: model.KindBill, Now: now})

	for range 2 {
		events, err := s.Scan(context.Background())
		require.NoError(t, err)
		require.Len(t, events, 1)
	}
	assert.Len(t, bot.sent, 1)

	// a new UTC day sends again
	clock = clock.Add(20 * time.Hour)
	_, err := s.Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, bot.sent, 2)
}

func TestOnce_FailedDeliveryIsRetried(t *testing.T) {
	now := func() time.Time { return time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC) }
	bot := &fakeBot{err: errors.New("bad gateway")}
	ch := Multi{&Telegram{bot: bot, chatID: 1}}.Once(newMemSentLog(), now, nil)

	require.ErrorIs(t, ch.Deliver(context.Background(), sample), ErrDelivery)
	bot.err = nil
	require.NoError(t, ch.Deliver(context.Background(), sample))
	require.NoError(t, ch.Deliver(context.Background(), sample))
	assert.Len(t, bot.sent, 1)
}

func TestOnce_ChannelsTrackedSeparately(t *testing.T) {
	now := func() time.Time { return time.Date(2025, time.June, 10, 8, 0, 0, 0, time.UTC) }
	sent := newMemSentLog()
	tg := &countingNotifier{}
	other := &countingNotifier{}

	require.NoError(t, Multi{tg}.Once(sent, now, nil).Deliver(context.Background(), sample))
	require.NoError(t, Multi{NewLogger(nil), other}.Once(sent, now, nil).Deliver(context.Background(), sample))
	// tg and other share the "custom" channel name, the logger does not
	assert.EqualValues(t, 1, tg.calls.Load())
	assert.EqualValues(t, 0, other.calls.Load())
	assert.True(t, sent.sent[sentKey("log", sample.StableID, "2025-06-10")])
}

func TestOnce_UnreadableLogStillDelivers(t *testing.T) {
	log, logs := logger.NewObserved()
	sent := newMemSentLog()
	sent.readErr = errors.New("database is locked")
	bot := &fakeBot{}

	ch := Multi{&Telegram{bot: bot, chatID: 1}}.Once(sent, nil, log)
	require.NoError(t, ch.Deliver(context.Background(), sample))
	assert.Len(t, bot.sent, 1)
	assert.Equal(t, 1, logs.FilterMessage("reading sent reminders failed").Len())
}
