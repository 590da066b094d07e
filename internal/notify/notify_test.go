package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/config"
	"github.com/pocketsafe/pocketsafe/internal/logger"
	"github.com/pocketsafe/pocketsafe/internal/reminder"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sample = reminder.Notification{Title: "Bill due", Body: "Rent (1200) is due tomorrow, Wed Jun 11.", StableID: 77}

func TestWebhookPostsJSON(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, time.Second)
	require.NotNil(t, wh)
	require.NoError(t, wh.Deliver(context.Background(), sample))
	assert.Equal(t, webhookPayload{ID: 77, Title: sample.Title, Body: sample.Body}, got)
}

func TestWebhookNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhook(srv.URL, time.Second).Deliver(context.Background(), sample)
	require.ErrorIs(t, err, ErrDelivery)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "nope")
}

func TestWebhookTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	err := NewWebhook(srv.URL, 50*time.Millisecond).Deliver(context.Background(), sample)
	require.ErrorIs(t, err, ErrDelivery)
}

func TestNewWebhookBlank(t *testing.T) {
	assert.Nil(t, NewWebhook("  ", 0))
	assert.Equal(t, defaultWebhookTimeout, NewWebhook("http://x", 0).timeout)
}

type fakeBot struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramDeliver(t *testing.T) {
	bot := &fakeBot{}
	tg := &Telegram{bot: bot, chatID: 42}

	require.NoError(t, tg.Deliver(context.Background(), sample))
	require.Len(t, bot.sent, 1)
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, sample.Title+"\n"+sample.Body, msg.Text)

	bot.err = errors.New("chat not found")
	require.ErrorIs(t, tg.Deliver(context.Background(), sample), ErrDelivery)
}

func TestNewTelegramRequiresChat(t *testing.T) {
	_, err := NewTelegram("123:abc", 0)
	require.Error(t, err)
}

type countingNotifier struct {
	calls atomic.Int32
	err   error
}

func (c *countingNotifier) Deliver(context.Context, reminder.Notification) error {
	c.calls.Add(1)
	return c.err
}

func TestMultiDeliversToAll(t *testing.T) {
	a := &countingNotifier{err: errors.New("a down")}
	b := &countingNotifier{}
	c := &countingNotifier{err: errors.New("c down")}

	err := Multi{a, nil, b, c}.Deliver(context.Background(), sample)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "a down") && strings.Contains(err.Error(), "c down"))
	assert.EqualValues(t, 1, a.calls.Load())
	assert.EqualValues(t, 1, b.calls.Load())
	assert.EqualValues(t, 1, c.calls.Load())

	assert.NoError(t, Multi{b}.Deliver(context.Background(), sample))
	assert.NoError(t, Multi(nil).Deliver(context.Background(), sample))
}

func TestLoggerNotifier(t *testing.T) {
	log, logs := logger.NewObserved()
	require.NoError(t, NewLogger(log).Deliver(context.Background(), sample))

	entries := logs.FilterMessage("Bill due").All()
	require.Len(t, entries, 1)
	assert.Equal(t, sample.Body, entries[0].ContextMap()["body"])
	assert.EqualValues(t, 77, entries[0].ContextMap()["notification_id"])
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Notify.Webhook.URL = "http://127.0.0.1:1/hook"
	cfg.Notify.Telegram.Token = "123:abc"

	log, logs := logger.NewObserved()
	m := FromConfig(cfg, log)

	require.Len(t, m, 2)
	assert.IsType(t, &Logger{}, m[0])
	assert.IsType(t, &Webhook{}, m[1])
	assert.Equal(t, 1, logs.FilterMessage("telegram notifier disabled").Len())
}
