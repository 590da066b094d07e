package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/reminder"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	maxErrorBody          = 4 << 10
)

// webhookPayload is the JSON body posted for each reminder.
type webhookPayload struct {
	ID    int32  `json:"id"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Webhook posts reminders as JSON to a URL.
type Webhook struct {
	url     string
	timeout time.Duration
	http    *http.Client
}

// NewWebhook returns nil when url is blank.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}
	return &Webhook{
		url:     url,
		timeout: timeout,
		http:    &http.Client{},
	}
}

func (w *Webhook) Channel() string { return "webhook" }

// Deliver implements reminder.Notifier. Any non-2xx response is an error.
func (w *Webhook) Deliver(ctx context.Context, n reminder.Notification) error {
	payload, err := json.Marshal(webhookPayload{ID: n.StableID, Title: n.Title, Body: n.Body})
	if err != nil {
		return deliveryError("webhook", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return deliveryError("webhook", fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "pocketsafe/1.0")

	//nolint:gosec // URL comes from the user's own config
	resp, err := w.http.Do(req)
	if err != nil {
		return deliveryError("webhook", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			return deliveryError("webhook", fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
		return deliveryError("webhook", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, msg))
	}
	return nil
}
