package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Reminders.LookaheadDays != 3 {
		t.Errorf("LookaheadDays = %d, want 3", cfg.Reminders.LookaheadDays)
	}
	if cfg.ReminderInterval() != 24*time.Hour {
		t.Errorf("ReminderInterval = %s, want 24h", cfg.ReminderInterval())
	}
	if !cfg.Notify.Log {
		t.Error("log notifier should be on by default")
	}
}

func TestLoadFrom_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[general]
currency = "EUR"

[reminders]
lookahead_days = 5
interval = "12h"

[notify.webhook]
url = "http://example.invalid/hook"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("POCKETSAFE_REMINDERS_LOOKAHEAD_DAYS", "7")
	t.Setenv("POCKETSAFE_NOTIFY_TELEGRAM_CHAT_ID", "42")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.General.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", cfg.General.Currency)
	}
	if cfg.Reminders.LookaheadDays != 7 {
		t.Errorf("LookaheadDays = %d, want env override 7", cfg.Reminders.LookaheadDays)
	}
	if cfg.ReminderInterval() != 12*time.Hour {
		t.Errorf("ReminderInterval = %s, want 12h", cfg.ReminderInterval())
	}
	if cfg.Notify.Webhook.URL != "http://example.invalid/hook" {
		t.Errorf("Webhook.URL = %q", cfg.Notify.Webhook.URL)
	}
	if cfg.Notify.Telegram.ChatID != 42 {
		t.Errorf("Telegram.ChatID = %d, want 42", cfg.Notify.Telegram.ChatID)
	}
	// untouched defaults survive a partial file
	if cfg.Daemon.Addr != DefaultConfig().Daemon.Addr {
		t.Errorf("Daemon.Addr = %q", cfg.Daemon.Addr)
	}
}

func TestLoadFrom_BadEnv(t *testing.T) {
	t.Setenv("POCKETSAFE_REMINDERS_LOOKAHEAD_DAYS", "soon")
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Fatal("expected error for non-numeric override")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Appearance.Theme = "tokyo-night"
	cfg.Notify.Telegram.Token = "123:abc"

	if err := SaveTo(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Appearance.Theme != "tokyo-night" || got.Notify.Telegram.Token != "123:abc" {
		t.Errorf("round trip = %+v", got)
	}
}

func TestDurationsFallBack(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Reminders.Interval = "whenever"
	cfg.Notify.Webhook.Timeout = "-1s"
	if cfg.ReminderInterval() != 24*time.Hour {
		t.Errorf("ReminderInterval = %s", cfg.ReminderInterval())
	}
	if cfg.WebhookTimeout() != 10*time.Second {
		t.Errorf("WebhookTimeout = %s", cfg.WebhookTimeout())
	}
}

func TestDBPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	cfg := DefaultConfig()
	if got := cfg.DBPath(); got != "/tmp/xdg-data/pocketsafe/pocketsafe.db" {
		t.Errorf("DBPath = %q", got)
	}
	cfg.General.DBPath = "/srv/ps.db"
	if got := cfg.DBPath(); got != "/srv/ps.db" {
		t.Errorf("DBPath = %q", got)
	}
}

func TestSaveTo_EnvOverridesStayOutOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[general]\ncurrency = \"EUR\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("POCKETSAFE_NOTIFY_TELEGRAM_TOKEN", "123:secret")
	t.Setenv("POCKETSAFE_GENERAL_CURRENCY", "GBP")
	t.Setenv("POCKETSAFE_REMINDERS_LOOKAHEAD_DAYS", "9")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg.Appearance.Theme = "terminal"
	cfg.Reminders.LookaheadDays = 4 // edited after load, so it is saved
	if err := SaveTo(path, cfg); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret") {
		t.Errorf("env-only token written to config:\n%s", data)
	}

	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.General.Currency != "EUR" {
		t.Errorf("Currency = %q, want file value EUR", got.General.Currency)
	}
	if got.Appearance.Theme != "terminal" {
		t.Errorf("Theme = %q, want terminal", got.Appearance.Theme)
	}
	if got.Reminders.LookaheadDays != 4 {
		t.Errorf("LookaheadDays = %d, want edited value 4", got.Reminders.LookaheadDays)
	}
}

func TestSaveTo_FailsOnUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	if err := SaveTo(dir, DefaultConfig()); err == nil {
		t.Fatal("expected error writing config over a directory")
	}
}
