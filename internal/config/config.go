package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. POCKETSAFE_REMINDERS_LOOKAHEAD_DAYS.
const EnvPrefix = "POCKETSAFE"

// Config holds all pocketsafe configuration.
type Config struct {
	General    GeneralConfig    `toml:"general" envconfig:"GENERAL"`
	Reminders  ReminderConfig   `toml:"reminders" envconfig:"REMINDERS"`
	Notify     NotifyConfig     `toml:"notify" envconfig:"NOTIFY"`
	Daemon     DaemonConfig     `toml:"daemon" envconfig:"DAEMON"`
	Log        LogConfig        `toml:"log" envconfig:"LOG"`
	Appearance AppearanceConfig `toml:"appearance" envconfig:"APPEARANCE"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DBPath        string `toml:"db_path,omitempty" envconfig:"DB_PATH"`
	Currency      string `toml:"currency" envconfig:"CURRENCY"`
	DefaultPeriod string `toml:"default_period" envconfig:"DEFAULT_PERIOD"`
}

// ReminderConfig controls the reminder scan.
type ReminderConfig struct {
	LookaheadDays int    `toml:"lookahead_days" envconfig:"LOOKAHEAD_DAYS"`
	Interval      string `toml:"interval" envconfig:"INTERVAL"`
}

// NotifyConfig selects where reminders are delivered. Every configured
// channel receives each reminder.
type NotifyConfig struct {
	Log      bool           `toml:"log" envconfig:"LOG"`
	Webhook  WebhookConfig  `toml:"webhook" envconfig:"WEBHOOK"`
	Telegram TelegramConfig `toml:"telegram" envconfig:"TELEGRAM"`
}

// WebhookConfig posts reminders as JSON to a URL.
type WebhookConfig struct {
	URL     string `toml:"url,omitempty" envconfig:"URL"`
	Timeout string `toml:"timeout,omitempty" envconfig:"TIMEOUT"`
}

// TelegramConfig sends reminders through a Telegram bot.
type TelegramConfig struct {
	Token  string `toml:"token,omitempty" envconfig:"TOKEN"`
	ChatID int64  `toml:"chat_id,omitempty" envconfig:"CHAT_ID"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr         string `toml:"addr" envconfig:"ADDR"`
	EventsBuffer int    `toml:"events_buffer" envconfig:"EVENTS_BUFFER"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level" envconfig:"LEVEL"`
	Format string `toml:"format,omitempty" envconfig:"FORMAT"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme" envconfig:"THEME"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Currency:      "USD",
			DefaultPeriod: "month",
		},
		Reminders: ReminderConfig{
			LookaheadDays: 3,
			Interval:      "24h",
		},
		Notify: NotifyConfig{
			Log: true,
			Webhook: WebhookConfig{
				Timeout: "10s",
			},
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8797",
			EventsBuffer: 200,
		},
		Log: LogConfig{
			Level: "info",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pocketsafe")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "pocketsafe")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pocketsafe")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "pocketsafe")
}

// DBPath returns the configured database path or the default under DataDir.
func (c Config) DBPath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "pocketsafe.db")
}

// ReminderInterval returns the scan interval, falling back to 24h when unset or invalid.
func (c Config) ReminderInterval() time.Duration {
	return parseDuration(c.Reminders.Interval, 24*time.Hour)
}

// WebhookTimeout returns the webhook request timeout, falling back to 10s.
func (c Config) WebhookTimeout() time.Duration {
	return parseDuration(c.Notify.Webhook.Timeout, 10*time.Second)
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Load reads the config file, returning defaults if it doesn't exist, and
// then applies environment overrides.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config file at path and applies environment overrides.
func LoadFrom(path string) (Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("environment overrides: %w", err)
	}
	return cfg, nil
}

// LoadFile reads the config file at path without environment overrides.
// A missing file yields the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path. A value that an environment override
// put into cfg, and that was not edited since, is written as the file
// already had it, so secrets passed through the environment stay there.
func SaveTo(path string, cfg Config) error {
	if file, err := LoadFile(path); err == nil {
		withEnv := file
		if envconfig.Process(EnvPrefix, &withEnv) == nil {
			keepFileValues(reflect.ValueOf(&cfg).Elem(), reflect.ValueOf(file), reflect.ValueOf(withEnv))
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// keepFileValues walks dst field by field and restores the file value
// wherever the environment changed a field and dst still holds that value.
func keepFileValues(dst, file, withEnv reflect.Value) {
	if dst.Kind() == reflect.Struct {
		for i := range dst.NumField() {
			keepFileValues(dst.Field(i), file.Field(i), withEnv.Field(i))
		}
		return
	}
	fromEnv := !reflect.DeepEqual(file.Interface(), withEnv.Interface())
	if fromEnv && reflect.DeepEqual(dst.Interface(), withEnv.Interface()) {
		dst.Set(file)
	}
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
