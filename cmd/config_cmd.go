package cmd

import (
	"fmt"

	"github.com/pocketsafe/pocketsafe/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	fmt.Printf("  Config file: %s\n", path)
	if config.Exists() || flagConfig != "" {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Environment overrides: %s_*\n", config.EnvPrefix)
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Database:       %s\n", cfg.DBPath())
	fmt.Printf("    Currency:       %s\n", cfg.General.Currency)
	fmt.Printf("    Default period: %s\n", cfg.General.DefaultPeriod)
	fmt.Println()

	fmt.Println("  [Reminders]")
	fmt.Printf("    Lookahead: %d days\n", lookaheadDays(cfg.Reminders.LookaheadDays))
	fmt.Printf("    Interval:  %s\n", cfg.ReminderInterval())
	fmt.Println()

	fmt.Println("  [Notify]")
	fmt.Printf("    Log:      %v\n", cfg.Notify.Log)
	if cfg.Notify.Webhook.URL != "" {
		fmt.Printf("    Webhook:  %s (timeout %s)\n", cfg.Notify.Webhook.URL, cfg.WebhookTimeout())
	} else {
		fmt.Println("    Webhook:  not configured")
	}
	if cfg.Notify.Telegram.Token != "" {
		fmt.Printf("    Telegram: %s, chat %d\n", maskToken(cfg.Notify.Telegram.Token), cfg.Notify.Telegram.ChatID)
	} else {
		fmt.Println("    Telegram: not configured")
	}
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:       %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Daemon.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:  %s\n", cfg.Log.Level)
	if cfg.Log.Format != "" {
		fmt.Printf("    Format: %s\n", cfg.Log.Format)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  Run `pocketsafe setup` to reconfigure.")
	return nil
}

func maskToken(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}
