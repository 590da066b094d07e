// Package cmd implements the pocketsafe CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pocketsafe/pocketsafe/internal/config"
	"github.com/pocketsafe/pocketsafe/internal/goal"
	"github.com/pocketsafe/pocketsafe/internal/logger"
	"github.com/pocketsafe/pocketsafe/internal/model"
	"github.com/pocketsafe/pocketsafe/internal/pipeline"
	"github.com/pocketsafe/pocketsafe/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfig   string
	flagDBPath   string
	flagPeriod   string
	flagQuiet    bool
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:          "pocketsafe",
	Short:        "Savings goals and payment reminders",
	Long:         "Track spending against a savings goal band and get reminded before subscriptions renew and bills come due.",
	RunE:         runStatus,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.ConfigPath()+")")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Database path (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&flagPeriod, "period", "p", "", "Period: month, last-month or year (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig reads the config file named by --config or the default path and
// applies command-line overrides.
func loadConfig() (config.Config, error) {
	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return cfg, err
	}
	if flagDBPath != "" {
		cfg.General.DBPath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	return cfg, nil
}

// saveConfig writes cfg back to the config file. Values that only came from
// --db or --log-level keep what the file had.
func saveConfig(cfg config.Config) error {
	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	if file, err := config.LoadFile(path); err == nil {
		if flagDBPath != "" && cfg.General.DBPath == flagDBPath {
			cfg.General.DBPath = file.General.DBPath
		}
		if flagLogLevel != "" && cfg.Log.Level == flagLogLevel {
			cfg.Log.Level = file.Log.Level
		}
	}
	return config.SaveTo(path, cfg)
}

// period resolves --period, falling back to the configured default.
func period(cfg config.Config) (model.Period, error) {
	if flagPeriod != "" {
		return model.ParsePeriod(flagPeriod)
	}
	return model.ParsePeriod(cfg.General.DefaultPeriod)
}

// appContext is the shared wiring behind every command that touches data.
type appContext struct {
	cfg      config.Config
	log      *zap.Logger
	store    *store.Store
	goals    *goal.Service
	spending *pipeline.Aggregator
}

// openApp loads config, builds the logger and opens the database.
// defaultFormat is the log format used when the config leaves it empty.
func openApp(defaultFormat string) (*appContext, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.NewStderr(cfg.Log.Level, cfg.Log.Format, defaultFormat)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return newAppContext(cfg, log)
}

func newAppContext(cfg config.Config, log *zap.Logger) (*appContext, error) {
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, err
	}

	spending := pipeline.NewAggregator(st, nil)
	return &appContext{
		cfg:      cfg,
		log:      log,
		store:    st,
		goals:    goal.NewService(st, spending, log),
		spending: spending,
	}, nil
}

func (a *appContext) Close() {
	_ = a.log.Sync()
	_ = a.store.Close()
}

// commandContext bounds one-shot commands.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func progressf(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
