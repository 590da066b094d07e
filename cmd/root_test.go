package cmd

import (
	"path/filepath"
	"testing"

	"github.com/pocketsafe/pocketsafe/internal/config"
)

func TestSaveConfig_FlagOverridesNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	flagConfig, flagDBPath, flagLogLevel = path, "/tmp/scratch.db", "debug"
	t.Cleanup(func() { flagConfig, flagDBPath, flagLogLevel = "", "", "" })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.General.DBPath != "/tmp/scratch.db" || cfg.Log.Level != "debug" {
		t.Fatalf("flags not applied: %+v", cfg.General)
	}
	cfg.General.Currency = "EUR"
	if err := saveConfig(cfg); err != nil {
		t.Fatalf("saveConfig: %v", err)
	}

	got, err := config.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.General.DBPath != "" {
		t.Errorf("DBPath = %q, --db leaked into the file", got.General.DBPath)
	}
	if got.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want file default info", got.Log.Level)
	}
	if got.General.Currency != "EUR" {
		t.Errorf("Currency = %q, want EUR", got.General.Currency)
	}
}
