package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mealprep.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, "{}\n"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Analytics.RetentionDays != 30 {
			t.Errorf("Expected RetentionDays to be 30, got %d", cfg.Analytics.RetentionDays)
		}
		if cfg.Reminder.PollInterval != time.Minute {
			t.Errorf("Expected PollInterval to be 1m, got %s", cfg.Reminder.PollInterval)
		}
		if cfg.Database.QuotaBytes != 5*1024*1024 {
			t.Errorf("Expected default quota of 5MiB, got %d", cfg.Database.QuotaBytes)
		}
	})

	t.Run("FileValues", func(t *testing.T) {
		path := writeConfig(t, `
database:
  path: /tmp/mealprep-test.db
  quota_bytes: 2048
telegram:
  bot_token: token
  chat_id: 42
reminder:
  poll_interval: 30s
  timezone: UTC
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Database.Path != "/tmp/mealprep-test.db" {
			t.Errorf("Expected database path from file, got '%s'", cfg.Database.Path)
		}
		if cfg.Database.QuotaBytes != 2048 {
			t.Errorf("Expected quota 2048, got %d", cfg.Database.QuotaBytes)
		}
		if cfg.Telegram.ChatID != 42 {
			t.Errorf("Expected chat id 42, got %d", cfg.Telegram.ChatID)
		}
		if cfg.Reminder.PollInterval != 30*time.Second {
			t.Errorf("Expected PollInterval 30s, got %s", cfg.Reminder.PollInterval)
		}
		loc, err := cfg.Location()
		if err != nil || loc != time.UTC {
			t.Errorf("Expected UTC location, got %v (%v)", loc, err)
		}
	})

	t.Run("EnvOverride", func(t *testing.T) {
		t.Setenv("MEALPREP_TELEGRAM_BOT_TOKEN", "env_token")
		t.Setenv("MEALPREP_ANALYTICS_RETENTION_DAYS", "7")

		cfg, err := Load(writeConfig(t, "telegram:\n  bot_token: file_token\n"))
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.Telegram.BotToken != "env_token" {
			t.Errorf("Expected BotToken to be 'env_token', got '%s'", cfg.Telegram.BotToken)
		}
		if cfg.Analytics.RetentionDays != 7 {
			t.Errorf("Expected RetentionDays to be 7, got %d", cfg.Analytics.RetentionDays)
		}
	})

	t.Run("InvalidRetention", func(t *testing.T) {
		_, err := Load(writeConfig(t, "analytics:\n  retention_days: 0\n"))
		if err == nil {
			t.Fatal("Expected an error for zero retention, got nil")
		}
		expectedError := "analytics.retention_days must be positive, got 0"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidTimezone", func(t *testing.T) {
		_, err := Load(writeConfig(t, "reminder:\n  timezone: Mars/Olympus\n"))
		if err == nil {
			t.Fatal("Expected an error for unknown timezone, got nil")
		}
	})

	t.Run("MissingExplicitFile", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		if err == nil {
			t.Fatal("Expected an error for a missing explicit config file, got nil")
		}
	})
}
