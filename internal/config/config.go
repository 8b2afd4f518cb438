package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Database  DatabaseConfig
	Logger    LoggerConfig
	Catalog   CatalogConfig
	Analytics AnalyticsConfig
	Reminder  ReminderConfig
	Telegram  TelegramConfig
}

type DatabaseConfig struct {
	Path       string
	QuotaBytes int64
}

type LoggerConfig struct {
	Level      string
	Encoding   string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type CatalogConfig struct {
	Path string
}

type AnalyticsConfig struct {
	RetentionDays int
}

type ReminderConfig struct {
	PollInterval time.Duration
	Timezone     string
}

// TelegramConfig is optional for the CLI and required for the reminder bot.
type TelegramConfig struct {
	BotToken      string
	ChatID        int64
	RatePerSecond float64
}

// Load reads configuration with Viper.
// When configFile is empty, mealprep.yaml is searched in ./config, . and $HOME/.mealprep.
// Every key can be overridden by MEALPREP_<SECTION>_<KEY> environment variables.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mealprep")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.mealprep")
	}

	v.SetEnvPrefix("MEALPREP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{}

	cfg.Database.Path = v.GetString("database.path")
	cfg.Database.QuotaBytes = v.GetInt64("database.quota_bytes")

	cfg.Logger.Level = v.GetString("logger.level")
	cfg.Logger.Encoding = v.GetString("logger.encoding")
	cfg.Logger.File = v.GetString("logger.file")
	cfg.Logger.MaxSizeMB = v.GetInt("logger.max_size_mb")
	cfg.Logger.MaxBackups = v.GetInt("logger.max_backups")
	cfg.Logger.MaxAgeDays = v.GetInt("logger.max_age_days")

	cfg.Catalog.Path = v.GetString("catalog.path")

	cfg.Analytics.RetentionDays = v.GetInt("analytics.retention_days")

	cfg.Reminder.PollInterval = v.GetDuration("reminder.poll_interval")
	cfg.Reminder.Timezone = v.GetString("reminder.timezone")

	cfg.Telegram.BotToken = v.GetString("telegram.bot_token")
	cfg.Telegram.ChatID = v.GetInt64("telegram.chat_id")
	cfg.Telegram.RatePerSecond = v.GetFloat64("telegram.rate_per_second")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.path", filepath.Join("data", "mealprep.db"))
	v.SetDefault("database.quota_bytes", 5*1024*1024) // browser localStorage budget
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.file", "")
	v.SetDefault("logger.max_size_mb", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age_days", 28)
	v.SetDefault("catalog.path", filepath.Join("data", "plans.yaml"))
	v.SetDefault("analytics.retention_days", 30)
	v.SetDefault("reminder.poll_interval", "60s")
	v.SetDefault("reminder.timezone", "Local")
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", 0)
	v.SetDefault("telegram.rate_per_second", 1.0)
}

// Validate rejects values the application cannot run with.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must be set")
	}
	if c.Database.QuotaBytes < 0 {
		return fmt.Errorf("database.quota_bytes must not be negative, got %d", c.Database.QuotaBytes)
	}
	if c.Analytics.RetentionDays <= 0 {
		return fmt.Errorf("analytics.retention_days must be positive, got %d", c.Analytics.RetentionDays)
	}
	if c.Reminder.PollInterval <= 0 {
		return fmt.Errorf("reminder.poll_interval must be positive, got %s", c.Reminder.PollInterval)
	}
	if c.Telegram.RatePerSecond <= 0 {
		return fmt.Errorf("telegram.rate_per_second must be positive, got %v", c.Telegram.RatePerSecond)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves reminder.timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Reminder.Timezone == "" || c.Reminder.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Reminder.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder.timezone %q: %w", c.Reminder.Timezone, err)
	}
	return loc, nil
}
