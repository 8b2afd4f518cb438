package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-prep-companion/internal/kvstore"

	"go.uber.org/zap"
)

// ErrInvalidSettings is wrapped by every settings validation error.
var ErrInvalidSettings = errors.New("invalid reminder settings")

// Settings configures the reminder engine. Times are zero-padded 24h "HH:MM"
// strings and are compared as strings, which orders them chronologically.
type Settings struct {
	Enabled           bool   `json:"enabled"`
	MealPrepReminders bool   `json:"mealPrepReminders"`
	CookingTimers     bool   `json:"cookingTimers"`
	WeeklyPrepDay     int    `json:"weeklyPrepDay"` // 0 is Sunday
	WeeklyPrepTime    string `json:"weeklyPrepTime"`
	QuietHoursEnabled bool   `json:"quietHoursEnabled"`
	QuietHoursStart   string `json:"quietHoursStart"`
	QuietHoursEnd     string `json:"quietHoursEnd"`
	// ReminderLeadTime is how many minutes before a planned cooking time the
	// cooking reminder fires.
	ReminderLeadTime int `json:"reminderLeadTime"`
}

// DefaultSettings returns the settings used for anything not persisted.
func DefaultSettings() Settings {
	return Settings{
		Enabled:           true,
		MealPrepReminders: true,
		CookingTimers:     true,
		WeeklyPrepDay:     int(time.Sunday),
		WeeklyPrepTime:    "10:00",
		QuietHoursEnabled: false,
		QuietHoursStart:   "22:00",
		QuietHoursEnd:     "08:00",
		ReminderLeadTime:  60,
	}
}

// Validate checks every field.
func (s Settings) Validate() error {
	if err := validateDay(s.WeeklyPrepDay); err != nil {
		return fmt.Errorf("%w: weeklyPrepDay: %v", ErrInvalidSettings, err)
	}
	if err := validateClock(s.WeeklyPrepTime); err != nil {
		return fmt.Errorf("%w: weeklyPrepTime: %v", ErrInvalidSettings, err)
	}
	if err := validateClock(s.QuietHoursStart); err != nil {
		return fmt.Errorf("%w: quietHoursStart: %v", ErrInvalidSettings, err)
	}
	if err := validateClock(s.QuietHoursEnd); err != nil {
		return fmt.Errorf("%w: quietHoursEnd: %v", ErrInvalidSettings, err)
	}
	if s.ReminderLeadTime < 0 {
		return fmt.Errorf("%w: reminderLeadTime must not be negative, got %d", ErrInvalidSettings, s.ReminderLeadTime)
	}
	return nil
}

func validateDay(day int) error {
	if day < 0 || day > 6 {
		return fmt.Errorf("day of week must be 0-6, got %d", day)
	}
	return nil
}

func validateClock(hhmm string) error {
	if len(hhmm) != 5 {
		return fmt.Errorf("time must be HH:MM, got %q", hhmm)
	}
	if _, err := time.Parse("15:04", hhmm); err != nil {
		return fmt.Errorf("time must be HH:MM, got %q", hhmm)
	}
	return nil
}

// minutesOfDay converts a validated "HH:MM" to minutes past midnight.
func minutesOfDay(hhmm string) int {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0
	}
	return t.Hour()*60 + t.Minute()
}

// LoadSettings reads the persisted settings. Each field is decoded on its own:
// a field with the wrong type or an invalid value keeps its default.
func LoadSettings(ctx context.Context, kv kvstore.Store, logger *zap.Logger) Settings {
	s := DefaultSettings()

	data, ok, err := kv.Get(ctx, kvstore.ReminderSettingsKey)
	if err != nil {
		logger.Warn("Failed to load reminder settings", zap.Error(err))
		return s
	}
	if !ok {
		return s
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("Discarding unreadable reminder settings", zap.Error(err))
		return s
	}

	decodeBool(raw, "enabled", &s.Enabled, logger)
	decodeBool(raw, "mealPrepReminders", &s.MealPrepReminders, logger)
	decodeBool(raw, "cookingTimers", &s.CookingTimers, logger)
	decodeBool(raw, "quietHoursEnabled", &s.QuietHoursEnabled, logger)
	decodeInt(raw, "weeklyPrepDay", &s.WeeklyPrepDay, validateDay, logger)
	decodeInt(raw, "reminderLeadTime", &s.ReminderLeadTime, func(v int) error {
		if v < 0 {
			return fmt.Errorf("must not be negative, got %d", v)
		}
		return nil
	}, logger)
	decodeClock(raw, "weeklyPrepTime", &s.WeeklyPrepTime, logger)
	decodeClock(raw, "quietHoursStart", &s.QuietHoursStart, logger)
	decodeClock(raw, "quietHoursEnd", &s.QuietHoursEnd, logger)
	return s
}

func decodeBool(raw map[string]json.RawMessage, field string, dst *bool, logger *zap.Logger) {
	msg, ok := raw[field]
	if !ok {
		return
	}
	var v bool
	if err := json.Unmarshal(msg, &v); err != nil {
		logger.Warn("Ignoring reminder setting", zap.String("field", field), zap.Error(err))
		return
	}
	*dst = v
}

func decodeInt(raw map[string]json.RawMessage, field string, dst *int, validate func(int) error, logger *zap.Logger) {
	msg, ok := raw[field]
	if !ok {
		return
	}
	var v int
	if err := json.Unmarshal(msg, &v); err != nil {
		logger.Warn("Ignoring reminder setting", zap.String("field", field), zap.Error(err))
		return
	}
	if err := validate(v); err != nil {
		logger.Warn("Ignoring reminder setting", zap.String("field", field), zap.Error(err))
		return
	}
	*dst = v
}

func decodeClock(raw map[string]json.RawMessage, field string, dst *string, logger *zap.Logger) {
	msg, ok := raw[field]
	if !ok {
		return
	}
	var v string
	if err := json.Unmarshal(msg, &v); err != nil {
		logger.Warn("Ignoring reminder setting", zap.String("field", field), zap.Error(err))
		return
	}
	if err := validateClock(v); err != nil {
		logger.Warn("Ignoring reminder setting", zap.String("field", field), zap.Error(err))
		return
	}
	*dst = v
}

// SaveSettings validates and persists settings.
func SaveSettings(ctx context.Context, kv kvstore.Store, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal reminder settings: %w", err)
	}
	if err := kv.Set(ctx, kvstore.ReminderSettingsKey, data); err != nil {
		return fmt.Errorf("failed to save reminder settings: %w", err)
	}
	return nil
}
