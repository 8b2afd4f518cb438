package reminder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"meal-prep-companion/internal/kvstore"
	"meal-prep-companion/internal/notify"

	"go.uber.org/zap"
)

const (
	weeklyReminderTag = "weekly-meal-prep"
	dailyReminderTag  = "meal-prep-reminder"

	// weeklyWindowMinutes is how far from the prep time a poll may still fire.
	weeklyWindowMinutes = 5

	mobileIcon = "/icon-192.png"
)

// DailyReminder is the mobile meal prep reminder: shown once on the given
// weekday, on the first check at or after Hour.
type DailyReminder struct {
	DayOfWeek int  `json:"dayOfWeek"`
	Hour      int  `json:"hour"`
	Minute    int  `json:"minute"`
	Enabled   bool `json:"enabled"`
}

// CheckWeeklyReminder sends the weekly prep reminder when now is within five
// minutes of the configured prep time on the prep day. Each occurrence fires
// at most once; the occurrence is recorded only after a successful delivery.
func (e *Engine) CheckWeeklyReminder(ctx context.Context, now time.Time) (bool, error) {
	s := e.Settings()
	if !s.MealPrepReminders {
		return false, nil
	}

	local := now.In(e.loc)
	if int(local.Weekday()) != s.WeeklyPrepDay {
		return false, nil
	}
	current := local.Hour()*60 + local.Minute()
	if diff := current - minutesOfDay(s.WeeklyPrepTime); diff <= -weeklyWindowMinutes || diff >= weeklyWindowMinutes {
		return false, nil
	}

	occurrence := local.Format("2006-01-02") + " " + s.WeeklyPrepTime
	markerKey := kvstore.ReminderLastFiredPrefix + weeklyReminderTag
	last, ok, err := e.kv.Get(ctx, markerKey)
	if err != nil {
		return false, fmt.Errorf("failed to read weekly reminder marker: %w", err)
	}
	if ok && string(last) == occurrence {
		return false, nil
	}

	sent, err := e.SendNotification(ctx, "🍳 Meal Prep Time!",
		"It's time to prep your meals for the week. Check your meal plans to get started.",
		Options{Tag: weeklyReminderTag, RequireInteraction: true})
	if err != nil || !sent {
		return false, err
	}

	if err := e.kv.Set(ctx, markerKey, []byte(occurrence)); err != nil {
		return true, fmt.Errorf("failed to record weekly reminder: %w", err)
	}
	return true, nil
}

// ScheduleDailyReminder stores the daily reminder preference.
func (e *Engine) ScheduleDailyReminder(ctx context.Context, dayOfWeek, hour, minute int) error {
	if err := validateDay(dayOfWeek); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if hour < 0 || hour > 23 {
		return fmt.Errorf("%w: hour must be 0-23, got %d", ErrInvalidSettings, hour)
	}
	if minute < 0 || minute > 59 {
		return fmt.Errorf("%w: minute must be 0-59, got %d", ErrInvalidSettings, minute)
	}

	return e.saveDailyReminder(ctx, DailyReminder{DayOfWeek: dayOfWeek, Hour: hour, Minute: minute, Enabled: true})
}

// DisableDailyReminder turns the daily reminder off, keeping its schedule.
func (e *Engine) DisableDailyReminder(ctx context.Context) error {
	r, ok := e.DailyReminder(ctx)
	if !ok || !r.Enabled {
		return nil
	}
	r.Enabled = false
	return e.saveDailyReminder(ctx, r)
}

func (e *Engine) saveDailyReminder(ctx context.Context, r DailyReminder) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal daily reminder: %w", err)
	}
	if err := e.kv.Set(ctx, kvstore.DailyReminderKey, data); err != nil {
		return fmt.Errorf("failed to save daily reminder: %w", err)
	}
	return nil
}

// DailyReminder returns the stored daily reminder, if any.
func (e *Engine) DailyReminder(ctx context.Context) (DailyReminder, bool) {
	data, ok, err := e.kv.Get(ctx, kvstore.DailyReminderKey)
	if err != nil {
		e.logger.Warn("Failed to load daily reminder", zap.Error(err))
		return DailyReminder{}, false
	}
	if !ok {
		return DailyReminder{}, false
	}
	var r DailyReminder
	if err := json.Unmarshal(data, &r); err != nil {
		e.logger.Warn("Discarding unreadable daily reminder", zap.Error(err))
		return DailyReminder{}, false
	}
	return r, true
}

// CheckDailyReminder shows the daily reminder at most once per calendar day.
// It only needs permission; the engine switches and quiet hours do not apply.
// The day is marked as handled unless delivery itself failed.
func (e *Engine) CheckDailyReminder(ctx context.Context, now time.Time) (bool, error) {
	r, ok := e.DailyReminder(ctx)
	if !ok || !r.Enabled {
		return false, nil
	}

	local := now.In(e.loc)
	if last, ok := e.lastReminderShown(ctx); ok && sameDay(last.In(e.loc), local) {
		return false, nil
	}
	if int(local.Weekday()) != r.DayOfWeek || local.Hour() < r.Hour {
		return false, nil
	}

	allowed, err := e.ensurePermission(ctx)
	if err != nil {
		return false, err
	}
	sent := false
	if allowed {
		sent, err = e.show(ctx, notify.Notification{
			Title:   "Time to Meal Prep! 🍳",
			Body:    "Your weekly meal prep reminder. Start cooking to stay on track!",
			Icon:    mobileIcon,
			Badge:   mobileIcon,
			Vibrate: defaultVibrate,
			Tag:     dailyReminderTag,
			Actions: []notify.Action{
				{ID: "start-cooking", Title: "Start Cooking"},
				{ID: "dismiss", Title: "Later"},
			},
		})
		if err != nil {
			return false, err
		}
	} else {
		e.logger.Info("Daily reminder skipped, notification permission denied")
	}

	if err := e.kv.Set(ctx, kvstore.LastReminderShownKey, []byte(now.UTC().Format(time.RFC3339))); err != nil {
		return sent, fmt.Errorf("failed to record daily reminder: %w", err)
	}
	return sent, nil
}

func (e *Engine) lastReminderShown(ctx context.Context) (time.Time, bool) {
	data, ok, err := e.kv.Get(ctx, kvstore.LastReminderShownKey)
	if err != nil || !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, string(data))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Run checks the scheduled reminders immediately and then every poll interval
// until ctx is cancelled. Settings are reloaded on every check.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	e.logger.Info("Reminder engine started", zap.Duration("poll_interval", e.pollInterval))
	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Reminder engine stopped")
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

func (e *Engine) tick(ctx context.Context) {
	e.ReloadSettings(ctx)
	now := e.now()

	if sent, err := e.CheckWeeklyReminder(ctx, now); err != nil {
		e.logger.Error("Weekly reminder check failed", zap.Error(err))
	} else if sent {
		e.logger.Info("Weekly meal prep reminder sent")
	}
	if sent, err := e.CheckDailyReminder(ctx, now); err != nil {
		e.logger.Error("Daily reminder check failed", zap.Error(err))
	} else if sent {
		e.logger.Info("Daily meal prep reminder sent")
	}
}
