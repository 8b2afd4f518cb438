package reminder

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"meal-prep-companion/internal/kvstore"
	"meal-prep-companion/internal/notify"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval = time.Minute

	defaultTag  = "meal-plan"
	defaultIcon = "/icon.svg"
)

var (
	defaultVibrate = []int{200, 100, 200}
	urgentVibrate  = []int{200, 100, 200, 100, 200}
)

// Options tune a single notification.
type Options struct {
	Tag                string
	Renotify           bool
	RequireInteraction bool
	Vibrate            []int
	Actions            []notify.Action
}

// Engine decides when reminders are due and hands them to a notify.Platform.
type Engine struct {
	kv           kvstore.Store
	platform     notify.Platform
	logger       *zap.Logger
	now          func() time.Time
	loc          *time.Location
	pollInterval time.Duration

	mu       sync.Mutex
	settings Settings
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLocation sets the time zone that clock times and weekdays refer to.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithPollInterval sets how often Run checks the scheduled reminders.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.pollInterval = d
		}
	}
}

// NewEngine creates an engine with the persisted settings.
func NewEngine(ctx context.Context, kv kvstore.Store, platform notify.Platform, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		kv:           kv,
		platform:     platform,
		logger:       logger,
		now:          time.Now,
		loc:          time.Local,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.settings = LoadSettings(ctx, kv, logger)
	return e
}

// Settings returns the settings in effect.
func (e *Engine) Settings() Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// SaveSettings validates, persists and applies new settings.
func (e *Engine) SaveSettings(ctx context.Context, s Settings) error {
	if err := SaveSettings(ctx, e.kv, s); err != nil {
		return err
	}
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()
	return nil
}

// ReloadSettings re-reads the persisted settings, picking up changes made by other processes.
func (e *Engine) ReloadSettings(ctx context.Context) {
	s := LoadSettings(ctx, e.kv, e.logger)
	e.mu.Lock()
	e.settings = s
	e.mu.Unlock()
}

// IsQuietHours reports whether t falls in the quiet-hours window. A window
// whose start is after its end spans midnight. Start is inclusive, end exclusive.
func (e *Engine) IsQuietHours(t time.Time) bool {
	s := e.Settings()
	if !s.QuietHoursEnabled {
		return false
	}

	current := t.In(e.loc).Format("15:04")
	start, end := s.QuietHoursStart, s.QuietHoursEnd
	if start > end {
		return current >= start || current < end
	}
	return current >= start && current < end
}

// SendNotification delivers a notification unless the engine is disabled,
// quiet hours are active, or permission is missing. Permission is requested
// once when it is still undecided; a denial is final. The bool reports delivery.
func (e *Engine) SendNotification(ctx context.Context, title, body string, opts Options) (bool, error) {
	if !e.Settings().Enabled {
		return false, nil
	}
	if e.IsQuietHours(e.now()) {
		e.logger.Debug("Notification suppressed due to quiet hours", zap.String("title", title))
		return false, nil
	}
	allowed, err := e.ensurePermission(ctx)
	if err != nil || !allowed {
		return false, err
	}

	n := notify.Notification{
		Title:              title,
		Body:               body,
		Icon:               defaultIcon,
		Badge:              defaultIcon,
		Vibrate:            defaultVibrate,
		Tag:                defaultTag,
		Renotify:           opts.Renotify,
		RequireInteraction: opts.RequireInteraction,
		Actions:            opts.Actions,
	}
	if opts.Tag != "" {
		n.Tag = opts.Tag
	}
	if len(opts.Vibrate) > 0 {
		n.Vibrate = opts.Vibrate
	}
	return e.show(ctx, n)
}

// ensurePermission reports whether delivery is allowed. A request that failed
// without a denial is returned as an error; permission stays undecided and is
// requested again next time.
func (e *Engine) ensurePermission(ctx context.Context) (bool, error) {
	switch e.platform.Permission(ctx) {
	case notify.PermissionGranted:
		return true, nil
	case notify.PermissionDenied:
		return false, nil
	}

	perm, err := e.platform.RequestPermission(ctx)
	if err != nil {
		if perm == notify.PermissionDenied {
			e.logger.Warn("Notification permission denied", zap.Error(err))
			return false, nil
		}
		return false, fmt.Errorf("failed to request notification permission: %w", err)
	}
	return perm == notify.PermissionGranted, nil
}

func (e *Engine) show(ctx context.Context, n notify.Notification) (bool, error) {
	if err := e.platform.Show(ctx, n); err != nil {
		return false, fmt.Errorf("failed to show notification %s: %w", n.Tag, err)
	}
	e.logger.Info("Notification sent", zap.String("tag", n.Tag), zap.String("title", n.Title))
	return true, nil
}

// SendCookingTimer announces the minutes left on a cooking timer. At zero the
// notification vibrates longer and stays until dismissed.
func (e *Engine) SendCookingTimer(ctx context.Context, mealName string, minutesRemaining int) (bool, error) {
	if minutesRemaining < 0 {
		return false, fmt.Errorf("minutes remaining must not be negative, got %d", minutesRemaining)
	}
	if !e.Settings().CookingTimers {
		return false, nil
	}

	var title, body string
	switch minutesRemaining {
	case 0:
		title = "⏰ Timer Complete!"
		body = fmt.Sprintf("%s should be ready now.", mealName)
	case 1:
		title = "⏰ 1 Minute Remaining"
		body = fmt.Sprintf("Your %s has 1 minute left.", mealName)
	default:
		title = fmt.Sprintf("⏰ %d Minutes Remaining", minutesRemaining)
		body = fmt.Sprintf("Your %s has %d minutes left.", mealName, minutesRemaining)
	}

	opts := Options{
		Tag:                "timer-" + mealName,
		RequireInteraction: minutesRemaining == 0,
		Vibrate:            defaultVibrate,
	}
	if minutesRemaining == 0 {
		opts.Vibrate = urgentVibrate
	}
	return e.SendNotification(ctx, title, body, opts)
}

// SendCookingReminder fires when the planned cooking time is exactly the
// configured lead time away, at minute resolution.
func (e *Engine) SendCookingReminder(ctx context.Context, mealName string, cookingTime time.Time) (bool, error) {
	s := e.Settings()
	if !s.MealPrepReminders {
		return false, nil
	}

	minutesUntil := int(math.Floor(cookingTime.Sub(e.now()).Minutes()))
	if minutesUntil != s.ReminderLeadTime {
		return false, nil
	}
	return e.SendNotification(ctx, "🔔 Cooking Reminder",
		fmt.Sprintf("Time to start cooking %s in %d minutes.", mealName, s.ReminderLeadTime),
		Options{Tag: "cooking-reminder"})
}

// TestNotification sends a notification confirming delivery works.
func (e *Engine) TestNotification(ctx context.Context) (bool, error) {
	return e.SendNotification(ctx, "✅ Test Notification",
		"Notifications are working! You'll receive reminders for meal prep and cooking.",
		Options{Tag: "test"})
}

// Permission reports the platform's current permission.
func (e *Engine) Permission(ctx context.Context) notify.Permission {
	return e.platform.Permission(ctx)
}
