package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"meal-prep-companion/internal/catalog"
	"meal-prep-companion/internal/kvstore"

	"go.uber.org/zap"
)

const (
	DefaultRetentionDays = 30
	DefaultHistoryLimit  = 30
	DefaultNutritionDays = 7

	ratingMatchWindow = time.Hour
	dateLayout        = "2006-01-02"
)

// PlanCatalog resolves a plan by its display title.
type PlanCatalog interface {
	Lookup(title string) (catalog.Plan, bool)
}

// HistoryEntry is one completed cooking session with its matching rating.
type HistoryEntry struct {
	PlanName       string `json:"mealName"`
	Date           string `json:"date"`
	ElapsedSeconds int    `json:"elapsedTime"`
	Rating         *int   `json:"rating"`
}

// NutritionDay sums the nutrition of the meals completed on one day.
type NutritionDay struct {
	Date     string   `json:"date"`
	Meals    []string `json:"meals"`
	Protein  float64  `json:"totalProtein"`
	Calories float64  `json:"totalCalories"`
	Carbs    float64  `json:"totalCarbs"`
	Fats     float64  `json:"totalFats"`
}

// Summary is the dashboard view of the event log.
type Summary struct {
	TotalViews               int     `json:"totalViews"`
	TotalCookingSessions     int     `json:"totalCookingSessions"`
	CompletedCookingSessions int     `json:"completedCookingSessions"`
	CurrentStreak            int     `json:"currentStreak"`
	MealsThisWeek            int     `json:"mealsThisWeek"`
	AverageRating            float64 `json:"averageRating"`
	ShoppingListsChecked     int     `json:"shoppingListsChecked"`
}

// Tracker records usage events and derives statistics from them.
// The whole log is kept in memory and rewritten on every event.
type Tracker struct {
	mu            sync.Mutex
	kv            kvstore.Store
	catalog       PlanCatalog
	logger        *zap.Logger
	now           func() time.Time
	loc           *time.Location
	retentionDays int
	events        EventLog
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		t.now = now
	}
}

// WithRetentionDays sets how many days of events survive a prune.
func WithRetentionDays(days int) Option {
	return func(t *Tracker) {
		if days > 0 {
			t.retentionDays = days
		}
	}
}

// WithLocation sets the time zone used for the cooking streak.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// NewTracker loads the persisted log. An unreadable log starts empty.
// cat may be nil, in which case the nutrition log has no totals.
func NewTracker(ctx context.Context, kv kvstore.Store, cat PlanCatalog, logger *zap.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		kv:            kv,
		catalog:       cat,
		logger:        logger,
		now:           time.Now,
		loc:           time.Local,
		retentionDays: DefaultRetentionDays,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.events = t.load(ctx)
	return t
}

// Reload replaces the in-memory log with the persisted one, picking up events
// recorded by other processes.
func (t *Tracker) Reload(ctx context.Context) {
	events := t.load(ctx)
	t.mu.Lock()
	t.events = events
	t.mu.Unlock()
}

func (t *Tracker) load(ctx context.Context) EventLog {
	data, ok, err := t.kv.Get(ctx, kvstore.AnalyticsEventsKey)
	if err != nil {
		t.logger.Warn("Failed to load analytics events", zap.Error(err))
		return emptyLog()
	}
	if !ok {
		return emptyLog()
	}

	var log EventLog
	if err := json.Unmarshal(data, &log); err != nil {
		t.logger.Warn("Discarding unreadable analytics events", zap.Error(err))
		return emptyLog()
	}
	// Sequences missing from the record start empty.
	if log.MealPlanViews == nil {
		log.MealPlanViews = []MealPlanView{}
	}
	if log.CookingSessions == nil {
		log.CookingSessions = []CookingSession{}
	}
	if log.ShoppingActivity == nil {
		log.ShoppingActivity = []ShoppingActivity{}
	}
	if log.MealRatings == nil {
		log.MealRatings = []MealRating{}
	}
	return log
}

// persistLocked writes the log. On a quota failure the log is pruned to the
// retention window and the write is retried once. Failures are logged, never returned.
func (t *Tracker) persistLocked(ctx context.Context) {
	err := t.writeLocked(ctx)
	if err == nil {
		return
	}
	if !kvstore.IsQuotaExceeded(err) {
		t.logger.Error("Failed to save analytics events", zap.Error(err))
		return
	}

	t.logger.Warn("Analytics storage full, pruning old events", zap.Int("retention_days", t.retentionDays))
	t.events.prune(t.now().Add(-time.Duration(t.retentionDays) * 24 * time.Hour))
	if err := t.writeLocked(ctx); err != nil {
		t.logger.Error("Failed to save analytics events after pruning", zap.Error(err))
	}
}

func (t *Tracker) writeLocked(ctx context.Context) error {
	data, err := json.Marshal(t.events)
	if err != nil {
		return fmt.Errorf("failed to marshal analytics events: %w", err)
	}
	return t.kv.Set(ctx, kvstore.AnalyticsEventsKey, data)
}

// RecordView records a visit of a plan page.
func (t *Tracker) RecordView(ctx context.Context, planName string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events.MealPlanViews = append(t.events.MealPlanViews, MealPlanView{
		PlanName:  planName,
		Timestamp: t.now(),
	})
	t.persistLocked(ctx)
}

// RecordShoppingActivity records how much of a shopping list is checked.
func (t *Tracker) RecordShoppingActivity(ctx context.Context, planName string, itemsChecked, totalItems int) {
	percent := 0
	if totalItems > 0 {
		percent = int(math.Round(float64(itemsChecked) / float64(totalItems) * 100))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events.ShoppingActivity = append(t.events.ShoppingActivity, ShoppingActivity{
		PlanName:          planName,
		Timestamp:         t.now(),
		ItemsChecked:      itemsChecked,
		TotalItems:        totalItems,
		CompletionPercent: percent,
	})
	t.persistLocked(ctx)
}

// RecordRating records a 1..5 rating of a plan.
func (t *Tracker) RecordRating(ctx context.Context, planName string, rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got %d", rating)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.events.MealRatings = append(t.events.MealRatings, MealRating{
		PlanName:  planName,
		Rating:    rating,
		Timestamp: t.now(),
	})
	t.persistLocked(ctx)
	return nil
}

// StartCookingSession opens a session and returns its id.
func (t *Tracker) StartCookingSession(ctx context.Context, planName string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	id := planName + "-" + strconv.FormatInt(now.UnixMilli(), 10)
	t.events.CookingSessions = append(t.events.CookingSessions, CookingSession{
		SessionID: id,
		PlanName:  planName,
		StartTime: now,
	})
	t.persistLocked(ctx)
	return id
}

// CompleteCookingSession closes the session with sessionID. Unknown ids are ignored.
func (t *Tracker) CompleteCookingSession(ctx context.Context, sessionID string, elapsedSeconds int, completed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := range t.events.CookingSessions {
		s := &t.events.CookingSessions[i]
		if s.SessionID != sessionID {
			continue
		}
		end := t.now()
		s.EndTime = &end
		s.ElapsedSeconds = max(elapsedSeconds, 0)
		s.Completed = completed
		t.persistLocked(ctx)
		return
	}
	t.logger.Debug("Ignoring completion of unknown cooking session", zap.String("session_id", sessionID))
}

// CookingStreak counts consecutive calendar days with a completed session,
// walking back from today. A streak whose latest day is yesterday still counts.
func (t *Tracker) CookingStreak() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.streakLocked()
}

func (t *Tracker) streakLocked() int {
	seen := make(map[time.Time]bool)
	var days []time.Time
	for _, s := range t.events.CookingSessions {
		if !s.IsCompleted() {
			continue
		}
		d := calendarDay(*s.EndTime, t.loc)
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	streak := 0
	expected := calendarDay(t.now(), t.loc)
	for _, d := range days {
		diff := int(math.Floor(expected.Sub(d).Hours() / 24))
		if diff != 0 && diff != 1 {
			break
		}
		streak++
		expected = d
	}
	return streak
}

// calendarDay maps an instant to midnight UTC of its date in loc, so that day
// arithmetic is free of DST shifts.
func calendarDay(ts time.Time, loc *time.Location) time.Time {
	y, m, d := ts.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MealsCookedInWindow counts sessions completed within the last days.
func (t *Tracker) MealsCookedInWindow(days int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mealsInWindowLocked(days)
}

func (t *Tracker) mealsInWindowLocked(days int) int {
	cutoff := t.now().Add(-time.Duration(days) * 24 * time.Hour)
	count := 0
	for _, s := range t.events.CookingSessions {
		if s.IsCompleted() && !s.EndTime.Before(cutoff) {
			count++
		}
	}
	return count
}

// AverageRating returns the mean rating rounded to one decimal, 0 without ratings.
func (t *Tracker) AverageRating() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.averageRatingLocked()
}

func (t *Tracker) averageRatingLocked() float64 {
	if len(t.events.MealRatings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range t.events.MealRatings {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(t.events.MealRatings))
	return math.Round(avg*10) / 10
}

// completedByEndDesc returns completed sessions, most recently finished first.
func (t *Tracker) completedByEndDesc() []CookingSession {
	var out []CookingSession
	for _, s := range t.events.CookingSessions {
		if s.IsCompleted() {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EndTime.After(*out[j].EndTime) })
	return out
}

// History lists up to limit completed sessions, newest first. A rating is
// attached when one for the same plan was given within an hour of completion.
// A non-positive limit returns every session.
func (t *Tracker) History(limit int) []HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	sessions := t.completedByEndDesc()
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}

	history := make([]HistoryEntry, 0, len(sessions))
	for _, s := range sessions {
		entry := HistoryEntry{
			PlanName:       s.PlanName,
			Date:           s.EndTime.UTC().Format(dateLayout),
			ElapsedSeconds: s.ElapsedSeconds,
		}
		for _, r := range t.events.MealRatings {
			if r.PlanName != s.PlanName {
				continue
			}
			if d := r.Timestamp.Sub(*s.EndTime); d > -ratingMatchWindow && d < ratingMatchWindow {
				rating := r.Rating
				entry.Rating = &rating
				break
			}
		}
		history = append(history, entry)
	}
	return history
}

// NutritionLog sums catalog nutrition per day for sessions completed in the
// last days, newest day first. Meals whose plan is unknown or has no nutrition
// data still create their day but add nothing to it.
func (t *Tracker) NutritionLog(days int) []NutritionDay {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-time.Duration(days) * 24 * time.Hour)
	byDate := make(map[string]*NutritionDay)
	var order []string
	for _, s := range t.completedByEndDesc() {
		if s.EndTime.Before(cutoff) {
			continue
		}
		date := s.EndTime.UTC().Format(dateLayout)
		day, ok := byDate[date]
		if !ok {
			day = &NutritionDay{Date: date, Meals: []string{}}
			byDate[date] = day
			order = append(order, date)
		}
		if t.catalog == nil {
			continue
		}
		plan, found := t.catalog.Lookup(s.PlanName)
		if !found || plan.Nutrition == nil {
			continue
		}
		day.Meals = append(day.Meals, s.PlanName)
		day.Protein += plan.Nutrition.Protein
		day.Calories += plan.Nutrition.Calories
		day.Carbs += plan.Nutrition.Carbs
		day.Fats += plan.Nutrition.Fats
	}

	sort.Sort(sort.Reverse(sort.StringSlice(order)))
	out := make([]NutritionDay, 0, len(order))
	for _, date := range order {
		out = append(out, *byDate[date])
	}
	return out
}

// Summary aggregates the whole log.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	completed := 0
	for _, s := range t.events.CookingSessions {
		if s.Completed {
			completed++
		}
	}
	return Summary{
		TotalViews:               len(t.events.MealPlanViews),
		TotalCookingSessions:     len(t.events.CookingSessions),
		CompletedCookingSessions: completed,
		CurrentStreak:            t.streakLocked(),
		MealsThisWeek:            t.mealsInWindowLocked(7),
		AverageRating:            t.averageRatingLocked(),
		ShoppingListsChecked:     len(t.events.ShoppingActivity),
	}
}

// Events returns a copy of the whole log.
func (t *Tracker) Events() EventLog {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.events.clone()
}

// ClearAll resets every sequence to empty and persists the empty log.
func (t *Tracker) ClearAll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.events = emptyLog()
	if err := t.writeLocked(ctx); err != nil {
		return fmt.Errorf("failed to clear analytics events: %w", err)
	}
	return nil
}
