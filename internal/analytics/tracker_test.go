package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"meal-prep-companion/internal/catalog"
	"meal-prep-companion/internal/database"
	"meal-prep-companion/internal/kvstore"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

func (c *clock) Set(t time.Time) { c.now = t }

func newKV(t *testing.T) *kvstore.SQLStore {
	t.Helper()
	db, err := database.NewDB(database.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return kvstore.NewSQLStore(db.SQL)
}

func newTestTracker(t *testing.T, kv kvstore.Store, c *clock, cat PlanCatalog) *Tracker {
	t.Helper()
	return NewTracker(context.Background(), kv, cat, zap.NewNop(),
		WithClock(c.Now), WithLocation(time.UTC))
}

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Plan{
		{File: "week1-meals.html", Title: "Week 1 Meals", Nutrition: &catalog.Nutrition{Protein: 45, Calories: 550, Carbs: 50, Fats: 15}},
		{File: "week2-meals.html", Title: "Week 2 Meals", Nutrition: &catalog.Nutrition{Protein: 40, Calories: 600, Carbs: 60, Fats: 20}},
		{File: "week1-breakfast.html", Title: "Week 1 Breakfasts"},
	})
}

// cookOn records a session that completes at end.
func cookOn(t *testing.T, tr *Tracker, c *clock, plan string, end time.Time) string {
	t.Helper()
	ctx := context.Background()
	c.Set(end.Add(-30 * time.Minute))
	id := tr.StartCookingSession(ctx, plan)
	c.Set(end)
	tr.CompleteCookingSession(ctx, id, 1800, true)
	return id
}

func TestTracker_RecordAndPersist(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	c := &clock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	tr := newTestTracker(t, kv, c, nil)

	tr.RecordView(ctx, "Week 1 Meals")
	tr.RecordShoppingActivity(ctx, "Week 1 Meals", 2, 3)
	tr.RecordShoppingActivity(ctx, "Week 1 Meals", 0, 0)
	require.NoError(t, tr.RecordRating(ctx, "Week 1 Meals", 4))
	id := tr.StartCookingSession(ctx, "Week 1 Meals")

	assert.Equal(t, fmt.Sprintf("Week 1 Meals-%d", c.now.UnixMilli()), id)

	t.Run("ShoppingPercent", func(t *testing.T) {
		events := tr.Events()
		require.Len(t, events.ShoppingActivity, 2)
		assert.Equal(t, 67, events.ShoppingActivity[0].CompletionPercent)
		assert.Equal(t, 0, events.ShoppingActivity[1].CompletionPercent)
	})

	t.Run("OpenSession", func(t *testing.T) {
		events := tr.Events()
		require.Len(t, events.CookingSessions, 1)
		assert.Nil(t, events.CookingSessions[0].EndTime)
		assert.False(t, events.CookingSessions[0].Completed)
	})

	t.Run("ReloadedFromStore", func(t *testing.T) {
		reloaded := newTestTracker(t, kv, c, nil)
		if diff := cmp.Diff(tr.Events(), reloaded.Events()); diff != "" {
			t.Errorf("Reloaded log mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("RatingOutOfRange", func(t *testing.T) {
		assert.Error(t, tr.RecordRating(ctx, "Week 1 Meals", 0))
		assert.Error(t, tr.RecordRating(ctx, "Week 1 Meals", 6))
		assert.Len(t, tr.Events().MealRatings, 1)
	})

	t.Run("CompleteUnknownSession", func(t *testing.T) {
		tr.CompleteCookingSession(ctx, "nope-1", 10, true)
		assert.Nil(t, tr.Events().CookingSessions[0].EndTime)
	})

	t.Run("EventsIsACopy", func(t *testing.T) {
		events := tr.Events()
		events.MealPlanViews[0].PlanName = "changed"
		assert.Equal(t, "Week 1 Meals", tr.Events().MealPlanViews[0].PlanName)
	})
}

func TestTracker_CorruptedLogStartsEmpty(t *testing.T) {
	kv := newKV(t)
	require.NoError(t, kv.Set(context.Background(), kvstore.AnalyticsEventsKey, []byte("not json")))

	tr := newTestTracker(t, kv, &clock{now: time.Now()}, nil)
	events := tr.Events()
	assert.Empty(t, events.MealPlanViews)
	assert.Empty(t, events.CookingSessions)
	assert.Equal(t, 0, tr.Summary().TotalViews)
}

func TestTracker_CookingStreak(t *testing.T) {
	today := time.Date(2026, 10, 18, 15, 0, 0, 0, time.UTC)
	day := func(offset int) time.Time { return today.AddDate(0, 0, -offset) }

	cases := []struct {
		name string
		days []int
		want int
	}{
		{"NoSessions", nil, 0},
		{"TodayOnly", []int{0}, 1},
		{"YesterdayOnly", []int{1}, 1},
		{"ThreeInARow", []int{0, 1, 2}, 3},
		{"TwiceSameDay", []int{0, 0, 1}, 2},
		{"GapBreaksStreak", []int{0, 1, 3, 4}, 2},
		{"StaleStreak", []int{2, 3}, 0},
		{"OrderIndependent", []int{2, 0, 1}, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &clock{}
			tr := newTestTracker(t, newKV(t), c, nil)
			for i, offset := range tc.days {
				cookOn(t, tr, c, "Week 1 Meals", day(offset).Add(-time.Duration(i)*time.Minute))
			}
			c.Set(today)
			assert.Equal(t, tc.want, tr.CookingStreak())
		})
	}

	t.Run("IncompleteSessionsIgnored", func(t *testing.T) {
		ctx := context.Background()
		c := &clock{now: today}
		tr := newTestTracker(t, newKV(t), c, nil)
		id := tr.StartCookingSession(ctx, "Week 1 Meals")
		tr.CompleteCookingSession(ctx, id, 100, false)
		assert.Equal(t, 0, tr.CookingStreak())
	})
}

func TestTracker_StreakUsesLocalDays(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	c := &clock{}
	tr := NewTracker(context.Background(), newKV(t), nil, zap.NewNop(), WithClock(c.Now), WithLocation(loc))

	// 23:30 local on the 17th is already the 18th in UTC.
	cookOn(t, tr, c, "Week 1 Meals", time.Date(2026, 10, 17, 23, 30, 0, 0, loc))
	cookOn(t, tr, c, "Week 1 Meals", time.Date(2026, 10, 18, 9, 0, 0, 0, loc))

	c.Set(time.Date(2026, 10, 18, 20, 0, 0, 0, loc))
	assert.Equal(t, 2, tr.CookingStreak())
}

func TestTracker_MealsCookedInWindow(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	c := &clock{}
	tr := newTestTracker(t, newKV(t), c, nil)

	cookOn(t, tr, c, "Week 1 Meals", now.Add(-time.Hour))
	cookOn(t, tr, c, "Week 1 Meals", now.AddDate(0, 0, -6))
	cookOn(t, tr, c, "Week 1 Meals", now.AddDate(0, 0, -8))

	c.Set(now)
	assert.Equal(t, 2, tr.MealsCookedInWindow(7))
	assert.Equal(t, 3, tr.MealsCookedInWindow(30))
	assert.Equal(t, 1, tr.MealsCookedInWindow(1))
}

func TestTracker_AverageRating(t *testing.T) {
	ctx := context.Background()
	tr := newTestTracker(t, newKV(t), &clock{now: time.Now()}, nil)
	assert.Equal(t, 0.0, tr.AverageRating())

	for _, r := range []int{3, 4, 5} {
		require.NoError(t, tr.RecordRating(ctx, "Week 1 Meals", r))
	}
	assert.Equal(t, 4.0, tr.AverageRating())

	t.Run("RoundsToOneDecimal", func(t *testing.T) {
		tr := newTestTracker(t, newKV(t), &clock{now: time.Now()}, nil)
		for _, r := range []int{5, 4, 4} {
			require.NoError(t, tr.RecordRating(ctx, "Week 1 Meals", r))
		}
		assert.Equal(t, 4.3, tr.AverageRating())
	})
}

func TestTracker_History(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 10, 10, 18, 0, 0, 0, time.UTC)
	c := &clock{}
	tr := newTestTracker(t, newKV(t), c, nil)

	cookOn(t, tr, c, "Week 1 Meals", base)
	c.Set(base.Add(20 * time.Minute))
	require.NoError(t, tr.RecordRating(ctx, "Week 1 Meals", 5))

	cookOn(t, tr, c, "Week 2 Meals", base.AddDate(0, 0, 2))
	c.Set(base.AddDate(0, 0, 2).Add(2 * time.Hour))
	require.NoError(t, tr.RecordRating(ctx, "Week 2 Meals", 3))

	cookOn(t, tr, c, "Week 1 Meals", base.AddDate(0, 0, 1))

	history := tr.History(DefaultHistoryLimit)
	require.Len(t, history, 3)

	t.Run("NewestFirst", func(t *testing.T) {
		assert.Equal(t, "2026-10-12", history[0].Date)
		assert.Equal(t, "2026-10-11", history[1].Date)
		assert.Equal(t, "2026-10-10", history[2].Date)
	})

	t.Run("RatingWithinAnHour", func(t *testing.T) {
		require.NotNil(t, history[2].Rating)
		assert.Equal(t, 5, *history[2].Rating)
		assert.Equal(t, 1800, history[2].ElapsedSeconds)
	})

	t.Run("RatingTooLate", func(t *testing.T) {
		assert.Nil(t, history[0].Rating)
	})

	t.Run("RatingBelongsToOneDay", func(t *testing.T) {
		assert.Nil(t, history[1].Rating, "a rating a day earlier must not match")
	})

	t.Run("Limit", func(t *testing.T) {
		assert.Len(t, tr.History(2), 2)
		assert.Len(t, tr.History(0), 3)
	})
}

func TestTracker_NutritionLog(t *testing.T) {
	now := time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC)
	c := &clock{}
	tr := newTestTracker(t, newKV(t), c, testCatalog())

	cookOn(t, tr, c, "Week 1 Meals", now.Add(-2*time.Hour))
	cookOn(t, tr, c, "Week 2 Meals", now.Add(-time.Hour))
	cookOn(t, tr, c, "Week 1 Breakfasts", now.AddDate(0, 0, -1))
	cookOn(t, tr, c, "Unknown Plan", now.AddDate(0, 0, -2))
	cookOn(t, tr, c, "Week 1 Meals", now.AddDate(0, 0, -9))
	c.Set(now)

	want := []NutritionDay{
		{Date: "2026-10-18", Meals: []string{"Week 2 Meals", "Week 1 Meals"}, Protein: 85, Calories: 1150, Carbs: 110, Fats: 35},
		{Date: "2026-10-17", Meals: []string{}},
		{Date: "2026-10-16", Meals: []string{}},
	}
	if diff := cmp.Diff(want, tr.NutritionLog(DefaultNutritionDays)); diff != "" {
		t.Errorf("NutritionLog mismatch (-want +got):\n%s", diff)
	}

	t.Run("NilCatalog", func(t *testing.T) {
		c := &clock{}
		tr := newTestTracker(t, newKV(t), c, nil)
		cookOn(t, tr, c, "Week 1 Meals", now)
		log := tr.NutritionLog(7)
		require.Len(t, log, 1)
		assert.Empty(t, log[0].Meals)
		assert.Zero(t, log[0].Calories)
	})
}

func TestTracker_Summary(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	c := &clock{now: now}
	tr := newTestTracker(t, newKV(t), c, nil)

	tr.RecordView(ctx, "Week 1 Meals")
	tr.RecordView(ctx, "Week 2 Meals")
	tr.RecordShoppingActivity(ctx, "Week 1 Meals", 1, 4)
	require.NoError(t, tr.RecordRating(ctx, "Week 1 Meals", 5))
	require.NoError(t, tr.RecordRating(ctx, "Week 2 Meals", 2))
	cookOn(t, tr, c, "Week 1 Meals", now.AddDate(0, 0, -1))
	cookOn(t, tr, c, "Week 1 Meals", now)
	tr.StartCookingSession(ctx, "Week 2 Meals")

	want := Summary{
		TotalViews:               2,
		TotalCookingSessions:     3,
		CompletedCookingSessions: 2,
		CurrentStreak:            2,
		MealsThisWeek:            2,
		AverageRating:            3.5,
		ShoppingListsChecked:     1,
	}
	assert.Equal(t, want, tr.Summary())
}

func TestTracker_ClearAll(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	tr := newTestTracker(t, kv, &clock{now: time.Now()}, nil)
	tr.RecordView(ctx, "Week 1 Meals")

	require.NoError(t, tr.ClearAll(ctx))
	assert.Empty(t, tr.Events().MealPlanViews)

	data, ok, err := kv.Get(ctx, kvstore.AnalyticsEventsKey)
	require.NoError(t, err)
	require.True(t, ok, "the empty log is persisted")
	assert.JSONEq(t, `{"mealPlanViews":[],"cookingSessions":[],"shoppingActivity":[],"mealRatings":[]}`, string(data))

	reloaded := newTestTracker(t, kv, &clock{now: time.Now()}, nil)
	assert.Equal(t, Summary{}, reloaded.Summary())
}

func TestTracker_Reload(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	c := &clock{now: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)}
	reader := newTestTracker(t, kv, c, nil)
	writer := newTestTracker(t, kv, c, nil)

	writer.RecordView(ctx, "Week 1 Meals")
	id := writer.StartCookingSession(ctx, "Week 1 Meals")
	writer.CompleteCookingSession(ctx, id, 900, true)

	assert.Equal(t, 0, reader.Summary().TotalViews, "in-memory log is a snapshot")

	reader.Reload(ctx)
	s := reader.Summary()
	assert.Equal(t, 1, s.TotalViews)
	assert.Equal(t, 1, s.CompletedCookingSessions)
}

func TestHistoryAndNutrition_JSONFields(t *testing.T) {
	rating := 4
	data, err := json.Marshal(HistoryEntry{PlanName: "Week 1 Meals", Date: "2026-10-18", ElapsedSeconds: 600, Rating: &rating})
	require.NoError(t, err)
	assert.JSONEq(t, `{"mealName":"Week 1 Meals","date":"2026-10-18","elapsedTime":600,"rating":4}`, string(data))

	data, err = json.Marshal(NutritionDay{Date: "2026-10-18", Meals: []string{"Week 1 Meals"}, Protein: 45, Calories: 550, Carbs: 50, Fats: 15})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2026-10-18","meals":["Week 1 Meals"],"totalProtein":45,"totalCalories":550,"totalCarbs":50,"totalFats":15}`, string(data))
}

// quotaOnce fails the first analytics write with a quota error.
type quotaOnce struct {
	kvstore.Store
	failed bool
	writes int
}

func (q *quotaOnce) Set(ctx context.Context, key string, value []byte) error {
	q.writes++
	if !q.failed {
		q.failed = true
		return fmt.Errorf("failed to write record %s: %w", key, kvstore.ErrQuotaExceeded)
	}
	return q.Store.Set(ctx, key, value)
}

func TestTracker_QuotaPrunesAndRetries(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	kv := newKV(t)

	old := EventLog{
		MealPlanViews:    []MealPlanView{{PlanName: "Old", Timestamp: now.AddDate(0, 0, -40)}, {PlanName: "Recent", Timestamp: now.AddDate(0, 0, -3)}},
		CookingSessions:  []CookingSession{{SessionID: "Old-1", PlanName: "Old", StartTime: now.AddDate(0, 0, -31)}},
		ShoppingActivity: []ShoppingActivity{{PlanName: "Old", Timestamp: now.AddDate(0, 0, -60)}},
		MealRatings:      []MealRating{{PlanName: "Recent", Rating: 4, Timestamp: now.AddDate(0, 0, -1)}},
	}
	data, err := json.Marshal(old)
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, kvstore.AnalyticsEventsKey, data))

	q := &quotaOnce{Store: kv}
	c := &clock{now: now}
	tr := NewTracker(ctx, q, nil, zap.NewNop(), WithClock(c.Now), WithRetentionDays(30))
	tr.RecordView(ctx, "New")

	assert.Equal(t, 2, q.writes, "write must be retried exactly once")

	reloaded := newTestTracker(t, kv, c, nil)
	events := reloaded.Events()
	require.Len(t, events.MealPlanViews, 2)
	assert.Equal(t, "Recent", events.MealPlanViews[0].PlanName)
	assert.Equal(t, "New", events.MealPlanViews[1].PlanName)
	assert.Empty(t, events.CookingSessions)
	assert.Empty(t, events.ShoppingActivity)
	assert.Len(t, events.MealRatings, 1)
}
