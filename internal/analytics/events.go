package analytics

import "time"

// MealPlanView records one visit of a meal plan page.
type MealPlanView struct {
	PlanName  string    `json:"planName"`
	Timestamp time.Time `json:"timestamp"`
}

// CookingSession is one pass through a plan's cooking steps.
// It is open until EndTime is set by CompleteCookingSession.
type CookingSession struct {
	SessionID      string     `json:"sessionId"`
	PlanName       string     `json:"planName"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	Completed      bool       `json:"completed"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
}

// IsCompleted reports whether the session was closed as completed.
func (s CookingSession) IsCompleted() bool {
	return s.Completed && s.EndTime != nil
}

// ShoppingActivity records the state of a shopping list when it was checked.
type ShoppingActivity struct {
	PlanName          string    `json:"planName"`
	Timestamp         time.Time `json:"timestamp"`
	ItemsChecked      int       `json:"itemsChecked"`
	TotalItems        int       `json:"totalItems"`
	CompletionPercent int       `json:"completionPercent"`
}

// MealRating is a 1..5 rating of a cooked plan.
type MealRating struct {
	PlanName  string    `json:"planName"`
	Rating    int       `json:"rating"`
	Timestamp time.Time `json:"timestamp"`
}

// EventLog holds the four append-only event sequences.
type EventLog struct {
	MealPlanViews    []MealPlanView     `json:"mealPlanViews"`
	CookingSessions  []CookingSession   `json:"cookingSessions"`
	ShoppingActivity []ShoppingActivity `json:"shoppingActivity"`
	MealRatings      []MealRating       `json:"mealRatings"`
}

func emptyLog() EventLog {
	return EventLog{
		MealPlanViews:    []MealPlanView{},
		CookingSessions:  []CookingSession{},
		ShoppingActivity: []ShoppingActivity{},
		MealRatings:      []MealRating{},
	}
}

func (l EventLog) clone() EventLog {
	out := EventLog{
		MealPlanViews:    append([]MealPlanView{}, l.MealPlanViews...),
		CookingSessions:  make([]CookingSession, len(l.CookingSessions)),
		ShoppingActivity: append([]ShoppingActivity{}, l.ShoppingActivity...),
		MealRatings:      append([]MealRating{}, l.MealRatings...),
	}
	for i, s := range l.CookingSessions {
		if s.EndTime != nil {
			end := *s.EndTime
			s.EndTime = &end
		}
		out.CookingSessions[i] = s
	}
	return out
}

// prune drops every event at or before cutoff. Sessions are aged by start time.
func (l *EventLog) prune(cutoff time.Time) {
	l.MealPlanViews = filter(l.MealPlanViews, func(e MealPlanView) bool { return e.Timestamp.After(cutoff) })
	l.CookingSessions = filter(l.CookingSessions, func(e CookingSession) bool { return e.StartTime.After(cutoff) })
	l.ShoppingActivity = filter(l.ShoppingActivity, func(e ShoppingActivity) bool { return e.Timestamp.After(cutoff) })
	l.MealRatings = filter(l.MealRatings, func(e MealRating) bool { return e.Timestamp.After(cutoff) })
}

func filter[T any](in []T, keep func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, e := range in {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
