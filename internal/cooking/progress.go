package cooking

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"meal-prep-companion/internal/kvstore"

	"go.uber.org/zap"
)

// Progress is the saved cooking-mode state of one meal plan.
type Progress struct {
	CurrentStep     int       `json:"currentStep"`
	StepCompletions []bool    `json:"stepCompletions"`
	ElapsedSeconds  int       `json:"elapsedSeconds"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

// ProgressInput is what callers hand to Save. Missing fields are normalized to zero values.
type ProgressInput struct {
	CurrentStep     int
	StepCompletions []bool
	ElapsedSeconds  int
}

// Store persists cooking progress, one record per meal plan.
type Store struct {
	kv     kvstore.Store
	logger *zap.Logger
	now    func() time.Time
}

// NewStore creates a progress store.
func NewStore(kv kvstore.Store, logger *zap.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger,
		now:    time.Now,
	}
}

// ProgressKey returns the storage key of a plan. A trailing ".html" is ignored so
// page names and plan ids share a record.
func ProgressKey(planID string) string {
	return kvstore.CookingProgressPrefix + strings.Replace(planID, ".html", "", 1)
}

// Save overwrites the stored progress of planID.
// The currentStep is not checked against the number of steps.
func (s *Store) Save(ctx context.Context, planID string, in ProgressInput) error {
	completions := in.StepCompletions
	if completions == nil {
		completions = []bool{}
	}
	p := Progress{
		CurrentStep:     max(in.CurrentStep, 0),
		StepCompletions: completions,
		ElapsedSeconds:  max(in.ElapsedSeconds, 0),
		LastUpdated:     s.now(),
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal cooking progress: %w", err)
	}

	if err := s.kv.Set(ctx, ProgressKey(planID), data); err != nil {
		s.logger.Error("Failed to save cooking progress",
			zap.String("plan", planID),
			zap.Bool("quota_exceeded", kvstore.IsQuotaExceeded(err)),
			zap.Error(err))
		return fmt.Errorf("failed to save cooking progress for %s: %w", planID, err)
	}
	return nil
}

// Load returns the stored progress of planID, or a fresh record with totalSteps
// incomplete steps when nothing readable is stored. Stored completions are
// returned as saved even if totalSteps has changed since.
func (s *Store) Load(ctx context.Context, planID string, totalSteps int) Progress {
	data, ok, err := s.kv.Get(ctx, ProgressKey(planID))
	if err != nil {
		s.logger.Warn("Failed to load cooking progress", zap.String("plan", planID), zap.Error(err))
		return defaultProgress(totalSteps)
	}
	if !ok {
		return defaultProgress(totalSteps)
	}

	var p Progress
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Warn("Discarding unreadable cooking progress", zap.String("plan", planID), zap.Error(err))
		return defaultProgress(totalSteps)
	}
	if p.StepCompletions == nil {
		p.StepCompletions = make([]bool, max(totalSteps, 0))
	}
	p.CurrentStep = max(p.CurrentStep, 0)
	p.ElapsedSeconds = max(p.ElapsedSeconds, 0)
	return p
}

func defaultProgress(totalSteps int) Progress {
	return Progress{StepCompletions: make([]bool, max(totalSteps, 0))}
}

// Clear removes the progress of one plan.
func (s *Store) Clear(ctx context.Context, planID string) error {
	if err := s.kv.Remove(ctx, ProgressKey(planID)); err != nil {
		return fmt.Errorf("failed to clear cooking progress for %s: %w", planID, err)
	}
	return nil
}

// ClearAll removes every progress record.
func (s *Store) ClearAll(ctx context.Context) error {
	keys, err := s.kv.Keys(ctx, kvstore.CookingProgressPrefix)
	if err != nil {
		return fmt.Errorf("failed to list cooking progress: %w", err)
	}
	for _, key := range keys {
		if err := s.kv.Remove(ctx, key); err != nil {
			return fmt.Errorf("failed to clear cooking progress: %w", err)
		}
	}
	return nil
}

// All returns every readable progress record keyed by plan id.
func (s *Store) All(ctx context.Context) (map[string]Progress, error) {
	keys, err := s.kv.Keys(ctx, kvstore.CookingProgressPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list cooking progress: %w", err)
	}

	all := make(map[string]Progress, len(keys))
	for _, key := range keys {
		planID, _ := kvstore.TrimPrefix(key, kvstore.CookingProgressPrefix)
		data, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read cooking progress for %s: %w", planID, err)
		}
		if !ok {
			continue
		}
		var p Progress
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn("Skipping unreadable cooking progress", zap.String("plan", planID), zap.Error(err))
			continue
		}
		all[planID] = p
	}
	return all, nil
}

// ProgressPercentage returns the rounded share of completed steps, 0 for no steps.
func ProgressPercentage(stepCompletions []bool) int {
	if len(stepCompletions) == 0 {
		return 0
	}
	done := 0
	for _, c := range stepCompletions {
		if c {
			done++
		}
	}
	return int(math.Round(float64(done) / float64(len(stepCompletions)) * 100))
}

// FormatElapsed renders seconds as MM:SS, or HH:MM:SS from one hour on.
func FormatElapsed(seconds int) string {
	seconds = max(seconds, 0)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	sec := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}
