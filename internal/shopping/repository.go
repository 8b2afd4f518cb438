package shopping

import (
	"context"
	"encoding/json"
	"fmt"

	"meal-prep-companion/internal/kvstore"

	"go.uber.org/zap"
)

// pageStates maps page id -> item text -> checked.
type pageStates map[string]map[string]bool

// ChecklistStore persists the checked state of shopping list items. All pages
// share a single record.
type ChecklistStore struct {
	kv     kvstore.Store
	logger *zap.Logger
}

// NewChecklistStore creates a checklist store.
func NewChecklistStore(kv kvstore.Store, logger *zap.Logger) *ChecklistStore {
	return &ChecklistStore{kv: kv, logger: logger}
}

func (s *ChecklistStore) readAll(ctx context.Context) (pageStates, error) {
	data, ok, err := s.kv.Get(ctx, kvstore.ShoppingCheckboxesKey)
	if err != nil {
		return nil, err
	}
	all := pageStates{}
	if !ok {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checkbox states: %w", err)
	}
	return all, nil
}

// LoadStates returns the saved states of one page. Read failures yield an empty map.
func (s *ChecklistStore) LoadStates(ctx context.Context, pageID string) map[string]bool {
	all, err := s.readAll(ctx)
	if err != nil {
		s.logger.Warn("Failed to load checkbox states", zap.String("page", pageID), zap.Error(err))
		return map[string]bool{}
	}
	states := all[pageID]
	if states == nil {
		return map[string]bool{}
	}
	return states
}

// SaveState records one item's checked state.
func (s *ChecklistStore) SaveState(ctx context.Context, pageID, itemText string, checked bool) error {
	return s.update(ctx, pageID, func(states map[string]bool) {
		states[itemText] = checked
	})
}

// ClearAll unchecks every saved item of a page. Entries are kept, set to false.
func (s *ChecklistStore) ClearAll(ctx context.Context, pageID string, itemTexts ...string) error {
	return s.update(ctx, pageID, func(states map[string]bool) {
		for text := range states {
			states[text] = false
		}
		for _, text := range itemTexts {
			states[text] = false
		}
	})
}

func (s *ChecklistStore) update(ctx context.Context, pageID string, fn func(map[string]bool)) error {
	all, err := s.readAll(ctx)
	if err != nil {
		// An unreadable record is replaced rather than blocking every later write.
		s.logger.Warn("Replacing unreadable checkbox states", zap.Error(err))
		all = pageStates{}
	}
	if all[pageID] == nil {
		all[pageID] = map[string]bool{}
	}
	fn(all[pageID])

	data, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to marshal checkbox states: %w", err)
	}
	if err := s.kv.Set(ctx, kvstore.ShoppingCheckboxesKey, data); err != nil {
		s.logger.Error("Failed to save checkbox state",
			zap.String("page", pageID),
			zap.Bool("quota_exceeded", kvstore.IsQuotaExceeded(err)),
			zap.Error(err))
		return fmt.Errorf("failed to save checkbox state for %s: %w", pageID, err)
	}
	return nil
}
