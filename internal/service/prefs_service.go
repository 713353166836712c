package service

import (
	"context"
	"errors"

	"mathdrill/internal/models"
	"mathdrill/internal/validation"
)

// PrefsSaver persists the preferences singleton
type PrefsSaver interface {
	PrefsStore
	Save(ctx context.Context, prefs *models.UserPrefs) error
}

// PrefsService reads and updates learner settings
type PrefsService struct {
	store    PrefsSaver
	timezone string
}

// NewPrefsService creates a new prefs service
func NewPrefsService(store PrefsSaver, defaultTimezone string) *PrefsService {
	return &PrefsService{store: store, timezone: defaultTimezone}
}

// Get returns the stored preferences or the defaults
func (s *PrefsService) Get(ctx context.Context) (models.UserPrefs, error) {
	return loadPrefs(ctx, s.store, s.timezone)
}

// Update validates and stores new preferences
func (s *PrefsService) Update(ctx context.Context, prefs models.UserPrefs) (models.UserPrefs, error) {
	checks := []error{
		validation.ValidateGradeBand(string(prefs.GradeBand)),
		validation.ValidateDailyGoal(prefs.DailyGoal),
		validation.ValidateTimezone(prefs.Timezone),
		validation.ValidateTheme(prefs.Theme),
	}
	for _, err := range checks {
		var verr validation.ValidationError
		if errors.As(err, &verr) {
			return models.UserPrefs{}, &ValidationError{Field: verr.Field, Message: verr.Message}
		}
	}

	prefs.Normalize(s.timezone)
	if err := s.store.Save(ctx, &prefs); err != nil {
		return models.UserPrefs{}, &PersistenceError{Op: "save preferences", Err: err}
	}
	return prefs, nil
}
