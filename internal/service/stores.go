package service

import (
	"context"
	"fmt"
	"time"

	"mathdrill/internal/models"
	"mathdrill/internal/repository"
)

// The interfaces below are the slices of the record store each service needs.
// The repository package satisfies all of them.

type SkillStore interface {
	List(ctx context.Context, opts repository.ListOptions) ([]models.Skill, error)
	ListByGradeBand(ctx context.Context, band models.GradeBand) ([]models.Skill, error)
}

type QuestionStore interface {
	Filter(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error)
}

type AttemptStore interface {
	Create(ctx context.Context, a *models.Attempt) error
	Filter(ctx context.Context, filter models.AttemptFilter) ([]models.Attempt, error)
}

type ReviewStore interface {
	FindByQuestion(ctx context.Context, questionID string) (*models.ReviewItem, error)
	GetByID(ctx context.Context, id string) (*models.ReviewItem, error)
	Create(ctx context.Context, item *models.ReviewItem) error
	Update(ctx context.Context, item *models.ReviewItem) error
	ListDue(ctx context.Context, now time.Time) ([]models.ReviewItem, error)
}

type StatsStore interface {
	Get(ctx context.Context) (*models.UserStats, error)
	Create(ctx context.Context, stats *models.UserStats) error
	Update(ctx context.Context, stats *models.UserStats) error
}

type PrefsStore interface {
	Get(ctx context.Context) (*models.UserPrefs, error)
}

type AchievementStore interface {
	List(ctx context.Context, opts repository.ListOptions) ([]models.Achievement, error)
	FindByName(ctx context.Context, name string) (*models.Achievement, error)
	Create(ctx context.Context, a *models.Achievement) error
}

var (
	_ SkillStore       = (*repository.SkillRepository)(nil)
	_ QuestionStore    = (*repository.QuestionRepository)(nil)
	_ AttemptStore     = (*repository.AttemptRepository)(nil)
	_ ReviewStore      = (*repository.ReviewRepository)(nil)
	_ StatsStore       = (*repository.StatsRepository)(nil)
	_ PrefsStore       = (*repository.PrefsRepository)(nil)
	_ PrefsSaver       = (*repository.PrefsRepository)(nil)
	_ AchievementStore = (*repository.AchievementRepository)(nil)
)

// loadPrefs returns the stored preferences normalized, or the defaults when none are stored
func loadPrefs(ctx context.Context, store PrefsStore, defaultTimezone string) (models.UserPrefs, error) {
	stored, err := store.Get(ctx)
	if err != nil {
		return models.UserPrefs{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	if stored == nil {
		return models.DefaultPrefs(defaultTimezone), nil
	}
	prefs := *stored
	prefs.Normalize(defaultTimezone)
	return prefs, nil
}
