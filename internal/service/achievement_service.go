package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mathdrill/internal/database"
	"mathdrill/internal/logger"
	"mathdrill/internal/models"
	"mathdrill/internal/repository"
)

// SessionSignal carries in-session facts that stored stats do not record
type SessionSignal struct {
	ConsecutiveCorrect int
}

// AchievementRule is one unlockable badge and its threshold
type AchievementRule struct {
	ID          string
	Name        string
	Description string
	BadgeIcon   string
	Met         func(stats models.UserStats, signal *SessionSignal) bool
}

var achievementRules = []AchievementRule{
	{
		ID:          "first-100",
		Name:        "First 100",
		Description: "Completed 100 practice questions",
		BadgeIcon:   "Target",
		Met: func(stats models.UserStats, _ *SessionSignal) bool {
			return stats.TotalAnswers >= 100
		},
	},
	{
		ID:          "ten-in-a-row",
		Name:        "10 in a Row",
		Description: "Answered 10 questions correctly in a row",
		BadgeIcon:   "Zap",
		Met: func(_ models.UserStats, signal *SessionSignal) bool {
			return signal != nil && signal.ConsecutiveCorrect >= 10
		},
	},
	{
		ID:          "seven-day-grind",
		Name:        "7-Day Grind",
		Description: "Reached daily goal for 7 consecutive days",
		BadgeIcon:   "Flame",
		Met: func(stats models.UserStats, _ *SessionSignal) bool {
			return stats.CurrentStreak >= 7
		},
	},
}

// AchievementRules returns the known rules in evaluation order
func AchievementRules() []AchievementRule {
	out := make([]AchievementRule, len(achievementRules))
	copy(out, achievementRules)
	return out
}

func findRule(id string) (AchievementRule, bool) {
	for _, r := range achievementRules {
		if r.ID == id {
			return r, true
		}
	}
	return AchievementRule{}, false
}

// Evaluate returns the ids of every rule the stats and optional signal satisfy
func Evaluate(stats models.UserStats, signal *SessionSignal) []string {
	var ids []string
	for _, r := range achievementRules {
		if r.Met(stats, signal) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// AchievementNotifier is told about each newly unlocked achievement
type AchievementNotifier interface {
	AchievementUnlocked(ctx context.Context, a models.Achievement) error
}

// AchievementService unlocks badges at most once each, keyed by display name
type AchievementService struct {
	store     AchievementStore
	publisher Publisher
	log       *logger.Logger
	now       func() time.Time

	mu        sync.Mutex
	notifiers []AchievementNotifier
}

// NewAchievementService creates a new achievement service. publisher may be nil.
func NewAchievementService(store AchievementStore, publisher Publisher, log *logger.Logger) *AchievementService {
	return &AchievementService{
		store:     store,
		publisher: publisher,
		log:       log.With("component", "AchievementService"),
		now:       time.Now,
	}
}

// AddNotifier registers a notifier for future unlocks
func (s *AchievementService) AddNotifier(n AchievementNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifiers = append(s.notifiers, n)
}

// List returns all unlocked achievements
func (s *AchievementService) List(ctx context.Context) ([]models.Achievement, error) {
	return s.store.List(ctx, repository.ListOptions{})
}

// Unlock records the achievement for a rule id. It returns nil without error
// when an achievement with the same name already exists.
func (s *AchievementService) Unlock(ctx context.Context, id string) (*models.Achievement, error) {
	rule, ok := findRule(id)
	if !ok {
		return nil, fmt.Errorf("unknown achievement %q", id)
	}

	existing, err := s.store.FindByName(ctx, rule.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up achievement: %w", err)
	}
	if existing != nil {
		return nil, nil
	}

	a := &models.Achievement{
		Name:         rule.Name,
		Description:  rule.Description,
		BadgeIcon:    rule.BadgeIcon,
		UnlockedDate: s.now(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create achievement: %w", err)
	}

	s.log.Info("Achievement unlocked", "name", a.Name)
	if s.publisher != nil {
		unlocked := *a
		s.publisher.Publish(Event{Type: EventAchievementUnlocked, Achievement: &unlocked, At: a.UnlockedDate})
	}

	s.mu.Lock()
	notifiers := append([]AchievementNotifier(nil), s.notifiers...)
	s.mu.Unlock()
	for _, n := range notifiers {
		if err := n.AchievementUnlocked(ctx, *a); err != nil {
			s.log.Warn("Achievement notifier failed", "name", a.Name, "error", err)
		}
	}
	return a, nil
}

// CheckAndUnlock evaluates every rule and unlocks the ones met.
// It returns the achievements that are new; a failing rule does not stop the others.
func (s *AchievementService) CheckAndUnlock(ctx context.Context, stats models.UserStats, signal *SessionSignal) ([]models.Achievement, error) {
	var unlocked []models.Achievement
	var errs []error
	for _, id := range Evaluate(stats, signal) {
		a, err := s.Unlock(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		if a != nil {
			unlocked = append(unlocked, *a)
		}
	}
	return unlocked, errors.Join(errs...)
}
