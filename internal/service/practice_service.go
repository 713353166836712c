package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"mathdrill/internal/logger"
	"mathdrill/internal/models"
)

// SessionMode selects where a session draws its questions from
type SessionMode string

const (
	ModePractice SessionMode = "practice"
	ModeReview   SessionMode = "review"
)

// SessionSettings are the learner's choices for a new session.
// Zero values mean: all skills of the preferred grade band, medium, the daily goal.
type SessionSettings struct {
	SkillID string
	Level   models.Level
	Target  int
	Mode    SessionMode
}

// PracticeOptions tune session behaviour
type PracticeOptions struct {
	// FeedbackDelay is how long an answer stays on screen before the session
	// advances by itself. Zero disables auto-advance.
	FeedbackDelay   time.Duration
	DefaultTimezone string
	MinTarget       int
	MaxTarget       int
}

// DefaultPracticeOptions returns the stock tuning
func DefaultPracticeOptions() PracticeOptions {
	return PracticeOptions{
		FeedbackDelay:   2 * time.Second,
		DefaultTimezone: "Local",
		MinTarget:       5,
		MaxTarget:       50,
	}
}

// PracticeStores groups the record stores a session touches
type PracticeStores struct {
	Skills    SkillStore
	Questions QuestionStore
	Attempts  AttemptStore
	Stats     StatsStore
	Prefs     PrefsStore
}

// PracticeService starts practice sessions
type PracticeService struct {
	stores       PracticeStores
	reviews      *ReviewService
	achievements *AchievementService
	publisher    Publisher
	opts         PracticeOptions
	log          *logger.Logger
	now          func() time.Time
	shuffle      func(n int, swap func(i, j int))
	pick         func(n int) int
}

// NewPracticeService creates a new practice service. publisher may be nil.
func NewPracticeService(stores PracticeStores, reviews *ReviewService, achievements *AchievementService,
	publisher Publisher, opts PracticeOptions, log *logger.Logger) *PracticeService {
	if opts.MinTarget < 1 {
		opts.MinTarget = 1
	}
	if opts.MaxTarget < opts.MinTarget {
		opts.MaxTarget = opts.MinTarget
	}
	return &PracticeService{
		stores:       stores,
		reviews:      reviews,
		achievements: achievements,
		publisher:    publisher,
		opts:         opts,
		log:          log.With("component", "PracticeService"),
		now:          time.Now,
		shuffle:      rand.Shuffle,
		pick:         rand.Intn,
	}
}

// Prefs returns the learner preferences, or the defaults when none are stored
func (s *PracticeService) Prefs(ctx context.Context) (models.UserPrefs, error) {
	return loadPrefs(ctx, s.stores.Prefs, s.opts.DefaultTimezone)
}

// Start builds a question pool and opens a session over it.
// The session always begins at medium whatever level the pool was drawn at.
func (s *PracticeService) Start(ctx context.Context, settings SessionSettings) (*PracticeSession, error) {
	if settings.Mode == "" {
		settings.Mode = ModePractice
	}
	if settings.Mode != ModePractice && settings.Mode != ModeReview {
		return nil, &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", settings.Mode)}
	}
	level, err := models.ParseLevel(string(settings.Level))
	if err != nil {
		return nil, &ValidationError{Field: "level", Message: err.Error()}
	}
	settings.Level = level

	prefs, err := s.Prefs(ctx)
	if err != nil {
		return nil, err
	}
	settings.Target = s.clampTarget(settings.Target, prefs.DailyGoal)

	var (
		pool     []models.Question
		scope    []string
		reviewOf map[string]string
	)
	if settings.Mode == ModeReview {
		pool, reviewOf, err = s.reviewPool(ctx)
	} else {
		scope, err = s.skillScope(ctx, settings.SkillID, prefs.GradeBand)
		if err == nil {
			pool, err = s.stores.Questions.Filter(ctx, models.QuestionFilter{SkillIDs: scope, Level: settings.Level})
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build question pool: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}

	s.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > settings.Target {
		pool = pool[:settings.Target]
	}

	session := newPracticeSession(s, settings, prefs, pool, scope, reviewOf)
	s.log.Info("Practice session started",
		"session", session.id, "mode", settings.Mode, "skill", settings.SkillID,
		"level", settings.Level, "questions", len(pool))
	return session, nil
}

func (s *PracticeService) clampTarget(target, dailyGoal int) int {
	if target <= 0 {
		target = dailyGoal
	}
	if target < s.opts.MinTarget {
		return s.opts.MinTarget
	}
	if target > s.opts.MaxTarget {
		return s.opts.MaxTarget
	}
	return target
}

// skillScope returns the skill ids a session may draw from
func (s *PracticeService) skillScope(ctx context.Context, skillID string, band models.GradeBand) ([]string, error) {
	if skillID != "" {
		return []string{skillID}, nil
	}
	skills, err := s.stores.Skills.ListByGradeBand(ctx, band)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(skills))
	for _, sk := range skills {
		ids = append(ids, sk.ID)
	}
	return ids, nil
}

// reviewPool returns the questions behind due review items, keyed back to their item ids
func (s *PracticeService) reviewPool(ctx context.Context) ([]models.Question, map[string]string, error) {
	if s.reviews == nil {
		return nil, nil, nil
	}
	due, err := s.reviews.DueItems(ctx, s.now())
	if err != nil {
		return nil, nil, err
	}
	if len(due) == 0 {
		return nil, nil, nil
	}
	reviewOf := make(map[string]string, len(due))
	ids := make([]string, 0, len(due))
	for _, item := range due {
		reviewOf[item.QuestionID] = item.ID
		ids = append(ids, item.QuestionID)
	}
	pool, err := s.stores.Questions.Filter(ctx, models.QuestionFilter{IDs: ids})
	if err != nil {
		return nil, nil, err
	}
	return pool, reviewOf, nil
}

func newSessionID() string {
	return "session-" + uuid.NewString()
}
