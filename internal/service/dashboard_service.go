package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"mathdrill/internal/models"
	"mathdrill/internal/repository"
)

// HistoryDays is how many calendar days the accuracy history covers
const HistoryDays = 14

// DayAccuracy is one point of the accuracy history
type DayAccuracy struct {
	Day      string `json:"day"`
	Attempts int    `json:"attempts"`
	Accuracy int    `json:"accuracy"`
}

// SkillAccuracy is the lifetime accuracy of a practised skill
type SkillAccuracy struct {
	SkillID  string `json:"skillId"`
	Name     string `json:"name"`
	Attempts int    `json:"attempts"`
	Accuracy int    `json:"accuracy"`
}

// Dashboard is the learner's overview
type Dashboard struct {
	NeedsSetup    bool                 `json:"needsSetup"`
	Prefs         models.UserPrefs     `json:"prefs"`
	Stats         models.UserStats     `json:"stats"`
	Snapshot      StatsSnapshot        `json:"snapshot"`
	DueReviews    int                  `json:"dueReviews"`
	GoalRemaining int                  `json:"goalRemaining"`
	History       []DayAccuracy        `json:"history"`
	Skills        []SkillAccuracy      `json:"skills"`
	Achievements  []models.Achievement `json:"achievements"`
}

// DashboardService assembles the dashboard from the record store
type DashboardService struct {
	skills       SkillStore
	attempts     AttemptStore
	stats        StatsStore
	prefs        PrefsStore
	reviews      *ReviewService
	achievements *AchievementService
	timezone     string
	now          func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(stores PracticeStores, reviews *ReviewService, achievements *AchievementService, defaultTimezone string) *DashboardService {
	return &DashboardService{
		skills:       stores.Skills,
		attempts:     stores.Attempts,
		stats:        stores.Stats,
		prefs:        stores.Prefs,
		reviews:      reviews,
		achievements: achievements,
		timezone:     defaultTimezone,
		now:          time.Now,
	}
}

// Summary loads everything the dashboard shows. The loads run concurrently and
// the first failure cancels the rest.
func (s *DashboardService) Summary(ctx context.Context) (*Dashboard, error) {
	now := s.now()

	var (
		prefs        models.UserPrefs
		stats        *models.UserStats
		skills       []models.Skill
		attempts     []models.Attempt
		due          []models.ReviewItem
		achievements []models.Achievement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prefs, err = loadPrefs(gctx, s.prefs, s.timezone)
		return err
	})
	g.Go(func() error {
		var err error
		if stats, err = s.stats.Get(gctx); err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if skills, err = s.skills.List(gctx, repository.ListOptions{}); err != nil {
			return fmt.Errorf("failed to load skills: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if attempts, err = s.attempts.Filter(gctx, models.AttemptFilter{}); err != nil {
			return fmt.Errorf("failed to load attempts: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		due, err = s.reviews.DueItems(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		if achievements, err = s.achievements.List(gctx); err != nil {
			return fmt.Errorf("failed to load achievements: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &Dashboard{
		NeedsSetup:   len(skills) == 0,
		Prefs:        prefs,
		Snapshot:     Recalc(attempts, prefs, now),
		DueReviews:   len(due),
		History:      accuracyHistory(attempts, Location(prefs.Timezone), now),
		Skills:       skillAccuracy(skills, attempts),
		Achievements: newestFirst(achievements),
	}
	if stats != nil {
		d.Stats = *stats
	}
	if remaining := prefs.DailyGoal - d.Snapshot.AttemptsToday; remaining > 0 {
		d.GoalRemaining = remaining
	}
	return d, nil
}

// accuracyHistory buckets attempts by day for the last HistoryDays days, oldest first
func accuracyHistory(attempts []models.Attempt, loc *time.Location, now time.Time) []DayAccuracy {
	type tally struct{ total, correct int }
	byDay := make(map[string]*tally)
	for _, a := range attempts {
		key := DayKey(a.CreatedAt, loc)
		t, ok := byDay[key]
		if !ok {
			t = &tally{}
			byDay[key] = t
		}
		t.total++
		if a.Correct {
			t.correct++
		}
	}

	today := now.In(loc)
	history := make([]DayAccuracy, 0, HistoryDays)
	for i := HistoryDays - 1; i >= 0; i-- {
		key := today.AddDate(0, 0, -i).Format(dayKeyLayout)
		point := DayAccuracy{Day: key}
		if t, ok := byDay[key]; ok {
			point.Attempts = t.total
			point.Accuracy = Accuracy(t.correct, t.total)
		}
		history = append(history, point)
	}
	return history
}

// skillAccuracy reports skills that have attempts, best accuracy first
func skillAccuracy(skills []models.Skill, attempts []models.Attempt) []SkillAccuracy {
	totals := make(map[string][2]int)
	for _, a := range attempts {
		t := totals[a.SkillID]
		t[0]++
		if a.Correct {
			t[1]++
		}
		totals[a.SkillID] = t
	}

	out := make([]SkillAccuracy, 0, len(totals))
	for _, sk := range skills {
		t, ok := totals[sk.ID]
		if !ok {
			continue
		}
		out = append(out, SkillAccuracy{SkillID: sk.ID, Name: sk.Name, Attempts: t[0], Accuracy: Accuracy(t[1], t[0])})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Accuracy != out[j].Accuracy {
			return out[i].Accuracy > out[j].Accuracy
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func newestFirst(achievements []models.Achievement) []models.Achievement {
	out := append([]models.Achievement(nil), achievements...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UnlockedDate.After(out[j].UnlockedDate)
	})
	return out
}
