package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"mathdrill/internal/database"
	"mathdrill/internal/logger"
	"mathdrill/internal/models"
	"mathdrill/internal/repository"
)

var errStore = errors.New("store unavailable")

type fakeSkillStore struct {
	skills []models.Skill
}

func (f *fakeSkillStore) List(_ context.Context, _ repository.ListOptions) ([]models.Skill, error) {
	return append([]models.Skill(nil), f.skills...), nil
}

func (f *fakeSkillStore) ListByGradeBand(_ context.Context, band models.GradeBand) ([]models.Skill, error) {
	var out []models.Skill
	for _, s := range f.skills {
		if s.GradeBand == band {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeQuestionStore struct {
	questions []models.Question
	calls     int
}

func (f *fakeQuestionStore) Filter(_ context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	f.calls++
	in := func(set []string, v string) bool {
		for _, s := range set {
			if s == v {
				return true
			}
		}
		return false
	}
	var out []models.Question
	for _, q := range f.questions {
		if filter.SkillIDs != nil && !in(filter.SkillIDs, q.SkillID) {
			continue
		}
		if filter.IDs != nil && !in(filter.IDs, q.ID) {
			continue
		}
		if filter.Level != "" && q.Level != filter.Level {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

type fakeAttemptStore struct {
	mu        sync.Mutex
	attempts  []models.Attempt
	createErr error
}

func (f *fakeAttemptStore) Create(_ context.Context, a *models.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if a.ID == "" {
		a.ID = fmt.Sprintf("attempt-%d", len(f.attempts)+1)
	}
	f.attempts = append(f.attempts, *a)
	return nil
}

func (f *fakeAttemptStore) Filter(_ context.Context, filter models.AttemptFilter) ([]models.Attempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Attempt
	for _, a := range f.attempts {
		if filter.SessionID != "" && a.SessionID != filter.SessionID {
			continue
		}
		if filter.SkillID != "" && a.SkillID != filter.SkillID {
			continue
		}
		if !filter.Since.IsZero() && a.CreatedAt.Before(filter.Since) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

type fakeReviewStore struct {
	mu        sync.Mutex
	items     map[string]*models.ReviewItem
	nextID    int
	findErr   error
	createErr error
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{items: make(map[string]*models.ReviewItem)}
}

func (f *fakeReviewStore) FindByQuestion(_ context.Context, questionID string) (*models.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, item := range f.items {
		if item.QuestionID == questionID {
			c := *item
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeReviewStore) GetByID(_ context.Context, id string) (*models.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	c := *item
	return &c, nil
}

func (f *fakeReviewStore) Create(_ context.Context, item *models.ReviewItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.items {
		if existing.QuestionID == item.QuestionID {
			return database.ErrDuplicate
		}
	}
	f.nextID++
	item.ID = fmt.Sprintf("review-%d", f.nextID)
	c := *item
	f.items[item.ID] = &c
	return nil
}

func (f *fakeReviewStore) Update(_ context.Context, item *models.ReviewItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[item.ID]; !ok {
		return errors.New("no such review item")
	}
	c := *item
	f.items[item.ID] = &c
	return nil
}

func (f *fakeReviewStore) ListDue(_ context.Context, now time.Time) ([]models.ReviewItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ReviewItem
	for _, item := range f.items {
		if item.IsDue(now) {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NextDueDate.Before(out[j].NextDueDate) })
	return out, nil
}

func (f *fakeReviewStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

type fakeStatsStore struct {
	mu        sync.Mutex
	stats     *models.UserStats
	updateErr error
}

func (f *fakeStatsStore) Get(_ context.Context) (*models.UserStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stats == nil {
		return nil, nil
	}
	c := *f.stats
	return &c, nil
}

func (f *fakeStatsStore) Create(_ context.Context, stats *models.UserStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	stats.ID = "stats"
	c := *stats
	f.stats = &c
	return nil
}

func (f *fakeStatsStore) Update(_ context.Context, stats *models.UserStats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	c := *stats
	f.stats = &c
	return nil
}

type fakePrefsStore struct {
	prefs   *models.UserPrefs
	saveErr error
}

func (f *fakePrefsStore) Save(_ context.Context, prefs *models.UserPrefs) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	if prefs.ID == "" {
		prefs.ID = "prefs"
	}
	c := *prefs
	f.prefs = &c
	return nil
}

func (f *fakePrefsStore) Get(_ context.Context) (*models.UserPrefs, error) {
	if f.prefs == nil {
		return nil, nil
	}
	c := *f.prefs
	return &c, nil
}

type fakeAchievementStore struct {
	mu        sync.Mutex
	items     []models.Achievement
	findErr   error
	createErr error
}

func (f *fakeAchievementStore) List(_ context.Context, _ repository.ListOptions) ([]models.Achievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Achievement(nil), f.items...), nil
}

func (f *fakeAchievementStore) FindByName(_ context.Context, name string) (*models.Achievement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, a := range f.items {
		if a.Name == name {
			c := a
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeAchievementStore) Create(_ context.Context, a *models.Achievement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.items {
		if existing.Name == a.Name {
			return database.ErrDuplicate
		}
	}
	a.ID = fmt.Sprintf("achievement-%d", len(f.items)+1)
	f.items = append(f.items, *a)
	return nil
}

func (f *fakeAchievementStore) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for _, a := range f.items {
		names = append(names, a.Name)
	}
	return names
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) ofType(t EventType) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// fixedClock returns a clock that can be moved by tests
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// practiceFixture wires a PracticeService over fakes with deterministic ordering
type practiceFixture struct {
	skills       *fakeSkillStore
	questions    *fakeQuestionStore
	attempts     *fakeAttemptStore
	reviews      *fakeReviewStore
	stats        *fakeStatsStore
	prefs        *fakePrefsStore
	achievements *fakeAchievementStore
	publisher    *recordingPublisher
	clock        *fixedClock
	svc          *PracticeService
}

func newPracticeFixture(questions []models.Question, opts PracticeOptions) *practiceFixture {
	f := &practiceFixture{
		skills: &fakeSkillStore{skills: []models.Skill{
			{ID: "add", Name: "Addition", GradeBand: models.GradeBand35},
			{ID: "sub", Name: "Subtraction", GradeBand: models.GradeBand35},
			{ID: "count", Name: "Counting", GradeBand: models.GradeBandK2},
		}},
		questions:    &fakeQuestionStore{questions: questions},
		attempts:     &fakeAttemptStore{},
		reviews:      newFakeReviewStore(),
		stats:        &fakeStatsStore{},
		prefs:        &fakePrefsStore{},
		achievements: &fakeAchievementStore{},
		publisher:    &recordingPublisher{},
		clock:        &fixedClock{t: time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)},
	}
	log := logger.Nop()

	reviews := NewReviewService(f.reviews)
	reviews.now = f.clock.Now
	achievements := NewAchievementService(f.achievements, f.publisher, log)
	achievements.now = f.clock.Now

	if opts.DefaultTimezone == "" {
		opts.DefaultTimezone = "UTC"
	}
	f.svc = NewPracticeService(PracticeStores{
		Skills:    f.skills,
		Questions: f.questions,
		Attempts:  f.attempts,
		Stats:     f.stats,
		Prefs:     f.prefs,
	}, reviews, achievements, f.publisher, opts, log)
	f.svc.now = f.clock.Now
	f.svc.shuffle = func(int, func(i, j int)) {}
	f.svc.pick = func(int) int { return 0 }
	return f
}

// manualOptions disables auto-advance so tests drive Next themselves
func manualOptions() PracticeOptions {
	opts := DefaultPracticeOptions()
	opts.FeedbackDelay = 0
	opts.DefaultTimezone = "UTC"
	return opts
}

func makeQuestions(skillID string, level models.Level, n int) []models.Question {
	qs := make([]models.Question, n)
	for i := range qs {
		qs[i] = models.Question{
			ID:            fmt.Sprintf("%s-%s-%02d", skillID, level, i),
			SkillID:       skillID,
			Level:         level,
			Prompt:        fmt.Sprintf("%d + 1 = ?", i),
			CorrectAnswer: fmt.Sprintf("%d", i+1),
			Format:        models.FormatNumeric,
		}
	}
	return qs
}
