package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"mathdrill/internal/logger"
	"mathdrill/internal/models"
)

// QuestionView is a question as shown to the learner, without its answer
type QuestionView struct {
	ID      string                `json:"id"`
	SkillID string                `json:"skillId"`
	Level   models.Level          `json:"level"`
	Prompt  string                `json:"prompt"`
	Format  models.QuestionFormat `json:"format"`
	Choices []string              `json:"choices,omitempty"`
}

func viewOf(q models.Question) *QuestionView {
	return &QuestionView{ID: q.ID, SkillID: q.SkillID, Level: q.Level, Prompt: q.Prompt, Format: q.Format, Choices: q.Choices}
}

// AnswerResult is the feedback for one submitted answer
type AnswerResult struct {
	QuestionID         string       `json:"questionId"`
	Answer             string       `json:"answer"`
	Correct            bool         `json:"correct"`
	CorrectAnswer      string       `json:"correctAnswer"`
	Explain            string       `json:"explain,omitempty"`
	LevelBefore        models.Level `json:"levelBefore"`
	LevelAfter         models.Level `json:"levelAfter"`
	LevelChange        LevelChange  `json:"levelChange,omitempty"`
	ConsecutiveCorrect int          `json:"consecutiveCorrect"`
	LastQuestion       bool         `json:"lastQuestion"`
}

// SessionSummary is reported once a session ends
type SessionSummary struct {
	SessionID  string           `json:"sessionId"`
	Answered   int              `json:"answered"`
	Correct    int              `json:"correct"`
	Accuracy   int              `json:"accuracy"`
	DurationMs int64            `json:"durationMs"`
	GoalMet    bool             `json:"goalMet"`
	Stats      models.UserStats `json:"stats"`
}

// SessionView is a point-in-time snapshot of a running session
type SessionView struct {
	SessionID    string        `json:"sessionId"`
	Mode         SessionMode   `json:"mode"`
	SkillID      string        `json:"skillId,omitempty"`
	Index        int           `json:"index"`
	Total        int           `json:"total"`
	Answered     int           `json:"answered"`
	CorrectCount int           `json:"correctCount"`
	Level        models.Level  `json:"level"`
	Question     *QuestionView `json:"question,omitempty"`
	AwaitingNext bool          `json:"awaitingNext"`
	Finished     bool          `json:"finished"`
	StartedAt    time.Time     `json:"startedAt"`
	// NeedsEnd is set once the questions run out but the stats have not been
	// saved; the caller should retry End.
	NeedsEnd bool   `json:"needsEnd,omitempty"`
	EndError string `json:"endError,omitempty"`
}

// PracticeSession is one bounded run of questions. It is owned by a single
// caller, but the auto-advance timer runs on its own goroutine, so every
// method takes the session lock.
type PracticeSession struct {
	svc      *PracticeService
	log      *logger.Logger
	id       string
	settings SessionSettings
	prefs    models.UserPrefs
	scope    []string
	reviewOf map[string]string

	ctx    context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	questions     []models.Question
	index         int
	answers       []models.Attempt
	adapt         Adaptation
	startedAt     time.Time
	questionStart time.Time
	pending       bool
	timer         *time.Timer
	timerGen      uint64
	summary       *SessionSummary
	endErr        error
	closed        bool
}

func newPracticeSession(svc *PracticeService, settings SessionSettings, prefs models.UserPrefs,
	pool []models.Question, scope []string, reviewOf map[string]string) *PracticeSession {
	ctx, cancel := context.WithCancel(context.Background())
	now := svc.now()
	id := newSessionID()
	return &PracticeSession{
		svc:           svc,
		log:           svc.log.With("session", id),
		id:            id,
		settings:      settings,
		prefs:         prefs,
		scope:         scope,
		reviewOf:      reviewOf,
		ctx:           ctx,
		cancel:        cancel,
		questions:     pool,
		adapt:         NewAdaptation(),
		startedAt:     now,
		questionStart: now,
	}
}

// ID returns the session id stamped on every attempt
func (s *PracticeSession) ID() string {
	return s.id
}

// View returns a snapshot of the session
func (s *PracticeSession) View() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := SessionView{
		SessionID:    s.id,
		Mode:         s.settings.Mode,
		SkillID:      s.settings.SkillID,
		Index:        s.index,
		Total:        len(s.questions),
		Answered:     len(s.answers),
		CorrectCount: countCorrect(s.answers),
		Level:        s.adapt.Level,
		AwaitingNext: s.pending,
		Finished:     s.summary != nil || s.closed,
		StartedAt:    s.startedAt,
	}
	if !v.Finished && s.index >= len(s.questions) {
		v.NeedsEnd = true
		if s.endErr != nil {
			v.EndError = s.endErr.Error()
		}
	}
	if !v.Finished && s.index < len(s.questions) {
		v.Question = viewOf(s.questions[s.index])
	}
	return v
}

// Summary returns the end-of-session report, or nil while the session is running
func (s *PracticeSession) Summary() *SessionSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Submit checks an answer to the current question and records the attempt.
//
// Only the attempt write is critical: if it fails the session is unchanged.
// Review scheduling, achievements and events are best effort.
func (s *PracticeSession) Submit(ctx context.Context, raw string) (*AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitLocked(ctx, raw)
}

func (s *PracticeSession) submitLocked(ctx context.Context, raw string) (*AnswerResult, error) {
	if err := s.usableLocked(); err != nil {
		return nil, err
	}
	if s.pending {
		return nil, ErrAnswerPending
	}
	answer := strings.TrimSpace(raw)
	if answer == "" {
		return nil, &ValidationError{Field: "answer", Message: "answer is required"}
	}

	q := s.questions[s.index]
	now := s.svc.now()
	correct := strings.EqualFold(answer, strings.TrimSpace(q.CorrectAnswer))

	attempt := models.Attempt{
		QuestionID:     q.ID,
		SkillID:        q.SkillID,
		LevelAtAttempt: s.adapt.Level,
		Answer:         answer,
		Correct:        correct,
		TimeMs:         now.Sub(s.questionStart).Milliseconds(),
		SessionID:      s.id,
		CreatedAt:      now,
	}
	if err := s.svc.stores.Attempts.Create(ctx, &attempt); err != nil {
		return nil, &PersistenceError{Op: "record attempt", Err: err}
	}
	s.answers = append(s.answers, attempt)
	s.pending = true

	if s.svc.publisher != nil {
		recorded := attempt
		s.svc.publisher.Publish(Event{
			Type: EventAttemptRecorded, SessionID: s.id, Attempt: &recorded, Correct: correct, At: now,
		})
	}

	before := s.adapt.Level
	run, change := s.adapt.Record(correct)
	if change != LevelSame {
		s.log.Debug("Level changed", "from", before, "to", s.adapt.Level)
	}

	s.scheduleReview(ctx, q, correct)
	s.checkAchievements(ctx, &SessionSignal{ConsecutiveCorrect: run})
	s.scheduleAdvanceLocked()

	return &AnswerResult{
		QuestionID:         q.ID,
		Answer:             answer,
		Correct:            correct,
		CorrectAnswer:      q.CorrectAnswer,
		Explain:            q.Explain,
		LevelBefore:        before,
		LevelAfter:         s.adapt.Level,
		LevelChange:        change,
		ConsecutiveCorrect: run,
		LastQuestion:       s.index == len(s.questions)-1,
	}, nil
}

func (s *PracticeSession) scheduleReview(ctx context.Context, q models.Question, correct bool) {
	reviews := s.svc.reviews
	if reviews == nil {
		return
	}
	if itemID, ok := s.reviewOf[q.ID]; ok {
		if _, err := reviews.RecordReview(ctx, itemID, correct); err != nil {
			s.log.Warn("Failed to record review", "question", q.ID, "error", err)
		}
		return
	}
	if !correct {
		if _, err := reviews.EnqueueMiss(ctx, q.ID, q.SkillID); err != nil {
			s.log.Warn("Failed to enqueue review", "question", q.ID, "error", err)
		}
	}
}

// checkAchievements runs the rules against the stored stats plus the in-session signal
func (s *PracticeSession) checkAchievements(ctx context.Context, signal *SessionSignal) {
	if s.svc.achievements == nil {
		return
	}
	stats, err := s.svc.stores.Stats.Get(ctx)
	if err != nil {
		s.log.Warn("Failed to load stats for achievements", "error", err)
		return
	}
	current := models.UserStats{}
	if stats != nil {
		current = *stats
	}
	if _, err := s.svc.achievements.CheckAndUnlock(ctx, current, signal); err != nil {
		s.log.Warn("Achievement check failed", "error", err)
	}
}

func (s *PracticeSession) scheduleAdvanceLocked() {
	delay := s.svc.opts.FeedbackDelay
	if delay <= 0 {
		return
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = time.AfterFunc(delay, func() { s.autoAdvance(gen) })
}

// autoAdvance runs when the feedback delay elapses. A timer that fired while
// its advance was being stopped finds a newer generation and does nothing.
func (s *PracticeSession) autoAdvance(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.timerGen {
		return
	}
	s.timer = nil
	if _, err := s.nextLocked(s.ctx); err != nil && !errors.Is(err, ErrSessionClosed) {
		s.log.Warn("Auto-advance failed", "error", err)
	}
}

// Next moves past the answered question. When the pool is exhausted the
// session ends and the summary is returned; otherwise the summary is nil.
//
// If the upcoming question's level no longer matches the session level, a
// not-yet-answered question at the current level from the same skill scope
// takes its place when one exists.
func (s *PracticeSession) Next(ctx context.Context) (*SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked(ctx)
}

func (s *PracticeSession) nextLocked(ctx context.Context) (*SessionSummary, error) {
	if err := s.usableLocked(); err != nil {
		return nil, err
	}
	if !s.pending {
		return nil, &ValidationError{Field: "answer", Message: "answer the current question first"}
	}
	s.stopTimerLocked()
	s.pending = false
	s.index++

	if s.index >= len(s.questions) {
		return s.endLocked(ctx)
	}

	if s.settings.Mode != ModeReview && s.questions[s.index].Level != s.adapt.Level {
		if sub, ok := s.substitute(ctx); ok {
			s.questions[s.index] = sub
		}
	}
	s.questionStart = s.svc.now()
	return nil, nil
}

func (s *PracticeSession) substitute(ctx context.Context) (models.Question, bool) {
	candidates, err := s.svc.stores.Questions.Filter(ctx, models.QuestionFilter{SkillIDs: s.scope, Level: s.adapt.Level})
	if err != nil {
		s.log.Warn("Failed to load questions for new level", "level", s.adapt.Level, "error", err)
		return models.Question{}, false
	}
	answered := make(map[string]bool, len(s.answers))
	for _, a := range s.answers {
		answered[a.QuestionID] = true
	}
	available := candidates[:0]
	for _, q := range candidates {
		if !answered[q.ID] {
			available = append(available, q)
		}
	}
	if len(available) == 0 {
		return models.Question{}, false
	}
	return available[s.svc.pick(len(available))], true
}

// End finalizes the session into the stored stats and returns the summary.
// Calling End again returns the same summary.
func (s *PracticeSession) End(ctx context.Context) (*SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.summary != nil {
		return s.summary, nil
	}
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.endLocked(ctx)
}

func (s *PracticeSession) endLocked(ctx context.Context) (*SessionSummary, error) {
	s.stopTimerLocked()
	s.pending = false

	now := s.svc.now()
	answered := len(s.answers)
	correct := countCorrect(s.answers)
	today := DayKey(now, Location(s.prefs.Timezone))

	existing, err := s.svc.stores.Stats.Get(ctx)
	if err != nil {
		s.endErr = &PersistenceError{Op: "load stats", Err: err}
		return nil, s.endErr
	}
	stats := FinalizeSession(existing, answered, correct, s.prefs.DailyGoal, today)
	if existing == nil {
		err = s.svc.stores.Stats.Create(ctx, &stats)
	} else {
		err = s.svc.stores.Stats.Update(ctx, &stats)
	}
	if err != nil {
		s.endErr = &PersistenceError{Op: "save stats", Err: err}
		return nil, s.endErr
	}
	s.endErr = nil

	if s.svc.achievements != nil {
		if _, err := s.svc.achievements.CheckAndUnlock(ctx, stats, nil); err != nil {
			s.log.Warn("Achievement check failed", "error", err)
		}
	}

	s.summary = &SessionSummary{
		SessionID:  s.id,
		Answered:   answered,
		Correct:    correct,
		Accuracy:   Accuracy(correct, answered),
		DurationMs: now.Sub(s.startedAt).Milliseconds(),
		GoalMet:    answered > 0 && answered >= s.prefs.DailyGoal,
		Stats:      stats,
	}
	s.cancel()
	s.log.Info("Practice session ended", "answered", answered, "correct", correct, "streak", stats.CurrentStreak)
	return s.summary, nil
}

// Close abandons the session without touching stats. A pending auto-advance
// is cancelled. Close is idempotent.
func (s *PracticeSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.cancel()
}

func (s *PracticeSession) usableLocked() error {
	if s.closed || s.summary != nil {
		return ErrSessionClosed
	}
	if s.index >= len(s.questions) {
		return ErrNoQuestion
	}
	return nil
}

func (s *PracticeSession) stopTimerLocked() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func countCorrect(attempts []models.Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.Correct {
			n++
		}
	}
	return n
}
