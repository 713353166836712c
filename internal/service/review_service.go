package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mathdrill/internal/database"
	"mathdrill/internal/models"
)

const (
	// ReviewDelay is how long a missed question waits before it is due
	ReviewDelay = 24 * time.Hour
	// MasteryStreak is the number of correct reviews that retires an item
	MasteryStreak = 3
)

// ErrReviewItemNotFound is returned when recording a review for an unknown item
var ErrReviewItemNotFound = errors.New("review item not found")

// ReviewService schedules missed questions for spaced review
type ReviewService struct {
	store ReviewStore
	now   func() time.Time
}

// NewReviewService creates a new review service
func NewReviewService(store ReviewStore) *ReviewService {
	return &ReviewService{store: store, now: time.Now}
}

// EnqueueMiss schedules a question for review a day from now.
// Calling it again for the same question resets the existing item instead of adding a second one.
func (s *ReviewService) EnqueueMiss(ctx context.Context, questionID, skillID string) (*models.ReviewItem, error) {
	existing, err := s.store.FindByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up review item: %w", err)
	}
	if existing != nil {
		return existing, s.reset(ctx, existing)
	}

	item := &models.ReviewItem{
		QuestionID:  questionID,
		SkillID:     skillID,
		NextDueDate: s.now().Add(ReviewDelay),
		Interval:    1,
	}
	err = s.store.Create(ctx, item)
	if errors.Is(err, database.ErrDuplicate) {
		// Lost a race with another writer; fall back to resetting their row.
		existing, err = s.store.FindByQuestion(ctx, questionID)
		if err != nil || existing == nil {
			return nil, fmt.Errorf("failed to reload review item: %w", err)
		}
		return existing, s.reset(ctx, existing)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create review item: %w", err)
	}
	return item, nil
}

func (s *ReviewService) reset(ctx context.Context, item *models.ReviewItem) error {
	item.NextDueDate = s.now().Add(ReviewDelay)
	item.Interval = 1
	item.CorrectStreak = 0
	item.Mastered = false
	if err := s.store.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to reset review item: %w", err)
	}
	return nil
}

// DueItems returns the unmastered items due at or before now
func (s *ReviewService) DueItems(ctx context.Context, now time.Time) ([]models.ReviewItem, error) {
	items, err := s.store.ListDue(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reviews: %w", err)
	}
	return items, nil
}

// RecordReview applies the outcome of answering a review item.
// A correct answer doubles the interval and pushes the due date out by it,
// retiring the item after MasteryStreak consecutive corrects. A miss resets it.
func (s *ReviewService) RecordReview(ctx context.Context, itemID string, correct bool) (*models.ReviewItem, error) {
	item, err := s.store.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load review item: %w", err)
	}
	if item == nil {
		return nil, ErrReviewItemNotFound
	}

	if !correct {
		return item, s.reset(ctx, item)
	}

	if item.Interval < 1 {
		item.Interval = 1
	}
	item.CorrectStreak++
	item.Interval *= 2
	item.NextDueDate = s.now().Add(time.Duration(item.Interval) * ReviewDelay)
	if item.CorrectStreak >= MasteryStreak {
		item.Mastered = true
	}
	if err := s.store.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update review item: %w", err)
	}
	return item, nil
}
