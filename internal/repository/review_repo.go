package repository

import (
	"context"
	"database/sql"
	"time"

	"mathdrill/internal/database"
	"mathdrill/internal/models"
)

var reviewSortColumns = map[string]string{
	"nextDueDate": "next_due_date",
	"interval":    "interval_days",
}

// ReviewRepository handles review queue database operations
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = "id, question_id, skill_id, next_due_date, interval_days, correct_streak, mastered"

// FindByQuestion returns the review item for a question, or nil if none exists
func (r *ReviewRepository) FindByQuestion(ctx context.Context, questionID string) (*models.ReviewItem, error) {
	return r.getOne(ctx, "SELECT "+reviewColumns+" FROM review_items WHERE question_id = ?", questionID)
}

// GetByID returns a review item, or nil if it does not exist
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*models.ReviewItem, error) {
	return r.getOne(ctx, "SELECT "+reviewColumns+" FROM review_items WHERE id = ?", id)
}

// Create inserts a review item. A second item for the same question yields database.ErrDuplicate.
func (r *ReviewRepository) Create(ctx context.Context, item *models.ReviewItem) error {
	if item.ID == "" {
		item.ID = newID()
	}
	item.NextDueDate = item.NextDueDate.UTC()
	query := `
		INSERT INTO review_items (` + reviewColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.QuestionID, item.SkillID, item.NextDueDate, item.Interval, item.CorrectStreak, item.Mastered)
	return mapInsertErr(r.db, err)
}

// Update persists the scheduling fields of a review item
func (r *ReviewRepository) Update(ctx context.Context, item *models.ReviewItem) error {
	item.NextDueDate = item.NextDueDate.UTC()
	query := `
		UPDATE review_items
		SET next_due_date = ?, interval_days = ?, correct_streak = ?, mastered = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		item.NextDueDate, item.Interval, item.CorrectStreak, item.Mastered, item.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListDue returns unmastered items whose due date is at or before now, most overdue first
func (r *ReviewRepository) ListDue(ctx context.Context, now time.Time) ([]models.ReviewItem, error) {
	query := "SELECT " + reviewColumns + " FROM review_items WHERE mastered = ? AND next_due_date <= ? ORDER BY next_due_date ASC"
	return r.query(ctx, query, false, now.UTC())
}

// CountDue returns the number of items ListDue would return
func (r *ReviewRepository) CountDue(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM review_items WHERE mastered = ? AND next_due_date <= ?", false, now.UTC(),
	).Scan(&count)
	return count, err
}

// List returns all review items
func (r *ReviewRepository) List(ctx context.Context, opts ListOptions) ([]models.ReviewItem, error) {
	query := "SELECT " + reviewColumns + " FROM review_items" + orderClause(opts.Sort, reviewSortColumns, "next_due_date ASC")
	limit, args := limitClause(opts.Limit, nil)
	return r.query(ctx, query+limit, args...)
}

// BulkCreate inserts many review items atomically
func (r *ReviewRepository) BulkCreate(ctx context.Context, items []models.ReviewItem) error {
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		repo := NewReviewRepository(tx)
		for i := range items {
			if err := repo.Create(ctx, &items[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteAll removes every review item
func (r *ReviewRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM review_items")
	return err
}

func (r *ReviewRepository) getOne(ctx context.Context, query string, arg string) (*models.ReviewItem, error) {
	item := &models.ReviewItem{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&item.ID, &item.QuestionID, &item.SkillID, &item.NextDueDate, &item.Interval, &item.CorrectStreak, &item.Mastered,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (r *ReviewRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.ReviewItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ReviewItem
	for rows.Next() {
		var item models.ReviewItem
		if err := rows.Scan(
			&item.ID, &item.QuestionID, &item.SkillID, &item.NextDueDate, &item.Interval, &item.CorrectStreak, &item.Mastered,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
