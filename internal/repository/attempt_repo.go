package repository

import (
	"context"
	"strings"

	"mathdrill/internal/database"
	"mathdrill/internal/models"
)

var attemptSortColumns = map[string]string{
	"createdAt": "created_at",
	"timeMs":    "time_ms",
}

// AttemptRepository handles attempt database operations.
// Attempts are append-only; there is no update.
type AttemptRepository struct {
	db database.DBTX
}

// NewAttemptRepository creates a new attempt repository
func NewAttemptRepository(db database.DBTX) *AttemptRepository {
	return &AttemptRepository{db: db}
}

const attemptColumns = "id, question_id, skill_id, level_at_attempt, answer, correct, time_ms, session_id, created_at"

// Create records an attempt
func (r *AttemptRepository) Create(ctx context.Context, a *models.Attempt) error {
	if a.ID == "" {
		a.ID = newID()
	}
	a.CreatedAt = a.CreatedAt.UTC()
	query := `
		INSERT INTO attempts (` + attemptColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.QuestionID, a.SkillID, string(a.LevelAtAttempt), a.Answer, a.Correct, a.TimeMs, a.SessionID, a.CreatedAt)
	return mapInsertErr(r.db, err)
}

// BulkCreate inserts many attempts atomically
func (r *AttemptRepository) BulkCreate(ctx context.Context, attempts []models.Attempt) error {
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		repo := NewAttemptRepository(tx)
		for i := range attempts {
			if err := repo.Create(ctx, &attempts[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Filter returns attempts matching the filter, oldest first
func (r *AttemptRepository) Filter(ctx context.Context, filter models.AttemptFilter) ([]models.Attempt, error) {
	var conds []string
	var args []interface{}
	if filter.SessionID != "" {
		conds = append(conds, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if filter.SkillID != "" {
		conds = append(conds, "skill_id = ?")
		args = append(args, filter.SkillID)
	}
	if !filter.Since.IsZero() {
		conds = append(conds, "created_at >= ?")
		args = append(args, filter.Since.UTC())
	}

	query := "SELECT " + attemptColumns + " FROM attempts"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"
	return r.query(ctx, query, args...)
}

// List returns attempts ordered per opts, newest first by default
func (r *AttemptRepository) List(ctx context.Context, opts ListOptions) ([]models.Attempt, error) {
	query := "SELECT " + attemptColumns + " FROM attempts" + orderClause(opts.Sort, attemptSortColumns, "created_at DESC")
	limit, args := limitClause(opts.Limit, nil)
	return r.query(ctx, query+limit, args...)
}

// DeleteAll removes every attempt
func (r *AttemptRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM attempts")
	return err
}

func (r *AttemptRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []models.Attempt
	for rows.Next() {
		var a models.Attempt
		if err := rows.Scan(
			&a.ID, &a.QuestionID, &a.SkillID, &a.LevelAtAttempt, &a.Answer,
			&a.Correct, &a.TimeMs, &a.SessionID, &a.CreatedAt,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
