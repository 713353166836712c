package repository

import (
	"context"
	"database/sql"

	"mathdrill/internal/database"
	"mathdrill/internal/models"
)

// StatsRepository stores the single UserStats record
type StatsRepository struct {
	db database.DBTX
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db database.DBTX) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get returns the stats record, or nil before the first session has closed
func (r *StatsRepository) Get(ctx context.Context) (*models.UserStats, error) {
	query := `
		SELECT id, total_answers, correct_answers, current_streak, best_streak, last_answered_date
		FROM user_stats
		ORDER BY id ASC
		LIMIT 1
	`
	stats := &models.UserStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.ID, &stats.TotalAnswers, &stats.CorrectAnswers,
		&stats.CurrentStreak, &stats.BestStreak, &stats.LastAnsweredDate,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Create inserts the stats record
func (r *StatsRepository) Create(ctx context.Context, stats *models.UserStats) error {
	if stats.ID == "" {
		stats.ID = newID()
	}
	query := `
		INSERT INTO user_stats (id, total_answers, correct_answers, current_streak, best_streak, last_answered_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		stats.ID, stats.TotalAnswers, stats.CorrectAnswers, stats.CurrentStreak, stats.BestStreak, stats.LastAnsweredDate)
	return mapInsertErr(r.db, err)
}

// Update overwrites the stats record
func (r *StatsRepository) Update(ctx context.Context, stats *models.UserStats) error {
	query := `
		UPDATE user_stats
		SET total_answers = ?, correct_answers = ?, current_streak = ?, best_streak = ?, last_answered_date = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		stats.TotalAnswers, stats.CorrectAnswers, stats.CurrentStreak, stats.BestStreak, stats.LastAnsweredDate, stats.ID)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteAll removes the stats record
func (r *StatsRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM user_stats")
	return err
}
