package repository

import (
	"context"
	"database/sql"

	"mathdrill/internal/database"
	"mathdrill/internal/models"
)

var achievementSortColumns = map[string]string{
	"name":         "name",
	"unlockedDate": "unlocked_date",
}

// AchievementRepository handles unlocked badge records
type AchievementRepository struct {
	db database.DBTX
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db database.DBTX) *AchievementRepository {
	return &AchievementRepository{db: db}
}

const achievementColumns = "id, name, description, badge_icon, unlocked_date"

// List returns unlocked achievements, oldest first by default
func (r *AchievementRepository) List(ctx context.Context, opts ListOptions) ([]models.Achievement, error) {
	query := "SELECT " + achievementColumns + " FROM achievements" + orderClause(opts.Sort, achievementSortColumns, "unlocked_date ASC")
	limit, args := limitClause(opts.Limit, nil)

	rows, err := r.db.QueryContext(ctx, query+limit, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var achievements []models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.BadgeIcon, &a.UnlockedDate); err != nil {
			return nil, err
		}
		achievements = append(achievements, a)
	}
	return achievements, rows.Err()
}

// FindByName returns the achievement with the given display name, or nil
func (r *AchievementRepository) FindByName(ctx context.Context, name string) (*models.Achievement, error) {
	a := &models.Achievement{}
	err := r.db.QueryRowContext(ctx,
		"SELECT "+achievementColumns+" FROM achievements WHERE name = ?", name,
	).Scan(&a.ID, &a.Name, &a.Description, &a.BadgeIcon, &a.UnlockedDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Create inserts an achievement. A duplicate name yields database.ErrDuplicate.
func (r *AchievementRepository) Create(ctx context.Context, a *models.Achievement) error {
	if a.ID == "" {
		a.ID = newID()
	}
	a.UnlockedDate = a.UnlockedDate.UTC()
	query := `
		INSERT INTO achievements (` + achievementColumns + `)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, a.ID, a.Name, a.Description, a.BadgeIcon, a.UnlockedDate)
	return mapInsertErr(r.db, err)
}

// BulkCreate inserts many achievements atomically
func (r *AchievementRepository) BulkCreate(ctx context.Context, achievements []models.Achievement) error {
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		repo := NewAchievementRepository(tx)
		for i := range achievements {
			if err := repo.Create(ctx, &achievements[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteAll removes every achievement
func (r *AchievementRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM achievements")
	return err
}
