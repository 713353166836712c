package repository

import (
	"context"
	"database/sql"

	"mathdrill/internal/database"
	"mathdrill/internal/models"
)

// PrefsRepository stores the single UserPrefs record
type PrefsRepository struct {
	db database.DBTX
}

// NewPrefsRepository creates a new prefs repository
func NewPrefsRepository(db database.DBTX) *PrefsRepository {
	return &PrefsRepository{db: db}
}

// Get returns the stored preferences, or nil if none were saved
func (r *PrefsRepository) Get(ctx context.Context) (*models.UserPrefs, error) {
	query := `
		SELECT id, grade_band, daily_goal, sound_on, theme, timezone
		FROM user_prefs
		ORDER BY id ASC
		LIMIT 1
	`
	prefs := &models.UserPrefs{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&prefs.ID, &prefs.GradeBand, &prefs.DailyGoal, &prefs.SoundOn, &prefs.Theme, &prefs.Timezone,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return prefs, nil
}

// Save updates the stored preferences, inserting them on first save
func (r *PrefsRepository) Save(ctx context.Context, prefs *models.UserPrefs) error {
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		existing, err := NewPrefsRepository(tx).Get(ctx)
		if err != nil {
			return err
		}
		if existing == nil {
			if prefs.ID == "" {
				prefs.ID = newID()
			}
			query := `
				INSERT INTO user_prefs (id, grade_band, daily_goal, sound_on, theme, timezone)
				VALUES (?, ?, ?, ?, ?, ?)
			`
			_, err := tx.ExecContext(ctx, query,
				prefs.ID, string(prefs.GradeBand), prefs.DailyGoal, prefs.SoundOn, prefs.Theme, prefs.Timezone)
			return mapInsertErr(tx, err)
		}

		prefs.ID = existing.ID
		query := `
			UPDATE user_prefs
			SET grade_band = ?, daily_goal = ?, sound_on = ?, theme = ?, timezone = ?
			WHERE id = ?
		`
		_, err = tx.ExecContext(ctx, query,
			string(prefs.GradeBand), prefs.DailyGoal, prefs.SoundOn, prefs.Theme, prefs.Timezone, prefs.ID)
		return err
	})
}

// DeleteAll removes the stored preferences
func (r *PrefsRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM user_prefs")
	return err
}
