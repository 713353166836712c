package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"mathdrill/internal/database"
	"mathdrill/internal/logger"
	"mathdrill/internal/models"
	"mathdrill/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData is the complete portable snapshot of the record store
type BackupData struct {
	Version      string               `json:"version"`
	ExportedAt   time.Time            `json:"exported_at"`
	DatabaseType string               `json:"database_type"`
	Skills       []models.Skill       `json:"skills"`
	Questions    []models.Question    `json:"questions"`
	Attempts     []models.Attempt     `json:"attempts"`
	ReviewItems  []models.ReviewItem  `json:"review_items"`
	Achievements []models.Achievement `json:"achievements"`
	Stats        *models.UserStats    `json:"stats,omitempty"`
	Prefs        *models.UserPrefs    `json:"prefs,omitempty"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db  *database.DB
	log *logger.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB, log *logger.Logger) *BackupService {
	return &BackupService{db: db, log: log.With("component", "BackupService")}
}

// Export reads every record into a BackupData
func (s *BackupService) Export(ctx context.Context) (*BackupData, error) {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}
	all := repository.ListOptions{}
	var err error

	if backup.Skills, err = repository.NewSkillRepository(s.db).List(ctx, all); err != nil {
		return nil, fmt.Errorf("failed to export skills: %w", err)
	}
	if backup.Questions, err = repository.NewQuestionRepository(s.db).Filter(ctx, models.QuestionFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export questions: %w", err)
	}
	if backup.Attempts, err = repository.NewAttemptRepository(s.db).Filter(ctx, models.AttemptFilter{}); err != nil {
		return nil, fmt.Errorf("failed to export attempts: %w", err)
	}
	if backup.ReviewItems, err = repository.NewReviewRepository(s.db).List(ctx, all); err != nil {
		return nil, fmt.Errorf("failed to export review items: %w", err)
	}
	if backup.Achievements, err = repository.NewAchievementRepository(s.db).List(ctx, all); err != nil {
		return nil, fmt.Errorf("failed to export achievements: %w", err)
	}
	if backup.Stats, err = repository.NewStatsRepository(s.db).Get(ctx); err != nil {
		return nil, fmt.Errorf("failed to export stats: %w", err)
	}
	if backup.Prefs, err = repository.NewPrefsRepository(s.db).Get(ctx); err != nil {
		return nil, fmt.Errorf("failed to export prefs: %w", err)
	}
	return backup, nil
}

// ExportToWriter writes an indented JSON backup to w
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup, err := s.Export(ctx)
	if err != nil {
		return err
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	s.log.Info("Database exported",
		"skills", len(backup.Skills), "questions", len(backup.Questions), "attempts", len(backup.Attempts),
		"reviews", len(backup.ReviewItems), "achievements", len(backup.Achievements))
	return nil
}

// ExportFile writes a backup to outputPath
func (s *BackupService) ExportFile(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := s.ExportToWriter(ctx, file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// Import replaces the whole record store with the backup in one transaction
func (s *BackupService) Import(ctx context.Context, backup *BackupData) error {
	if backup.Version != BackupVersion {
		return &ValidationError{Field: "backup", Message: fmt.Sprintf("unsupported backup version %q", backup.Version)}
	}

	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		skills := repository.NewSkillRepository(tx)
		questions := repository.NewQuestionRepository(tx)
		attempts := repository.NewAttemptRepository(tx)
		reviews := repository.NewReviewRepository(tx)
		achievements := repository.NewAchievementRepository(tx)
		stats := repository.NewStatsRepository(tx)
		prefs := repository.NewPrefsRepository(tx)

		for _, deleteAll := range []func(context.Context) error{
			attempts.DeleteAll, reviews.DeleteAll, achievements.DeleteAll,
			questions.DeleteAll, skills.DeleteAll, stats.DeleteAll, prefs.DeleteAll,
		} {
			if err := deleteAll(ctx); err != nil {
				return fmt.Errorf("failed to clear existing data: %w", err)
			}
		}

		if err := skills.BulkCreate(ctx, backup.Skills); err != nil {
			return fmt.Errorf("failed to import skills: %w", err)
		}
		if err := questions.BulkCreate(ctx, backup.Questions); err != nil {
			return fmt.Errorf("failed to import questions: %w", err)
		}
		if err := attempts.BulkCreate(ctx, backup.Attempts); err != nil {
			return fmt.Errorf("failed to import attempts: %w", err)
		}
		if err := reviews.BulkCreate(ctx, backup.ReviewItems); err != nil {
			return fmt.Errorf("failed to import review items: %w", err)
		}
		if err := achievements.BulkCreate(ctx, backup.Achievements); err != nil {
			return fmt.Errorf("failed to import achievements: %w", err)
		}
		if backup.Stats != nil {
			if err := stats.Create(ctx, backup.Stats); err != nil {
				return fmt.Errorf("failed to import stats: %w", err)
			}
		}
		if backup.Prefs != nil {
			if err := prefs.Save(ctx, backup.Prefs); err != nil {
				return fmt.Errorf("failed to import prefs: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("Database import completed", "version", backup.Version, "exportedAt", backup.ExportedAt)
	return nil
}

// ImportFromReader decodes a JSON backup and imports it
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return &ValidationError{Field: "backup", Message: "failed to decode backup: " + err.Error()}
	}
	return s.Import(ctx, &backup)
}

// ImportFile restores a backup file
func (s *BackupService) ImportFile(ctx context.Context, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(ctx, file)
}
