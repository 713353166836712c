package repository

import (
	"context"
	"database/sql"

	"mathdrill/internal/database"
	"mathdrill/internal/models"
)

var skillSortColumns = map[string]string{
	"name":      "name",
	"sortOrder": "sort_order",
	"gradeBand": "grade_band",
}

// SkillRepository handles skill database operations
type SkillRepository struct {
	db database.DBTX
}

// NewSkillRepository creates a new skill repository
func NewSkillRepository(db database.DBTX) *SkillRepository {
	return &SkillRepository{db: db}
}

const skillColumns = "id, name, grade_band, category, description, sort_order"

// List returns all skills
func (r *SkillRepository) List(ctx context.Context, opts ListOptions) ([]models.Skill, error) {
	query := "SELECT " + skillColumns + " FROM skills" + orderClause(opts.Sort, skillSortColumns, "grade_band ASC, sort_order ASC")
	limit, args := limitClause(opts.Limit, nil)
	return r.query(ctx, query+limit, args...)
}

// ListByGradeBand returns the skills of one grade band in display order
func (r *SkillRepository) ListByGradeBand(ctx context.Context, band models.GradeBand) ([]models.Skill, error) {
	query := "SELECT " + skillColumns + " FROM skills WHERE grade_band = ? ORDER BY sort_order ASC"
	return r.query(ctx, query, string(band))
}

// GetByID retrieves a skill, returning nil when it does not exist
func (r *SkillRepository) GetByID(ctx context.Context, id string) (*models.Skill, error) {
	query := "SELECT " + skillColumns + " FROM skills WHERE id = ?"
	skill := &models.Skill{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&skill.ID, &skill.Name, &skill.GradeBand, &skill.Category, &skill.Description, &skill.SortOrder,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return skill, nil
}

// Create inserts a skill, generating an id when missing
func (r *SkillRepository) Create(ctx context.Context, skill *models.Skill) error {
	if skill.ID == "" {
		skill.ID = newID()
	}
	query := `
		INSERT INTO skills (id, name, grade_band, category, description, sort_order)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		skill.ID, skill.Name, string(skill.GradeBand), skill.Category, skill.Description, skill.SortOrder)
	return mapInsertErr(r.db, err)
}

// BulkCreate inserts many skills atomically
func (r *SkillRepository) BulkCreate(ctx context.Context, skills []models.Skill) error {
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		repo := NewSkillRepository(tx)
		for i := range skills {
			if err := repo.Create(ctx, &skills[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// BulkDelete removes the given skills and, through the foreign key, their questions
func (r *SkillRepository) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := inClause(ids)
	_, err := r.db.ExecContext(ctx, "DELETE FROM skills WHERE id IN "+in, args...)
	return err
}

// DeleteAll removes every skill
func (r *SkillRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM skills")
	return err
}

func (r *SkillRepository) query(ctx context.Context, query string, args ...interface{}) ([]models.Skill, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var skills []models.Skill
	for rows.Next() {
		var skill models.Skill
		if err := rows.Scan(
			&skill.ID, &skill.Name, &skill.GradeBand, &skill.Category, &skill.Description, &skill.SortOrder,
		); err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}
	return skills, rows.Err()
}
