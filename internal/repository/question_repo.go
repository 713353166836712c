package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"mathdrill/internal/database"
	"mathdrill/internal/models"
)

// QuestionRepository handles question database operations
type QuestionRepository struct {
	db database.DBTX
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db database.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Filter returns questions matching every non-empty field of the filter
func (r *QuestionRepository) Filter(ctx context.Context, filter models.QuestionFilter) ([]models.Question, error) {
	var conds []string
	var args []interface{}

	if filter.SkillIDs != nil {
		if len(filter.SkillIDs) == 0 {
			return nil, nil
		}
		in, inArgs := inClause(filter.SkillIDs)
		conds = append(conds, "skill_id IN "+in)
		args = append(args, inArgs...)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return nil, nil
		}
		in, inArgs := inClause(filter.IDs)
		conds = append(conds, "id IN "+in)
		args = append(args, inArgs...)
	}
	if filter.Level != "" {
		conds = append(conds, "level = ?")
		args = append(args, string(filter.Level))
	}

	query := `
		SELECT id, skill_id, level, prompt, correct_answer, format, choices, explanation
		FROM questions
	`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		var choices string
		if err := rows.Scan(&q.ID, &q.SkillID, &q.Level, &q.Prompt, &q.CorrectAnswer, &q.Format, &choices, &q.Explain); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(choices), &q.Choices); err != nil {
			return nil, fmt.Errorf("question %s has malformed choices: %w", q.ID, err)
		}
		if len(q.Choices) == 0 {
			q.Choices = nil
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Count returns the number of stored questions
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&count)
	return count, err
}

// Create inserts a question, generating an id when missing
func (r *QuestionRepository) Create(ctx context.Context, q *models.Question) error {
	if q.ID == "" {
		q.ID = newID()
	}
	choices := q.Choices
	if choices == nil {
		choices = []string{}
	}
	encoded, err := json.Marshal(choices)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO questions (id, skill_id, level, prompt, correct_answer, format, choices, explanation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		q.ID, q.SkillID, string(q.Level), q.Prompt, q.CorrectAnswer, string(q.Format), string(encoded), q.Explain)
	return mapInsertErr(r.db, err)
}

// BulkCreate inserts many questions atomically
func (r *QuestionRepository) BulkCreate(ctx context.Context, questions []models.Question) error {
	return inTx(ctx, r.db, func(tx database.DBTX) error {
		repo := NewQuestionRepository(tx)
		for i := range questions {
			if err := repo.Create(ctx, &questions[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// BulkDelete removes the given questions
func (r *QuestionRepository) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	in, args := inClause(ids)
	_, err := r.db.ExecContext(ctx, "DELETE FROM questions WHERE id IN "+in, args...)
	return err
}

// DeleteAll removes every question
func (r *QuestionRepository) DeleteAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM questions")
	return err
}
