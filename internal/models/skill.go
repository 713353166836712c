package models

// Skill is a drillable topic inside a grade band
type Skill struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	GradeBand   GradeBand `json:"gradeBand"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sortOrder"`
}

// QuestionFormat describes how a question expects its answer
type QuestionFormat string

const (
	FormatNumeric        QuestionFormat = "numeric"
	FormatMultipleChoice QuestionFormat = "mc"
)

// Question is a single short-answer prompt belonging to a skill
type Question struct {
	ID            string         `json:"id"`
	SkillID       string         `json:"skillId"`
	Level         Level          `json:"level"`
	Prompt        string         `json:"prompt"`
	CorrectAnswer string         `json:"correctAnswer"`
	Format        QuestionFormat `json:"format"`
	Choices       []string       `json:"choices,omitempty"`
	Explain       string         `json:"explain"`
}

// QuestionFilter narrows a question listing. Empty fields match everything.
type QuestionFilter struct {
	SkillIDs []string
	Level    Level
	IDs      []string
}
