package models

import "time"

// Attempt is the append-only record of one answered question
type Attempt struct {
	ID             string    `json:"id"`
	QuestionID     string    `json:"questionId"`
	SkillID        string    `json:"skillId"`
	LevelAtAttempt Level     `json:"levelAtAttempt"`
	Answer         string    `json:"answer"`
	Correct        bool      `json:"correct"`
	TimeMs         int64     `json:"timeMs"`
	SessionID      string    `json:"sessionId"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AttemptFilter narrows an attempt listing
type AttemptFilter struct {
	SessionID string
	SkillID   string
	Since     time.Time
}
