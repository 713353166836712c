package models

import "time"

// ReviewItem schedules a previously missed question for another try.
// There is at most one item per question.
type ReviewItem struct {
	ID            string    `json:"id"`
	QuestionID    string    `json:"questionId"`
	SkillID       string    `json:"skillId"`
	NextDueDate   time.Time `json:"nextDueDate"`
	Interval      int       `json:"interval"`
	CorrectStreak int       `json:"correctStreak"`
	Mastered      bool      `json:"mastered"`
}

// IsDue reports whether the item should be shown at the given time
func (r ReviewItem) IsDue(now time.Time) bool {
	return !r.Mastered && !r.NextDueDate.After(now)
}
