package service

import (
	"time"

	"mathdrill/internal/models"
)

const dayKeyLayout = "2006-01-02"

// StatsSnapshot is the derived view of the attempt log for the dashboard
type StatsSnapshot struct {
	DailyGoal       int `json:"dailyGoal"`
	AttemptsToday   int `json:"attemptsToday"`
	TotalAttempts   int `json:"totalAttempts"`
	CorrectAttempts int `json:"correctAttempts"`
	Accuracy        int `json:"accuracy"`
}

// Recalc derives a snapshot from the full attempt list. It does not touch storage.
func Recalc(attempts []models.Attempt, prefs models.UserPrefs, now time.Time) StatsSnapshot {
	loc := Location(prefs.Timezone)
	today := DayKey(now, loc)

	snap := StatsSnapshot{
		DailyGoal:     prefs.DailyGoal,
		TotalAttempts: len(attempts),
	}
	for _, a := range attempts {
		if a.Correct {
			snap.CorrectAttempts++
		}
		if DayKey(a.CreatedAt, loc) == today {
			snap.AttemptsToday++
		}
	}
	snap.Accuracy = Accuracy(snap.CorrectAttempts, snap.TotalAttempts)
	return snap
}

// Accuracy returns the integer percentage of correct answers, rounding halves up.
// It is 0 when total is 0.
func Accuracy(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

// Location resolves an IANA timezone name, falling back to the process local zone
func Location(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// DayKey formats t as a YYYY-MM-DD calendar day in loc
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dayKeyLayout)
}

// IsYesterday reports whether day is the calendar day immediately before today.
// Both arguments are day keys; a malformed or empty key is never yesterday.
func IsYesterday(day, today string) bool {
	d, err := time.Parse(dayKeyLayout, day)
	if err != nil {
		return false
	}
	t, err := time.Parse(dayKeyLayout, today)
	if err != nil {
		return false
	}
	return d.AddDate(0, 0, 1).Equal(t)
}

// FinalizeSession folds a finished session into the cross-session stats.
//
// The streak moves only when the session met the daily goal and the stats were
// not already touched today: it grows by one when the last active day was
// yesterday and restarts at 1 otherwise. LastAnsweredDate is set to today in
// every case. existing may be nil before the first session.
func FinalizeSession(existing *models.UserStats, answered, correct, dailyGoal int, today string) models.UserStats {
	qualifies := answered > 0 && answered >= dailyGoal

	if existing == nil {
		streak := 0
		if qualifies {
			streak = 1
		}
		return models.UserStats{
			TotalAnswers:     answered,
			CorrectAnswers:   correct,
			CurrentStreak:    streak,
			BestStreak:       streak,
			LastAnsweredDate: today,
		}
	}

	next := *existing
	if qualifies && existing.LastAnsweredDate != today {
		if IsYesterday(existing.LastAnsweredDate, today) {
			next.CurrentStreak = existing.CurrentStreak + 1
		} else {
			next.CurrentStreak = 1
		}
	}
	next.TotalAnswers += answered
	next.CorrectAnswers += correct
	if next.CurrentStreak > next.BestStreak {
		next.BestStreak = next.CurrentStreak
	}
	next.LastAnsweredDate = today
	return next
}
