package models

// UserStats holds cross-session totals and the daily-goal streak.
// LastAnsweredDate is a YYYY-MM-DD day key, empty until the first session closes.
type UserStats struct {
	ID               string `json:"id"`
	TotalAnswers     int    `json:"totalAnswers"`
	CorrectAnswers   int    `json:"correctAnswers"`
	CurrentStreak    int    `json:"currentStreak"`
	BestStreak       int    `json:"bestStreak"`
	LastAnsweredDate string `json:"lastAnsweredDate"`
}

// UserPrefs holds learner settings
type UserPrefs struct {
	ID        string    `json:"id"`
	GradeBand GradeBand `json:"gradeBand"`
	DailyGoal int       `json:"dailyGoal"`
	SoundOn   bool      `json:"soundOn"`
	Theme     string    `json:"theme"`
	Timezone  string    `json:"timezone"`
}

// Preference defaults used until the learner saves settings
const (
	DefaultDailyGoal = 20
	DefaultGradeBand = GradeBand35
	DefaultTheme     = "dark"
)

// DefaultPrefs returns the preferences used when none are stored
func DefaultPrefs(timezone string) UserPrefs {
	return UserPrefs{
		GradeBand: DefaultGradeBand,
		DailyGoal: DefaultDailyGoal,
		SoundOn:   true,
		Theme:     DefaultTheme,
		Timezone:  timezone,
	}
}

// Normalize fills zero or unknown values with defaults
func (p *UserPrefs) Normalize(timezone string) {
	if !p.GradeBand.Valid() {
		p.GradeBand = DefaultGradeBand
	}
	if p.DailyGoal < 1 {
		p.DailyGoal = DefaultDailyGoal
	}
	if p.Theme == "" {
		p.Theme = DefaultTheme
	}
	if p.Timezone == "" {
		p.Timezone = timezone
	}
}
