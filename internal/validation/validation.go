package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Daily goal bounds accepted from the settings form
const (
	MinDailyGoal = 1
	MaxDailyGoal = 200
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateGradeBand checks the band is one of K-2, 3-5 or 6-8
func ValidateGradeBand(band string) error {
	switch band {
	case "K-2", "3-5", "6-8":
		return nil
	case "":
		return ValidationError{Field: "gradeBand", Message: "grade band is required"}
	}
	return ValidationError{Field: "gradeBand", Message: fmt.Sprintf("unknown grade band %q", band)}
}

func ValidateDailyGoal(goal int) error {
	if goal < MinDailyGoal || goal > MaxDailyGoal {
		return ValidationError{Field: "dailyGoal", Message: fmt.Sprintf("daily goal must be between %d and %d", MinDailyGoal, MaxDailyGoal)}
	}
	return nil
}

// ValidateTimezone checks name is a loadable IANA zone. Empty means the server default.
func ValidateTimezone(name string) error {
	if name == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return ValidationError{Field: "timezone", Message: fmt.Sprintf("unknown timezone %q", name)}
	}
	return nil
}

func ValidateTheme(theme string) error {
	switch theme {
	case "", "dark", "light":
		return nil
	}
	return ValidationError{Field: "theme", Message: "theme must be dark or light"}
}
