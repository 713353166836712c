package models

import "fmt"

// Level is the per-question difficulty tag
type Level string

const (
	LevelEasy   Level = "easy"
	LevelMedium Level = "medium"
	LevelHard   Level = "hard"
)

// DefaultLevel is where every practice session begins
const DefaultLevel = LevelMedium

// ParseLevel converts a raw string into a Level, defaulting to medium when empty
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case "":
		return DefaultLevel, nil
	case LevelEasy, LevelMedium, LevelHard:
		return Level(s), nil
	default:
		return "", fmt.Errorf("invalid level %q", s)
	}
}

// Promote returns the next harder level; hard stays hard
func (l Level) Promote() Level {
	switch l {
	case LevelEasy:
		return LevelMedium
	case LevelMedium:
		return LevelHard
	default:
		return LevelHard
	}
}

// Demote returns the next easier level; easy stays easy
func (l Level) Demote() Level {
	switch l {
	case LevelHard:
		return LevelMedium
	case LevelMedium:
		return LevelEasy
	default:
		return LevelEasy
	}
}

// GradeBand is a coarse age bucket that partitions skills
type GradeBand string

const (
	GradeBandK2 GradeBand = "K-2"
	GradeBand35 GradeBand = "3-5"
	GradeBand68 GradeBand = "6-8"
)

// Valid reports whether the grade band is one of the known buckets
func (g GradeBand) Valid() bool {
	switch g {
	case GradeBandK2, GradeBand35, GradeBand68:
		return true
	}
	return false
}
