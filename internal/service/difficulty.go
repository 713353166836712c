package service

import "mathdrill/internal/models"

// Answer runs that move the session level
const (
	PromoteAfter = 3
	DemoteAfter  = 2
)

// LevelChange describes how an answer moved the session level
type LevelChange string

const (
	LevelSame LevelChange = ""
	LevelUp   LevelChange = "up"
	LevelDown LevelChange = "down"
)

// Adaptation is the per-session difficulty state machine.
// The level moves at most one step per answer.
type Adaptation struct {
	Level                models.Level
	ConsecutiveCorrect   int
	ConsecutiveIncorrect int
}

// NewAdaptation starts at the default level with clear counters
func NewAdaptation() Adaptation {
	return Adaptation{Level: models.DefaultLevel}
}

// Record applies one answer. It returns the correct-run length counted for this
// answer before any promotion reset, and the resulting level change.
//
// A run of PromoteAfter corrects promotes and clears the counter; at hard the
// run keeps growing. A run of DemoteAfter misses demotes and clears the counter;
// at easy the run keeps growing. Any answer clears the opposite counter.
func (a *Adaptation) Record(correct bool) (int, LevelChange) {
	if correct {
		a.ConsecutiveIncorrect = 0
		a.ConsecutiveCorrect++
		run := a.ConsecutiveCorrect
		if run >= PromoteAfter && a.Level != models.LevelHard {
			a.Level = a.Level.Promote()
			a.ConsecutiveCorrect = 0
			return run, LevelUp
		}
		return run, LevelSame
	}

	a.ConsecutiveCorrect = 0
	a.ConsecutiveIncorrect++
	if a.ConsecutiveIncorrect >= DemoteAfter && a.Level != models.LevelEasy {
		a.Level = a.Level.Demote()
		a.ConsecutiveIncorrect = 0
		return 0, LevelDown
	}
	return 0, LevelSame
}
