// Package difficulty holds the bounded difficulty state machine that moves a
// student's working level one step at a time.
package difficulty

import (
	"github.com/abhisek/pathwise/internal/attempt"
	"github.com/abhisek/pathwise/internal/config"
)

// streakToRaise is the run of on-level correct answers that raises difficulty.
const streakToRaise = 2

// State is the per-path difficulty position.
type State struct {
	CurrentDifficulty int `json:"current_difficulty"`
	DifficultyStreak  int `json:"difficulty_streak"`
}

// Initial returns the starting state for a new path.
func Initial() State {
	return State{CurrentDifficulty: attempt.MinDifficulty}
}

// Normalize clamps a state read from storage into its valid range.
func (s State) Normalize() State {
	if s.CurrentDifficulty < attempt.MinDifficulty {
		s.CurrentDifficulty = attempt.MinDifficulty
	}
	if s.CurrentDifficulty > attempt.MaxDifficulty {
		s.CurrentDifficulty = attempt.MaxDifficulty
	}
	if s.DifficultyStreak < 0 {
		s.DifficultyStreak = 0
	}
	return s
}

// Reason explains a difficulty change.
type Reason string

const (
	ReasonNone     Reason = ""
	ReasonStreak   Reason = "streak"
	ReasonMiss     Reason = "miss_below_band"
	ReasonBandHigh Reason = "above_band"
	ReasonBandLow  Reason = "below_band"
)

// Change describes one Step.
type Change struct {
	From   int
	To     int
	Reason Reason
}

// Changed reports whether the difficulty moved.
func (c Change) Changed() bool { return c.From != c.To }

// Input is what one Step observes.
type Input struct {
	// Latest is the newest attempt, nil when the event produced none.
	Latest *attempt.Attempt
	// RollingAccuracy is the accuracy over the adaptation window.
	RollingAccuracy *float64
	// History is the number of attempts in the window.
	History int
}

// Step advances the state once for an adaptive event. The difficulty moves
// by at most one level per call. The per-attempt rule runs first when the
// event produced an attempt; the band correction applies whenever that rule
// left the level unchanged and the window holds at least cfg.BandMinAttempts
// attempts, including events with no attempt of their own.
func Step(s State, in Input, cfg config.Adaptive) (State, Change) {
	s = s.Normalize()
	change := Change{From: s.CurrentDifficulty, To: s.CurrentDifficulty}

	a := in.Latest
	switch {
	case a == nil:
	case a.Correct && (a.Difficulty == nil || *a.Difficulty == s.CurrentDifficulty):
		s.DifficultyStreak++
		if s.DifficultyStreak >= streakToRaise {
			s.DifficultyStreak = 0
			if s.CurrentDifficulty < attempt.MaxDifficulty {
				s.CurrentDifficulty++
				change.Reason = ReasonStreak
			}
		}
	case !a.Correct:
		s.DifficultyStreak = 0
		if in.RollingAccuracy != nil && *in.RollingAccuracy < cfg.TargetAccuracyMin &&
			s.CurrentDifficulty > attempt.MinDifficulty {
			s.CurrentDifficulty--
			change.Reason = ReasonMiss
		}
	default:
		s.DifficultyStreak = 1
	}

	if change.Reason == ReasonNone && in.RollingAccuracy != nil && in.History >= cfg.BandMinAttempts {
		acc := *in.RollingAccuracy
		switch {
		case acc > cfg.TargetAccuracyMax+cfg.BandSlack && s.CurrentDifficulty < attempt.MaxDifficulty:
			s.CurrentDifficulty++
			s.DifficultyStreak = 0
			change.Reason = ReasonBandHigh
		case acc < cfg.TargetAccuracyMin-cfg.BandSlack && s.CurrentDifficulty > attempt.MinDifficulty:
			s.CurrentDifficulty--
			s.DifficultyStreak = 0
			change.Reason = ReasonBandLow
		}
	}

	change.To = s.CurrentDifficulty
	return s, change
}

// FromMastery seeds a starting difficulty from a placement mastery percentage.
func FromMastery(masteryPct int) int {
	switch {
	case masteryPct < 40:
		return 1
	case masteryPct < 55:
		return 2
	case masteryPct < 70:
		return 3
	case masteryPct < 85:
		return 4
	default:
		return 5
	}
}
