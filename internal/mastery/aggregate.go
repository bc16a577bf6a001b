// Package mastery derives accuracy, misconception and struggle signals from
// a window of recent attempts. Every function is pure: the same attempts
// and thresholds always give the same answer.
package mastery

import (
	"sort"

	"github.com/abhisek/pathwise/internal/attempt"
	"github.com/abhisek/pathwise/internal/config"
)

// misconceptionLookback is how many recent attempts per standard are
// inspected, and misconceptionMisses how many of them must be misses.
const (
	misconceptionLookback = 3
	misconceptionMisses   = 2
)

// StandardStat accumulates attempts on one standard.
type StandardStat struct {
	Standard string
	Attempts int
	Correct  int

	accuracySum float64
	accuracyN   int
}

// Accuracy is the mean non-null accuracy, or nil if none was recorded.
func (s StandardStat) Accuracy() *float64 {
	if s.accuracyN == 0 {
		return nil
	}
	v := s.accuracySum / float64(s.accuracyN)
	return &v
}

// Summary bundles every aggregate the adaptive loop consumes.
type Summary struct {
	RollingAccuracy   *float64
	Misconceptions    []string
	StretchStandard   string
	ConsecutiveMisses int
	Struggle          bool
	Standards         []StandardStat
}

// Aggregate computes a Summary from attempts ordered most recent first.
func Aggregate(attempts []attempt.Attempt, cfg config.Adaptive) Summary {
	stretch, _ := PickStretchStandard(attempts)
	return Summary{
		RollingAccuracy:   RollingAccuracy(attempts),
		Misconceptions:    DetectMisconceptions(attempts, cfg),
		StretchStandard:   stretch,
		ConsecutiveMisses: ConsecutiveMisses(attempts),
		Struggle:          Struggle(attempts, cfg),
		Standards:         StandardAccuracy(attempts),
	}
}

// RollingAccuracy is the mean of every non-null attempt accuracy.
func RollingAccuracy(attempts []attempt.Attempt) *float64 {
	sum, n := 0.0, 0
	for _, a := range attempts {
		if a.Accuracy == nil {
			continue
		}
		sum += *a.Accuracy
		n++
	}
	if n == 0 {
		return nil
	}
	v := sum / float64(n)
	return &v
}

// StandardAccuracy groups attempts by standard. Stats are ordered by the
// recency of each standard's newest attempt.
func StandardAccuracy(attempts []attempt.Attempt) []StandardStat {
	byStd := make(map[string]*StandardStat)
	var order []string
	for _, a := range attempts {
		for _, std := range a.StandardKeys() {
			st, ok := byStd[std]
			if !ok {
				st = &StandardStat{Standard: std}
				byStd[std] = st
				order = append(order, std)
			}
			st.Attempts++
			if a.Correct {
				st.Correct++
			}
			if a.Accuracy != nil {
				st.accuracySum += *a.Accuracy
				st.accuracyN++
			}
		}
	}
	out := make([]StandardStat, 0, len(order))
	for _, std := range order {
		out = append(out, *byStd[std])
	}
	return out
}

// DetectMisconceptions flags standards where at least two of the three most
// recent attempts missed with accuracy below the top of the target band.
// Results are ordered most recently evidenced first and capped at
// cfg.MisconceptionCap.
func DetectMisconceptions(attempts []attempt.Attempt, cfg config.Adaptive) []string {
	recent := make(map[string][]attempt.Attempt)
	var order []string
	for _, a := range attempts {
		for _, std := range a.StandardKeys() {
			if _, ok := recent[std]; !ok {
				order = append(order, std)
			}
			if len(recent[std]) < misconceptionLookback {
				recent[std] = append(recent[std], a)
			}
		}
	}

	var flagged []string
	for _, std := range order {
		misses := 0
		for _, a := range recent[std] {
			if isMiss(a, cfg.TargetAccuracyMax) {
				misses++
			}
		}
		if misses >= misconceptionMisses {
			flagged = append(flagged, std)
			if cfg.MisconceptionCap > 0 && len(flagged) == cfg.MisconceptionCap {
				break
			}
		}
	}
	return flagged
}

// isMiss treats an incorrect attempt as a miss unless it still scored at or
// above the top of the band. Unknown accuracy counts as a miss.
func isMiss(a attempt.Attempt, bandMax float64) bool {
	if a.Correct {
		return false
	}
	return a.Accuracy == nil || *a.Accuracy < bandMax
}

// PickStretchStandard chooses the least-covered standard, breaking ties by
// lowest accuracy so far and then by code. "general" is only chosen when no
// real standard has been seen.
func PickStretchStandard(attempts []attempt.Attempt) (string, bool) {
	stats := StandardAccuracy(attempts)
	if len(stats) == 0 {
		return "", false
	}
	candidates := make([]StandardStat, 0, len(stats))
	for _, s := range stats {
		if s.Standard != attempt.GeneralStandard {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		candidates = stats
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Attempts != b.Attempts {
			return a.Attempts < b.Attempts
		}
		accA, accB := accuracyOrFloor(a), accuracyOrFloor(b)
		if accA != accB {
			return accA < accB
		}
		return a.Standard < b.Standard
	})
	return candidates[0].Standard, true
}

func accuracyOrFloor(s StandardStat) float64 {
	if acc := s.Accuracy(); acc != nil {
		return *acc
	}
	return -1
}

// ConsecutiveMisses counts incorrect attempts from the most recent backwards.
func ConsecutiveMisses(attempts []attempt.Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.Correct {
			break
		}
		n++
	}
	return n
}

// Struggle reports whether the student is struggling: a run of misses at the
// configured threshold, rolling accuracy under the struggle floor, or a
// weakest standard under that floor.
func Struggle(attempts []attempt.Attempt, cfg config.Adaptive) bool {
	if len(attempts) == 0 {
		return false
	}
	if cfg.StruggleConsecutiveMisses > 0 && ConsecutiveMisses(attempts) >= cfg.StruggleConsecutiveMisses {
		return true
	}
	if acc := RollingAccuracy(attempts); acc != nil && *acc < cfg.StruggleAccuracy {
		return true
	}
	for _, s := range StandardAccuracy(attempts) {
		if acc := s.Accuracy(); acc != nil && *acc < cfg.StruggleAccuracy {
			return true
		}
	}
	return false
}
