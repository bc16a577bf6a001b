package placement

import (
	"strconv"
	"strings"

	"github.com/abhisek/pathwise/internal/apperr"
)

// Kindergarten is the numeric grade used for "K".
const Kindergarten = 0

// MaxGrade is the highest supported grade.
const MaxGrade = 12

// ParseGrade parses "K" or a grade number.
func ParseGrade(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "GRADE ")
	if s == "K" || s == "KG" {
		return Kindergarten, nil
	}
	g, err := strconv.Atoi(s)
	if err != nil || g < Kindergarten || g > MaxGrade {
		return 0, apperr.New(apperr.ReasonInvalidGradeBand, "invalid grade %q", s)
	}
	return g, nil
}

// ExpandGradeBand expands a band such as "3-5" or "K-2" into its grades.
// A single grade expands to itself.
func ExpandGradeBand(band string) ([]int, error) {
	parts := strings.Split(strings.TrimSpace(band), "-")
	if len(parts) > 2 || strings.TrimSpace(band) == "" {
		return nil, apperr.New(apperr.ReasonInvalidGradeBand, "invalid grade band %q", band)
	}
	lo, err := ParseGrade(parts[0])
	if err != nil {
		return nil, err
	}
	hi := lo
	if len(parts) == 2 {
		if hi, err = ParseGrade(parts[1]); err != nil {
			return nil, err
		}
	}
	if hi < lo {
		return nil, apperr.New(apperr.ReasonInvalidGradeBand, "grade band %q is reversed", band)
	}
	grades := make([]int, 0, hi-lo+1)
	for g := lo; g <= hi; g++ {
		grades = append(grades, g)
	}
	return grades, nil
}
