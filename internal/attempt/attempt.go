// Package attempt normalizes activity-log events into Attempt observations
// for the adaptive aggregators.
package attempt

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/abhisek/pathwise/internal/logger"
	"github.com/abhisek/pathwise/internal/store"
)

const (
	// MinDifficulty and MaxDifficulty bound every difficulty level.
	MinDifficulty = 1
	MaxDifficulty = 5

	// GeneralStandard stands in for attempts that carry no standard codes.
	GeneralStandard = "general"

	// MaxStandardsPerAttempt caps the standard codes kept per attempt.
	MaxStandardsPerAttempt = 4
)

// Source identifies what kind of activity produced an attempt.
type Source string

const (
	SourcePractice Source = "practice"
	SourceQuiz     Source = "quiz"
	SourceLesson   Source = "lesson"
)

// Attempt is one normalized learning observation.
type Attempt struct {
	Standards  []string  `json:"standards"`
	Correct    bool      `json:"correct"`
	Difficulty *int      `json:"difficulty"`
	Accuracy   *float64  `json:"accuracy"`
	Source     Source    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
}

// StandardKeys returns the attempt's standards, or GeneralStandard when it
// carries none.
func (a Attempt) StandardKeys() []string {
	if len(a.Standards) == 0 {
		return []string{GeneralStandard}
	}
	return a.Standards
}

// EventTypes are the activity-log types that can produce an Attempt.
var EventTypes = []string{
	store.EventPracticeAnswered,
	store.EventQuizSubmitted,
	store.EventLessonCompleted,
}

// FromEvent maps an event onto an Attempt. targetMin is the lower edge of
// the target accuracy band, used to decide whether a quiz counts as correct.
// Events that are not attempts return false.
func FromEvent(e Event, targetMin float64) (Attempt, bool) {
	switch ev := e.(type) {
	case PracticeAnswered:
		acc := 0.0
		if ev.Correct {
			acc = 1
		}
		return Attempt{
			Standards:  normalizeStandards(ev.Standards),
			Correct:    ev.Correct,
			Difficulty: ev.Difficulty,
			Accuracy:   &acc,
			Source:     SourcePractice,
			CreatedAt:  ev.At,
		}, true

	case QuizSubmitted:
		a := Attempt{
			Difficulty: ev.Difficulty,
			Source:     SourceQuiz,
			CreatedAt:  ev.At,
		}
		if ev.Score != nil {
			acc := clamp(*ev.Score/100, 0, 1)
			a.Accuracy = &acc
			a.Correct = acc >= targetMin
		}
		if len(ev.Breakdown) > 0 {
			keys := make([]string, 0, len(ev.Breakdown))
			for k := range ev.Breakdown {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			a.Standards = normalizeStandards(keys)
		} else {
			a.Standards = normalizeStandards(ev.Standards)
		}
		return a, true

	case LessonCompleted:
		acc := 1.0
		return Attempt{
			Standards: normalizeStandards(ev.Standards),
			Correct:   true,
			Accuracy:  &acc,
			Source:    SourceLesson,
			CreatedAt: ev.At,
		}, true
	}
	return Attempt{}, false
}

// Reader loads recent attempts from the activity log.
type Reader struct {
	events store.EventRepo
	log    *logger.Logger
}

// NewReader creates a Reader over the given event repository.
func NewReader(events store.EventRepo, log *logger.Logger) *Reader {
	return &Reader{events: events, log: logger.OrNop(log)}
}

// FetchRecent returns up to limit attempts for the student, most recent
// first. A store failure is logged and yields an empty list.
func (r *Reader) FetchRecent(ctx context.Context, studentID string, limit int, targetMin float64) []Attempt {
	if limit <= 0 {
		return nil
	}
	records, err := r.events.RecentEvents(ctx, studentID, EventTypes, limit)
	if err != nil {
		r.log.Warn("fetch recent attempts failed", "student_id", studentID, "error", err)
		return nil
	}

	attempts := make([]Attempt, 0, len(records))
	for _, rec := range records {
		ev := DecodeRecord(rec)
		if ig, ok := ev.(Ignored); ok {
			r.log.Debug("ignored activity event", "student_id", studentID, "event_type", ig.EventType, "reason", ig.Reason)
			continue
		}
		if a, ok := FromEvent(ev, targetMin); ok {
			attempts = append(attempts, a)
		}
	}
	return attempts
}

// normalizeStandards trims, drops blanks and duplicates, and caps the list.
func normalizeStandards(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == MaxStandardsPerAttempt {
			break
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
