package learningpath

import (
	"time"

	"github.com/abhisek/pathwise/internal/apperr"
	"github.com/abhisek/pathwise/internal/attempt"
)

// PracticeAttemptsToComplete is how many answered questions finish a
// review or practice entry.
const PracticeAttemptsToComplete = 5

// Progress is one observed change to an entry.
type Progress struct {
	// Status is the requested status. Backward moves are ignored.
	Status Status
	// TimeSpentSeconds, when set, is added on completion instead of the
	// wall-clock time since the entry was last started.
	TimeSpentSeconds *float64
	// Answered counts one question toward the entry's attempt counters.
	Answered bool
	Correct  bool
	// Score is a quiz percentage recorded as last_score.
	Score *float64
}

// UpdateEntryProgress applies p to e at time now and returns the updated
// entry. Status only moves forward; completing twice adds only explicit time.
func UpdateEntryProgress(e Entry, p Progress, now time.Time) Entry {
	meta := e.Metadata

	if p.Answered {
		meta.Attempts++
		if p.Correct {
			meta.CorrectAttempts++
		}
	}
	if p.Score != nil {
		score := *p.Score
		meta.LastScore = &score
	}

	target := p.Status
	if (e.Type == TypeReview || e.Type == TypePractice) && p.Answered &&
		meta.Attempts >= PracticeAttemptsToComplete && target.rank() < StatusCompleted.rank() {
		target = StatusCompleted
	}

	from := e.Status
	if !from.Valid() {
		from = StatusNotStarted
	}
	switch {
	case !target.Valid():
	case from == StatusCompleted && target == StatusCompleted:
		if p.TimeSpentSeconds != nil && *p.TimeSpentSeconds > 0 {
			meta.TimeSpentSeconds += *p.TimeSpentSeconds
		}
	case target.rank() <= from.rank():
	case target == StatusInProgress:
		t := now
		if meta.FirstStartedAt == nil {
			meta.FirstStartedAt = &t
		}
		meta.LastStartedAt = &t
		e.Status = StatusInProgress
	case target == StatusCompleted:
		t := now
		meta.CompletedAt = &t
		meta.TimeSpentSeconds += elapsed(meta, p, now)
		e.Status = StatusCompleted
	}

	e.Metadata = meta
	e.UpdatedAt = now
	return e
}

func elapsed(meta EntryMetadata, p Progress, now time.Time) float64 {
	if p.TimeSpentSeconds != nil {
		if *p.TimeSpentSeconds < 0 {
			return 0
		}
		return *p.TimeSpentSeconds
	}
	if meta.LastStartedAt == nil || now.Before(*meta.LastStartedAt) {
		return 0
	}
	return now.Sub(*meta.LastStartedAt).Seconds()
}

// ResolveTarget finds the entry an event refers to. An explicit entry id
// must exist on the path. Otherwise pending entries are matched by
// assessment, then lesson, then module id, lowest position first. A nil
// entry with nil error means nothing matched.
func ResolveTarget(entries []Entry, ref attempt.Target) (*Entry, error) {
	if ref.EntryID != "" {
		if e, ok := Find(entries, ref.EntryID); ok {
			out := *e
			return &out, nil
		}
		return nil, apperr.New(apperr.ReasonEntryNotFound, "entry %s is not on the active path", ref.EntryID)
	}

	matchers := []struct {
		want string
		get  func(Entry) string
	}{
		{ref.AssessmentID, func(e Entry) string { return e.AssessmentID }},
		{ref.LessonID, func(e Entry) string { return e.LessonID }},
		{ref.ModuleID, func(e Entry) string { return e.ModuleID }},
	}
	for _, m := range matchers {
		if m.want == "" {
			continue
		}
		var best *Entry
		for i := range entries {
			e := &entries[i]
			if !e.Pending() || m.get(*e) != m.want {
				continue
			}
			if best == nil || e.Position < best.Position {
				best = e
			}
		}
		if best != nil {
			out := *best
			return &out, nil
		}
	}
	return nil, nil
}
