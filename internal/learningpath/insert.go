package learningpath

import (
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/pathwise/internal/config"
)

// InsertOutcome reports what an append attempt did. Skips are normal
// rate-limiting, not failures. InsertFailed means the entry was allowed
// but could not be stored.
type InsertOutcome string

const (
	Inserted         InsertOutcome = "inserted"
	SkippedCap       InsertOutcome = "skipped_cap"
	SkippedDuplicate InsertOutcome = "skipped_duplicate"
	InsertFailed     InsertOutcome = "failed"
)

// NewEntry describes an entry to append.
type NewEntry struct {
	Type                EntryType
	TargetStandardCodes []string
	ModuleID            string
	LessonID            string
	AssessmentID        string
	Metadata            EntryMetadata
}

// PlanAdaptiveEntry decides whether req may be appended to the path and, if
// so, builds the entry at the next position. Review entries are capped at
// cfg.MaxRemediationPending pending, practice entries at
// cfg.MaxPracticePending, and no pending entry of the same type may already
// target an overlapping standard.
func PlanAdaptiveEntry(pathID string, entries []Entry, req NewEntry, cfg config.Adaptive, now time.Time) (Entry, InsertOutcome) {
	if limit, capped := pendingCap(req.Type, cfg); capped && PendingCount(entries, req.Type) >= limit {
		return Entry{}, SkippedCap
	}
	for _, e := range entries {
		if e.Type == req.Type && e.Pending() && overlaps(e.TargetStandardCodes, req.TargetStandardCodes) {
			return Entry{}, SkippedDuplicate
		}
	}

	return Entry{
		ID:                  uuid.NewString(),
		PathID:              pathID,
		Position:            MaxPosition(entries) + 1,
		Type:                req.Type,
		Status:              StatusNotStarted,
		ModuleID:            req.ModuleID,
		LessonID:            req.LessonID,
		AssessmentID:        req.AssessmentID,
		TargetStandardCodes: append([]string(nil), req.TargetStandardCodes...),
		Metadata:            req.Metadata,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, Inserted
}

func pendingCap(t EntryType, cfg config.Adaptive) (int, bool) {
	switch t {
	case TypeReview:
		return cfg.MaxRemediationPending, true
	case TypePractice:
		return cfg.MaxPracticePending, true
	}
	return 0, false
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
