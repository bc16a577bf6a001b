// Package learningpath owns a student's ordered path entries: choosing what
// comes next, appending adaptive entries under caps, and moving entries
// forward through their lifecycle.
package learningpath

import (
	"slices"
	"time"
)

// EntryType is the kind of work an entry represents.
type EntryType string

const (
	TypeLesson     EntryType = "lesson"
	TypeReview     EntryType = "review"
	TypePractice   EntryType = "practice"
	TypeAssessment EntryType = "assessment"
)

// Status is an entry's lifecycle position. Transitions only move forward.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

func (s Status) rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusCompleted:
		return 2
	default:
		return 0
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// Reason records why an entry was added.
type Reason string

const (
	ReasonRemediation        Reason = "remediation"
	ReasonStretch            Reason = "stretch"
	ReasonPlacement          Reason = "placement"
	ReasonAdaptiveSuggestion Reason = "adaptive_suggestion"
)

// Path is a student's learning track.
type Path struct {
	ID        string       `json:"id"`
	StudentID string       `json:"student_id"`
	Status    string       `json:"status"`
	Metadata  PathMetadata `json:"metadata"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Entry is one unit of work within a path.
type Entry struct {
	ID                  string        `json:"id"`
	PathID              string        `json:"path_id"`
	Position            int           `json:"position"`
	Type                EntryType     `json:"entry_type"`
	Status              Status        `json:"status"`
	ModuleID            string        `json:"module_id,omitempty"`
	LessonID            string        `json:"lesson_id,omitempty"`
	AssessmentID        string        `json:"assessment_id,omitempty"`
	TargetStandardCodes []string      `json:"target_standard_codes"`
	Metadata            EntryMetadata `json:"metadata"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

// Pending reports whether the entry still needs work.
func (e Entry) Pending() bool {
	return e.Status != StatusCompleted
}

// Title returns the display title, falling back to the referenced content.
func (e Entry) Title() string {
	switch {
	case e.Metadata.Title != "":
		return e.Metadata.Title
	case e.LessonID != "":
		return e.LessonID
	case e.AssessmentID != "":
		return e.AssessmentID
	case e.ModuleID != "":
		return e.ModuleID
	}
	return string(e.Type)
}

// Snapshot is a path with its entries ordered by position.
type Snapshot struct {
	Path    Path    `json:"path"`
	Entries []Entry `json:"entries"`
}

// MaxPosition returns the highest entry position, or 0 for no entries.
func MaxPosition(entries []Entry) int {
	if len(entries) == 0 {
		return 0
	}
	return slices.MaxFunc(entries, func(a, b Entry) int { return a.Position - b.Position }).Position
}

// Find returns the entry with the given id.
func Find(entries []Entry, id string) (*Entry, bool) {
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], true
		}
	}
	return nil, false
}
