package store

import (
	"context"
	"encoding/json"
	"time"
)

// Activity event types written to the log.
const (
	EventPracticeAnswered   = "practice_answered"
	EventQuizSubmitted      = "quiz_submitted"
	EventLessonCompleted    = "lesson_completed"
	EventLessonStarted      = "lesson_started"
	EventEntryProgress      = "entry_progress"
	EventPlacementCompleted = "placement_completed"
)

// Path statuses.
const (
	PathActive = "active"
	PathPaused = "paused"
)

// ActivityEvent is one row of the student activity log.
type ActivityEvent struct {
	ID        int64
	Sequence  int64
	StudentID string
	EventType string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// EventRepo provides append and recency access to the activity log.
type EventRepo interface {
	// RecentEvents returns up to limit events of the given types for a
	// student, most recent first. An empty eventTypes matches every type.
	RecentEvents(ctx context.Context, studentID string, eventTypes []string, limit int) ([]ActivityEvent, error)

	// InsertEvents appends events, stamping sequence (and created_at when zero).
	InsertEvents(ctx context.Context, events []ActivityEvent) error
}

// PathRecord is a stored learning path.
type PathRecord struct {
	ID        string
	StudentID string
	Status    string
	Metadata  json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PathEntryRecord is a stored unit of work within a path.
type PathEntryRecord struct {
	ID                  string
	PathID              string
	Position            int
	EntryType           string
	Status              string
	ModuleID            string
	LessonID            string
	AssessmentID        string
	TargetStandardCodes []string
	Metadata            json.RawMessage
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PathRepo manages paths and their entries.
type PathRepo interface {
	// ActivePath returns the student's active path, or nil if none exists.
	ActivePath(ctx context.Context, studentID string) (*PathRecord, error)

	// GetPath returns a path by id, or nil if it does not exist.
	GetPath(ctx context.Context, pathID string) (*PathRecord, error)

	// CreatePath inserts a new path.
	CreatePath(ctx context.Context, p *PathRecord) error

	// PauseActivePaths marks every active path of the student paused and
	// returns how many were changed.
	PauseActivePaths(ctx context.Context, studentID string) (int, error)

	// UpdatePathMetadata replaces a path's metadata blob.
	UpdatePathMetadata(ctx context.Context, pathID string, metadata json.RawMessage) error

	// ListEntries returns a path's entries ordered by position.
	ListEntries(ctx context.Context, pathID string) ([]PathEntryRecord, error)

	// UpsertEntry inserts or fully replaces an entry by id.
	UpsertEntry(ctx context.Context, e *PathEntryRecord) error

	// InsertEntries bulk-inserts new entries.
	InsertEntries(ctx context.Context, entries []PathEntryRecord) error

	// ReplaceActivePath pauses the student's active paths and inserts p with
	// its entries in one transaction. It returns how many paths were paused.
	ReplaceActivePath(ctx context.Context, p *PathRecord, entries []PathEntryRecord) (int, error)
}

// ModuleRecord is one catalog module.
type ModuleRecord struct {
	ID            string
	Title         string
	Strand        string
	GradeLevels   []int
	StandardCodes []string
	LessonIDs     []string
	SortOrder     int
}

// CatalogRepo provides access to the module catalog and curated sequences.
type CatalogRepo interface {
	// CanonicalSequence returns the curated modules for a grade band in
	// sequence order. Missing modules are skipped.
	CanonicalSequence(ctx context.Context, gradeBand string) ([]ModuleRecord, error)

	// ModulesForGrades returns modules tagged with any of the grades.
	ModulesForGrades(ctx context.Context, grades []int) ([]ModuleRecord, error)

	// ListModules returns up to limit modules in catalog order (0 = all).
	ListModules(ctx context.Context, limit int) ([]ModuleRecord, error)

	// UpsertModule inserts or replaces a module.
	UpsertModule(ctx context.Context, m ModuleRecord) error

	// ReplaceCanonicalSequence overwrites the curated sequence for a band.
	ReplaceCanonicalSequence(ctx context.Context, gradeBand string, moduleIDs []string) error
}

// OptionRecord is one answer option of a placement question.
type OptionRecord struct {
	ID      string `json:"id"`
	Text    string `json:"text,omitempty"`
	Correct bool   `json:"correct"`
}

// PlacementQuestionRecord is one stored placement question.
type PlacementQuestionRecord struct {
	ID              string
	AssessmentID    string
	BankQuestionID  string
	Prompt          string
	Options         []OptionRecord
	Weight          float64
	Difficulty      int
	Strand          string
	TargetStandards []string
	Position        int
}

// PlacementAttemptRecord is a scored placement submission.
type PlacementAttemptRecord struct {
	ID              string
	AssessmentID    string
	StudentID       string
	Responses       json.RawMessage
	MasteryPct      int
	StrandEstimates json.RawMessage
	CreatedAt       time.Time
}

// PlacementRepo provides placement content and attempt persistence.
type PlacementRepo interface {
	// PlacementQuestions returns an assessment's questions by position.
	PlacementQuestions(ctx context.Context, assessmentID string) ([]PlacementQuestionRecord, error)

	// UpsertPlacementQuestion inserts or replaces a question.
	UpsertPlacementQuestion(ctx context.Context, q PlacementQuestionRecord) error

	// SavePlacementAttempt records a scored attempt.
	SavePlacementAttempt(ctx context.Context, a *PlacementAttemptRecord) error
}

// SettingsRepo is a flat key/value store for operator-tunable settings.
type SettingsRepo interface {
	// Settings returns every stored setting.
	Settings(ctx context.Context) (map[string]string, error)

	// PutSetting inserts or replaces a setting.
	PutSetting(ctx context.Context, key, value string) error

	// DeleteSetting removes a setting. Missing keys are not an error.
	DeleteSetting(ctx context.Context, key string) error
}
