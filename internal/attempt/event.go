package attempt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/pathwise/internal/store"
)

// Event is a decoded activity-log record. The set of implementations is
// closed: PracticeAnswered, QuizSubmitted, LessonCompleted, LessonStarted,
// EntryProgress and Ignored.
type Event interface {
	// Type returns the activity-log event type.
	Type() string
	// Ref returns the path-entry references the event carries.
	Ref() Target
	isEvent()
}

// Target names the path entry an event concerns, explicitly by id or by
// the module/lesson/assessment it was raised from.
type Target struct {
	EntryID      string `json:"entry_id,omitempty"`
	ModuleID     string `json:"module_id,omitempty"`
	LessonID     string `json:"lesson_id,omitempty"`
	AssessmentID string `json:"assessment_id,omitempty"`
}

// Empty reports whether no reference is set.
func (t Target) Empty() bool {
	return t.EntryID == "" && t.ModuleID == "" && t.LessonID == "" && t.AssessmentID == ""
}

// PracticeAnswered is one answered practice question.
type PracticeAnswered struct {
	Target
	Correct          bool      `json:"correct"`
	Difficulty       *int      `json:"difficulty,omitempty"`
	Standards        []string  `json:"standards,omitempty"`
	TimeSpentSeconds *float64  `json:"time_spent_s,omitempty"`
	At               time.Time `json:"-"`
}

// QuizSubmitted is a scored quiz. Score is a percentage in [0,100].
type QuizSubmitted struct {
	Target
	Score            *float64           `json:"score,omitempty"`
	Breakdown        map[string]float64 `json:"breakdown,omitempty"`
	Standards        []string           `json:"standards,omitempty"`
	Difficulty       *int               `json:"difficulty,omitempty"`
	TimeSpentSeconds *float64           `json:"time_spent_s,omitempty"`
	At               time.Time          `json:"-"`
}

// LessonCompleted marks a finished lesson.
type LessonCompleted struct {
	Target
	Standards        []string  `json:"standards,omitempty"`
	TimeSpentSeconds *float64  `json:"time_spent_s,omitempty"`
	At               time.Time `json:"-"`
}

// LessonStarted marks a lesson being opened. It never yields an Attempt.
type LessonStarted struct {
	Target
	At time.Time `json:"-"`
}

// EntryProgress is an explicit status change for a path entry.
type EntryProgress struct {
	Target
	Status           string    `json:"status"`
	TimeSpentSeconds *float64  `json:"time_spent_s,omitempty"`
	At               time.Time `json:"-"`
}

// Ignored stands in for records that carry no usable information.
type Ignored struct {
	EventType string
	Reason    string
}

func (PracticeAnswered) Type() string { return store.EventPracticeAnswered }
func (QuizSubmitted) Type() string    { return store.EventQuizSubmitted }
func (LessonCompleted) Type() string  { return store.EventLessonCompleted }
func (LessonStarted) Type() string    { return store.EventLessonStarted }
func (EntryProgress) Type() string    { return store.EventEntryProgress }
func (e Ignored) Type() string        { return e.EventType }

func (e PracticeAnswered) Ref() Target { return e.Target }
func (e QuizSubmitted) Ref() Target    { return e.Target }
func (e LessonCompleted) Ref() Target  { return e.Target }
func (e LessonStarted) Ref() Target    { return e.Target }
func (e EntryProgress) Ref() Target    { return e.Target }
func (Ignored) Ref() Target            { return Target{} }

func (PracticeAnswered) isEvent() {}
func (QuizSubmitted) isEvent()    {}
func (LessonCompleted) isEvent()  {}
func (LessonStarted) isEvent()    {}
func (EntryProgress) isEvent()    {}
func (Ignored) isEvent()          {}

// Decode turns a raw log record into a typed Event. Unknown types and
// malformed payloads decode to Ignored rather than failing.
func Decode(eventType string, payload json.RawMessage, at time.Time) Event {
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}
	switch eventType {
	case store.EventPracticeAnswered:
		var e PracticeAnswered
		if err := json.Unmarshal(payload, &e); err != nil {
			return malformed(eventType, err)
		}
		e.At = at
		e.Difficulty = validDifficulty(e.Difficulty)
		return e
	case store.EventQuizSubmitted:
		var e QuizSubmitted
		if err := json.Unmarshal(payload, &e); err != nil {
			return malformed(eventType, err)
		}
		e.At = at
		e.Difficulty = validDifficulty(e.Difficulty)
		return e
	case store.EventLessonCompleted:
		var e LessonCompleted
		if err := json.Unmarshal(payload, &e); err != nil {
			return malformed(eventType, err)
		}
		e.At = at
		return e
	case store.EventLessonStarted:
		var e LessonStarted
		if err := json.Unmarshal(payload, &e); err != nil {
			return malformed(eventType, err)
		}
		e.At = at
		return e
	case store.EventEntryProgress:
		var e EntryProgress
		if err := json.Unmarshal(payload, &e); err != nil {
			return malformed(eventType, err)
		}
		e.At = at
		return e
	default:
		return Ignored{EventType: eventType, Reason: "unrecognized event type"}
	}
}

// DecodeRecord decodes a stored activity event.
func DecodeRecord(rec store.ActivityEvent) Event {
	return Decode(rec.EventType, rec.Payload, rec.CreatedAt)
}

// Encode returns the event type and JSON payload for persisting e.
func Encode(e Event) (string, json.RawMessage, error) {
	if ig, ok := e.(Ignored); ok {
		return "", nil, fmt.Errorf("cannot encode ignored %q event", ig.EventType)
	}
	b, err := json.Marshal(e)
	if err != nil {
		return "", nil, fmt.Errorf("encode %s: %w", e.Type(), err)
	}
	return e.Type(), b, nil
}

// OccurredAt returns the event's timestamp, zero for Ignored.
func OccurredAt(e Event) time.Time {
	switch ev := e.(type) {
	case PracticeAnswered:
		return ev.At
	case QuizSubmitted:
		return ev.At
	case LessonCompleted:
		return ev.At
	case LessonStarted:
		return ev.At
	case EntryProgress:
		return ev.At
	}
	return time.Time{}
}

func malformed(eventType string, err error) Ignored {
	return Ignored{EventType: eventType, Reason: "malformed payload: " + err.Error()}
}

func validDifficulty(d *int) *int {
	if d == nil || *d < MinDifficulty || *d > MaxDifficulty {
		return nil
	}
	return d
}
