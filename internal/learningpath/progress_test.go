package learningpath

import (
	"testing"
	"time"

	"github.com/abhisek/pathwise/internal/apperr"
	"github.com/abhisek/pathwise/internal/attempt"
)

func secs(v float64) *float64 { return &v }

func TestUpdateEntryProgress_StartThenComplete(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	e := Entry{ID: "e", Type: TypeLesson, Status: StatusNotStarted}

	e = UpdateEntryProgress(e, Progress{Status: StatusInProgress}, start)
	if e.Status != StatusInProgress {
		t.Fatalf("Status = %q, want in_progress", e.Status)
	}
	if e.Metadata.FirstStartedAt == nil || !e.Metadata.FirstStartedAt.Equal(start) {
		t.Errorf("FirstStartedAt = %v, want %v", e.Metadata.FirstStartedAt, start)
	}

	done := start.Add(90 * time.Second)
	e = UpdateEntryProgress(e, Progress{Status: StatusCompleted}, done)
	if e.Status != StatusCompleted {
		t.Fatalf("Status = %q, want completed", e.Status)
	}
	if e.Metadata.TimeSpentSeconds != 90 {
		t.Errorf("TimeSpentSeconds = %v, want 90", e.Metadata.TimeSpentSeconds)
	}
	if e.Metadata.CompletedAt == nil || !e.Metadata.CompletedAt.Equal(done) {
		t.Errorf("CompletedAt = %v, want %v", e.Metadata.CompletedAt, done)
	}

	// Completing again only adds explicit time.
	e = UpdateEntryProgress(e, Progress{Status: StatusCompleted}, done.Add(time.Hour))
	if e.Metadata.TimeSpentSeconds != 90 {
		t.Errorf("re-complete TimeSpentSeconds = %v, want 90", e.Metadata.TimeSpentSeconds)
	}
	e = UpdateEntryProgress(e, Progress{Status: StatusCompleted, TimeSpentSeconds: secs(30)}, done.Add(time.Hour))
	if e.Metadata.TimeSpentSeconds != 120 {
		t.Errorf("explicit re-complete TimeSpentSeconds = %v, want 120", e.Metadata.TimeSpentSeconds)
	}
	if !e.Metadata.CompletedAt.Equal(done) {
		t.Errorf("CompletedAt moved to %v", e.Metadata.CompletedAt)
	}
}

func TestUpdateEntryProgress_NoRegression(t *testing.T) {
	e := Entry{Type: TypeLesson, Status: StatusCompleted}
	e = UpdateEntryProgress(e, Progress{Status: StatusInProgress}, time.Now())
	if e.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", e.Status)
	}

	e = Entry{Type: TypeLesson, Status: StatusInProgress}
	e = UpdateEntryProgress(e, Progress{Status: StatusNotStarted}, time.Now())
	if e.Status != StatusInProgress {
		t.Errorf("Status = %q, want in_progress", e.Status)
	}
}

func TestUpdateEntryProgress_ExplicitTimeOnDirectComplete(t *testing.T) {
	e := UpdateEntryProgress(Entry{Type: TypeAssessment, Status: StatusNotStarted},
		Progress{Status: StatusCompleted, TimeSpentSeconds: secs(42), Score: secs(75)}, time.Now())
	if e.Metadata.TimeSpentSeconds != 42 {
		t.Errorf("TimeSpentSeconds = %v, want 42", e.Metadata.TimeSpentSeconds)
	}
	if e.Metadata.LastScore == nil || *e.Metadata.LastScore != 75 {
		t.Errorf("LastScore = %v, want 75", e.Metadata.LastScore)
	}
}

func TestUpdateEntryProgress_PracticeCounters(t *testing.T) {
	e := Entry{Type: TypeReview, Status: StatusNotStarted}
	now := time.Now()
	for i := 0; i < PracticeAttemptsToComplete; i++ {
		e = UpdateEntryProgress(e, Progress{Status: StatusInProgress, Answered: true, Correct: i%2 == 0}, now)
		if i < PracticeAttemptsToComplete-1 && e.Status != StatusInProgress {
			t.Fatalf("after %d answers Status = %q", i+1, e.Status)
		}
	}
	if e.Status != StatusCompleted {
		t.Errorf("Status = %q, want completed", e.Status)
	}
	if e.Metadata.Attempts != PracticeAttemptsToComplete || e.Metadata.CorrectAttempts != 3 {
		t.Errorf("counters = %d/%d, want %d/3", e.Metadata.CorrectAttempts, e.Metadata.Attempts, PracticeAttemptsToComplete)
	}
}

func TestResolveTarget(t *testing.T) {
	entries := []Entry{
		{ID: "done", Position: 1, Type: TypeLesson, Status: StatusCompleted, LessonID: "l1", ModuleID: "m1"},
		{ID: "l1-late", Position: 4, Type: TypeLesson, Status: StatusNotStarted, LessonID: "l1", ModuleID: "m1"},
		{ID: "l1-early", Position: 2, Type: TypeLesson, Status: StatusInProgress, LessonID: "l1", ModuleID: "m1"},
		{ID: "quiz", Position: 3, Type: TypeAssessment, Status: StatusNotStarted, AssessmentID: "a1", ModuleID: "m1"},
	}

	tests := []struct {
		name string
		ref  attempt.Target
		want string
	}{
		{"explicit", attempt.Target{EntryID: "done"}, "done"},
		{"assessment first", attempt.Target{AssessmentID: "a1", LessonID: "l1"}, "quiz"},
		{"lesson lowest pending position", attempt.Target{LessonID: "l1"}, "l1-early"},
		{"module", attempt.Target{ModuleID: "m1"}, "l1-early"},
		{"fall through unknown assessment", attempt.Target{AssessmentID: "zz", LessonID: "l1"}, "l1-early"},
		{"nothing", attempt.Target{LessonID: "nope"}, ""},
		{"empty", attempt.Target{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(entries, tt.ref)
			if err != nil {
				t.Fatalf("ResolveTarget: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("ResolveTarget = %q, want nil", got.ID)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Errorf("ResolveTarget = %v, want %q", got, tt.want)
			}
		})
	}

	_, err := ResolveTarget(entries, attempt.Target{EntryID: "missing"})
	if !apperr.Is(err, apperr.ReasonEntryNotFound) {
		t.Errorf("missing explicit entry error = %v, want entry_not_found", err)
	}
}
