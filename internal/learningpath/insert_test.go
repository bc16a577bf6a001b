package learningpath

import (
	"testing"
	"time"

	"github.com/abhisek/pathwise/internal/config"
)

func TestPlanAdaptiveEntry_PositionAfterGaps(t *testing.T) {
	entries := []Entry{
		{ID: "a", Position: 1, Type: TypeLesson, Status: StatusCompleted},
		{ID: "b", Position: 7, Type: TypeLesson, Status: StatusNotStarted},
	}
	now := time.Now()
	e, outcome := PlanAdaptiveEntry("p1", entries, NewEntry{Type: TypeReview, TargetStandardCodes: []string{"x"}}, config.DefaultAdaptive(), now)
	if outcome != Inserted {
		t.Fatalf("outcome = %q, want inserted", outcome)
	}
	if e.Position != 8 {
		t.Errorf("Position = %d, want 8", e.Position)
	}
	if e.PathID != "p1" || e.Status != StatusNotStarted || e.ID == "" {
		t.Errorf("entry = %+v", e)
	}
}

func TestPlanAdaptiveEntry_Caps(t *testing.T) {
	cfg := config.DefaultAdaptive()

	var entries []Entry
	for i, std := range []string{"a", "b", "c", "d"} {
		e, outcome := PlanAdaptiveEntry("p1", entries, NewEntry{Type: TypeReview, TargetStandardCodes: []string{std}}, cfg, time.Now())
		want := Inserted
		if i >= cfg.MaxRemediationPending {
			want = SkippedCap
		}
		if outcome != want {
			t.Fatalf("insert %s: outcome = %q, want %q", std, outcome, want)
		}
		if outcome == Inserted {
			entries = append(entries, e)
		}
	}
	if got := PendingCount(entries, TypeReview); got != cfg.MaxRemediationPending {
		t.Errorf("pending reviews = %d, want %d", got, cfg.MaxRemediationPending)
	}

	// Completing one frees a slot.
	entries[0].Status = StatusCompleted
	if _, outcome := PlanAdaptiveEntry("p1", entries, NewEntry{Type: TypeReview, TargetStandardCodes: []string{"e"}}, cfg, time.Now()); outcome != Inserted {
		t.Errorf("after completion outcome = %q, want inserted", outcome)
	}

	// Practice has its own cap.
	for i := 0; i < cfg.MaxPracticePending; i++ {
		e, outcome := PlanAdaptiveEntry("p1", entries, NewEntry{Type: TypePractice, TargetStandardCodes: []string{string(rune('p' + i))}}, cfg, time.Now())
		if outcome != Inserted {
			t.Fatalf("practice %d outcome = %q", i, outcome)
		}
		entries = append(entries, e)
	}
	if _, outcome := PlanAdaptiveEntry("p1", entries, NewEntry{Type: TypePractice, TargetStandardCodes: []string{"z"}}, cfg, time.Now()); outcome != SkippedCap {
		t.Errorf("practice over cap outcome = %q, want skipped_cap", outcome)
	}
}

func TestPlanAdaptiveEntry_Duplicate(t *testing.T) {
	cfg := config.DefaultAdaptive()
	entries := []Entry{
		{ID: "r", Position: 1, Type: TypeReview, Status: StatusNotStarted, TargetStandardCodes: []string{"S", "T"}},
		{ID: "done", Position: 2, Type: TypeReview, Status: StatusCompleted, TargetStandardCodes: []string{"U"}},
	}

	tests := []struct {
		name string
		req  NewEntry
		want InsertOutcome
	}{
		{"overlap pending review", NewEntry{Type: TypeReview, TargetStandardCodes: []string{"T"}}, SkippedDuplicate},
		{"completed review does not block", NewEntry{Type: TypeReview, TargetStandardCodes: []string{"U"}}, Inserted},
		{"other type does not block", NewEntry{Type: TypePractice, TargetStandardCodes: []string{"S"}}, Inserted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, got := PlanAdaptiveEntry("p1", entries, tt.req, cfg, time.Now()); got != tt.want {
				t.Errorf("outcome = %q, want %q", got, tt.want)
			}
		})
	}
}
