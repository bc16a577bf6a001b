package learningpath

import "testing"

func TestChooseAdaptiveNext(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    string
	}{
		{"empty", nil, ""},
		{
			"all completed",
			[]Entry{{ID: "a", Type: TypeLesson, Status: StatusCompleted}},
			"",
		},
		{
			"review beats lesson",
			[]Entry{
				{ID: "lesson", Position: 1, Type: TypeLesson, Status: StatusNotStarted},
				{ID: "review", Position: 5, Type: TypeReview, Status: StatusNotStarted},
			},
			"review",
		},
		{
			"remediation reason counts as review",
			[]Entry{
				{ID: "practice", Position: 1, Type: TypePractice, Status: StatusNotStarted},
				{ID: "remedial-lesson", Position: 9, Type: TypeLesson, Status: StatusInProgress, Metadata: EntryMetadata{Reason: ReasonRemediation}},
			},
			"remedial-lesson",
		},
		{
			"stretch beats lesson",
			[]Entry{
				{ID: "lesson", Position: 1, Type: TypeLesson, Status: StatusNotStarted},
				{ID: "stretch", Position: 3, Type: TypeAssessment, Status: StatusNotStarted, Metadata: EntryMetadata{Reason: ReasonStretch}},
			},
			"stretch",
		},
		{
			"tie by position",
			[]Entry{
				{ID: "l3", Position: 3, Type: TypeLesson, Status: StatusNotStarted},
				{ID: "l2", Position: 2, Type: TypeLesson, Status: StatusInProgress},
				{ID: "l1", Position: 1, Type: TypeLesson, Status: StatusCompleted},
			},
			"l2",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChooseAdaptiveNext(tt.entries)
			switch {
			case tt.want == "" && got != nil:
				t.Errorf("ChooseAdaptiveNext = %q, want nil", got.ID)
			case tt.want != "" && got == nil:
				t.Errorf("ChooseAdaptiveNext = nil, want %q", tt.want)
			case got != nil && got.ID != tt.want:
				t.Errorf("ChooseAdaptiveNext = %q, want %q", got.ID, tt.want)
			}
		})
	}
}

func TestPendingCount(t *testing.T) {
	entries := []Entry{
		{Type: TypeReview, Status: StatusNotStarted},
		{Type: TypeReview, Status: StatusCompleted},
		{Type: TypeReview, Status: StatusInProgress},
		{Type: TypePractice, Status: StatusNotStarted},
	}
	if got := PendingCount(entries, TypeReview); got != 2 {
		t.Errorf("PendingCount(review) = %d, want 2", got)
	}
}
