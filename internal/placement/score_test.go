package placement

import (
	"reflect"
	"testing"
)

func twoOptions(id, strand string, weight float64) Question {
	return Question{
		ID:     id,
		Strand: strand,
		Weight: weight,
		Options: []Option{
			{ID: "right", Correct: true},
			{ID: "wrong"},
		},
	}
}

func TestScoreAttempt_HalfCorrect(t *testing.T) {
	questions := []Question{twoOptions("q1", "", 1), twoOptions("q2", "", 1)}
	res := ScoreAttempt([]Response{{"q1", "right"}, {"q2", "wrong"}}, questions)
	if res.MasteryPct != 50 {
		t.Errorf("MasteryPct = %d, want 50", res.MasteryPct)
	}
	if len(res.StrandEstimates) != 1 || res.StrandEstimates[0].Strand != "general" || res.StrandEstimates[0].AccuracyPct != 50 {
		t.Errorf("StrandEstimates = %+v", res.StrandEstimates)
	}
}

func TestScoreAttempt_Rules(t *testing.T) {
	questions := []Question{
		twoOptions("q1", "fractions", 3),
		twoOptions("q2", "fractions", 0), // defaults to 1
		{ID: "q3", BankQuestionID: "bank-3", Strand: "geometry", Options: []Option{{ID: "a", Correct: true}}},
		twoOptions("q4", "geometry", 1),
	}

	tests := []struct {
		name      string
		responses []Response
		want      int
	}{
		{"none answered", nil, 0},
		{"all correct", []Response{{"q1", "right"}, {"q2", "right"}, {"bank-3", "a"}, {"q4", "right"}}, 100},
		{"weighted", []Response{{"q1", "right"}}, 50},
		{"unknown option is wrong", []Response{{"q1", "zzz"}, {"q2", "right"}}, 17},
		{"unknown question ignored", []Response{{"nope", "right"}, {"q2", "right"}}, 17},
		{"last duplicate wins", []Response{{"q1", "right"}, {"q1", "wrong"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreAttempt(tt.responses, questions)
			if got.MasteryPct != tt.want {
				t.Errorf("MasteryPct = %d, want %d", got.MasteryPct, tt.want)
			}
			if got.MasteryPct < 0 || got.MasteryPct > 100 {
				t.Errorf("MasteryPct %d out of range", got.MasteryPct)
			}
		})
	}
}

func TestScoreAttempt_StrandsSortedAndDeterministic(t *testing.T) {
	questions := []Question{
		twoOptions("q1", "number", 1),
		twoOptions("q2", "algebra", 1),
		twoOptions("q3", "number", 1),
	}
	responses := []Response{{"q1", "right"}, {"q2", "wrong"}, {"q3", "wrong"}}

	first := ScoreAttempt(responses, questions)
	want := []StrandEstimate{
		{Strand: "algebra", Correct: 0, Total: 1, AccuracyPct: 0},
		{Strand: "number", Correct: 1, Total: 2, AccuracyPct: 50},
	}
	if !reflect.DeepEqual(first.StrandEstimates, want) {
		t.Errorf("StrandEstimates = %+v, want %+v", first.StrandEstimates, want)
	}
	for i := 0; i < 5; i++ {
		if again := ScoreAttempt(responses, questions); !reflect.DeepEqual(again, first) {
			t.Fatalf("ScoreAttempt not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestValidQuestions(t *testing.T) {
	questions := []Question{
		twoOptions("ok", "", 1),
		{ID: "no-options"},
		{ID: "no-correct", Options: []Option{{ID: "a"}}},
	}
	got := ValidQuestions(questions)
	if len(got) != 1 || got[0].ID != "ok" {
		t.Errorf("ValidQuestions = %+v", got)
	}
}
