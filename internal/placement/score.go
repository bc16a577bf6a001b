// Package placement scores placement assessments and seeds a student's
// first learning path from the result.
package placement

import (
	"math"
	"sort"
	"strings"

	"github.com/abhisek/pathwise/internal/attempt"
	"github.com/abhisek/pathwise/internal/store"
)

// Option is one answer choice.
type Option struct {
	ID      string `json:"id" yaml:"id"`
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
	Correct bool   `json:"correct" yaml:"correct"`
}

// Question is a read-only placement item.
type Question struct {
	ID              string   `json:"id" yaml:"id"`
	BankQuestionID  string   `json:"bank_question_id,omitempty" yaml:"bank_question_id,omitempty"`
	Prompt          string   `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Options         []Option `json:"options" yaml:"options"`
	Weight          float64  `json:"weight,omitempty" yaml:"weight,omitempty"`
	Difficulty      int      `json:"difficulty,omitempty" yaml:"difficulty,omitempty"`
	Strand          string   `json:"strand,omitempty" yaml:"strand,omitempty"`
	TargetStandards []string `json:"target_standards,omitempty" yaml:"target_standards,omitempty"`
}

// Response is the option a student chose for a question. QuestionID may be
// either the question id or its bank question id.
type Response struct {
	QuestionID string `json:"question_id"`
	OptionID   string `json:"option_id"`
}

// StrandEstimate is the accuracy on one strand.
type StrandEstimate struct {
	Strand      string `json:"strand"`
	Correct     int    `json:"correct"`
	Total       int    `json:"total"`
	AccuracyPct int    `json:"accuracy_pct"`
}

// Result is a scored placement attempt.
type Result struct {
	MasteryPct      int              `json:"mastery_pct"`
	EarnedWeight    float64          `json:"earned_weight"`
	TotalWeight     float64          `json:"total_weight"`
	Answered        int              `json:"answered"`
	StrandEstimates []StrandEstimate `json:"strand_estimates"`
}

// weight returns the question's weight, 1 when unset or non-positive.
func (q Question) weight() float64 {
	if q.Weight <= 0 {
		return 1
	}
	return q.Weight
}

func (q Question) strand() string {
	if s := strings.TrimSpace(q.Strand); s != "" {
		return s
	}
	return attempt.GeneralStandard
}

// Valid reports whether the question can be scored: it needs options and
// at least one correct option.
func (q Question) Valid() bool {
	for _, o := range q.Options {
		if o.Correct {
			return true
		}
	}
	return false
}

// ValidQuestions filters out questions that cannot be scored.
func ValidQuestions(questions []Question) []Question {
	var out []Question
	for _, q := range questions {
		if q.Valid() {
			out = append(out, q)
		}
	}
	return out
}

// ScoreAttempt scores responses against questions. Every question counts
// toward the totals; an unanswered question, a response naming an unknown
// option, or a wrong option all score as incorrect. Responses for unknown
// questions are ignored and the last response for a question wins.
func ScoreAttempt(responses []Response, questions []Question) Result {
	chosen := make(map[string]string, len(responses))
	for _, r := range responses {
		chosen[r.QuestionID] = r.OptionID
	}

	type tally struct{ correct, total int }
	strands := make(map[string]*tally)
	var res Result

	for _, q := range questions {
		optionID, answered := chosen[q.ID]
		if !answered && q.BankQuestionID != "" {
			optionID, answered = chosen[q.BankQuestionID]
		}
		correct := answered && optionCorrect(q, optionID)
		if answered {
			res.Answered++
		}

		w := q.weight()
		res.TotalWeight += w
		if correct {
			res.EarnedWeight += w
		}

		t, ok := strands[q.strand()]
		if !ok {
			t = &tally{}
			strands[q.strand()] = t
		}
		t.total++
		if correct {
			t.correct++
		}
	}

	if res.TotalWeight > 0 {
		res.MasteryPct = clampPct(int(math.Round(100 * res.EarnedWeight / res.TotalWeight)))
	}

	names := make([]string, 0, len(strands))
	for name := range strands {
		names = append(names, name)
	}
	sort.Strings(names)
	res.StrandEstimates = make([]StrandEstimate, 0, len(names))
	for _, name := range names {
		t := strands[name]
		res.StrandEstimates = append(res.StrandEstimates, StrandEstimate{
			Strand:      name,
			Correct:     t.correct,
			Total:       t.total,
			AccuracyPct: clampPct(int(math.Round(100 * float64(t.correct) / float64(t.total)))),
		})
	}
	return res
}

func optionCorrect(q Question, optionID string) bool {
	for _, o := range q.Options {
		if o.ID == optionID {
			return o.Correct
		}
	}
	return false
}

func clampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// QuestionFromRecord converts a stored question.
func QuestionFromRecord(r store.PlacementQuestionRecord) Question {
	q := Question{
		ID:              r.ID,
		BankQuestionID:  r.BankQuestionID,
		Prompt:          r.Prompt,
		Weight:          r.Weight,
		Difficulty:      r.Difficulty,
		Strand:          r.Strand,
		TargetStandards: r.TargetStandards,
	}
	for _, o := range r.Options {
		q.Options = append(q.Options, Option{ID: o.ID, Text: o.Text, Correct: o.Correct})
	}
	return q
}
