package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// placementRepo implements PlacementRepo.
type placementRepo struct {
	s *Store
}

var placementQuestionColumns = []string{
	"id", "assessment_id", "bank_question_id", "prompt", "options",
	"weight", "difficulty", "strand", "target_standards", "position",
}

func (r *placementRepo) PlacementQuestions(ctx context.Context, assessmentID string) ([]PlacementQuestionRecord, error) {
	b := r.s.builder()
	sel := b.Select(placementQuestionColumns...).
		From(b.Table(placementQuestionsTable.Name)).
		Where(entsql.EQ("assessment_id", assessmentID)).
		OrderBy("position", "id")
	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query placement questions: %w", err)
	}
	defer rows.Close()

	var qs []PlacementQuestionRecord
	for rows.Next() {
		var (
			q                  PlacementQuestionRecord
			options, standards []byte
		)
		if err := rows.Scan(&q.ID, &q.AssessmentID, &q.BankQuestionID, &q.Prompt, &options,
			&q.Weight, &q.Difficulty, &q.Strand, &standards, &q.Position); err != nil {
			return nil, fmt.Errorf("scan placement question: %w", err)
		}
		if err := unmarshalJSON(options, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of question %s: %w", q.ID, err)
		}
		if err := unmarshalJSON(standards, &q.TargetStandards); err != nil {
			return nil, fmt.Errorf("decode standards of question %s: %w", q.ID, err)
		}
		qs = append(qs, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate placement questions: %w", err)
	}
	return qs, nil
}

func (r *placementRepo) UpsertPlacementQuestion(ctx context.Context, q PlacementQuestionRecord) error {
	options, err := marshalJSON(q.Options)
	if err != nil {
		return err
	}
	standards, err := marshalJSON(q.TargetStandards)
	if err != nil {
		return err
	}
	ins := r.s.builder().Insert(placementQuestionsTable.Name).
		Columns(placementQuestionColumns...).
		Values(q.ID, q.AssessmentID, q.BankQuestionID, q.Prompt, options,
			q.Weight, q.Difficulty, q.Strand, standards, q.Position).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("upsert placement question %s: %w", q.ID, err)
	}
	return nil
}

func (r *placementRepo) SavePlacementAttempt(ctx context.Context, a *PlacementAttemptRecord) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()
	ins := r.s.builder().Insert(placementAttemptsTable.Name).
		Columns("id", "assessment_id", "student_id", "responses", "mastery_pct", "strand_estimates", "created_at").
		Values(a.ID, a.AssessmentID, a.StudentID, jsonOrEmptyObject(a.Responses), a.MasteryPct,
			jsonOrEmptyObject(a.StrandEstimates), a.CreatedAt)
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("save placement attempt: %w", err)
	}
	return nil
}
