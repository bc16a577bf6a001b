package placement

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/abhisek/pathwise/internal/apperr"
	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/difficulty"
	"github.com/abhisek/pathwise/internal/learningpath"
	"github.com/abhisek/pathwise/internal/logger"
	"github.com/abhisek/pathwise/internal/observability"
	"github.com/abhisek/pathwise/internal/store"
)

// SubmitRequest is a completed placement assessment.
type SubmitRequest struct {
	StudentID    string
	AssessmentID string
	Responses    []Response
	GradeBand    string
	Grade        *int
	GoalFocus    string
}

// SubmitResult is the scored attempt and the path seeded from it.
type SubmitResult struct {
	AttemptID string                 `json:"attempt_id"`
	Result    Result                 `json:"result"`
	Seed      string                 `json:"seed"`
	Path      *learningpath.Snapshot `json:"path"`
	Next      *learningpath.Entry    `json:"next"`
}

// Service scores placement submissions and builds the resulting path.
type Service struct {
	placement store.PlacementRepo
	events    store.EventRepo
	builder   *Builder
	config    *config.Loader
	log       *logger.Logger
}

// NewService creates a placement service.
func NewService(placement store.PlacementRepo, events store.EventRepo, builder *Builder, cfg *config.Loader, log *logger.Logger) *Service {
	return &Service{placement: placement, events: events, builder: builder, config: cfg, log: logger.OrNop(log)}
}

// Submit scores the responses, records the attempt and seeds a new path
// whose starting difficulty follows the mastery percentage.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (_ *SubmitResult, err error) {
	ctx, span := observability.StartSpan(ctx, "placement.Submit",
		observability.StudentID(req.StudentID), attribute.String("assessment.id", req.AssessmentID))
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(req.StudentID) == "" {
		return nil, apperr.New(apperr.ReasonMissingStudent, "student id is required")
	}
	if _, err := ExpandGradeBand(req.GradeBand); err != nil {
		return nil, err
	}
	cfg := s.config.Load(ctx)

	recs, err := s.placement.PlacementQuestions(ctx, req.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("load placement questions: %w", err)
	}
	if len(recs) == 0 {
		return nil, apperr.New(apperr.ReasonAssessmentNotFound, "assessment %q has no questions", req.AssessmentID)
	}
	questions := make([]Question, 0, len(recs))
	for _, r := range recs {
		questions = append(questions, QuestionFromRecord(r))
	}
	valid := ValidQuestions(questions)
	if len(valid) == 0 {
		return nil, apperr.New(apperr.ReasonNoValidQuestions, "assessment %q has no scorable questions", req.AssessmentID)
	}
	if dropped := len(questions) - len(valid); dropped > 0 {
		s.log.Warn("dropped invalid placement questions", "assessment_id", req.AssessmentID, "count", dropped)
	}

	result := ScoreAttempt(req.Responses, valid)
	span.SetAttributes(attribute.Int("placement.mastery_pct", result.MasteryPct))

	attemptID := uuid.NewString()
	s.recordAttempt(ctx, attemptID, req, result)

	meta := learningpath.PathMetadata{
		Source:     string(learningpath.ReasonPlacement),
		GoalFocus:  req.GoalFocus,
		MasteryPct: &result.MasteryPct,
	}
	meta.Adaptive.State = difficulty.State{CurrentDifficulty: difficulty.FromMastery(result.MasteryPct)}
	meta.Adaptive.TargetAccuracyMin = cfg.TargetAccuracyMin
	meta.Adaptive.TargetAccuracyMax = cfg.TargetAccuracyMax

	built, err := s.builder.BuildStudentPath(ctx, BuildRequest{
		StudentID: req.StudentID,
		GradeBand: req.GradeBand,
		Grade:     req.Grade,
		Limit:     cfg.PlacementPathLimit,
		Metadata:  meta,
	})
	if err != nil {
		return nil, err
	}

	return &SubmitResult{
		AttemptID: attemptID,
		Result:    result,
		Seed:      built.Seed,
		Path:      built.Snapshot,
		Next:      learningpath.ChooseAdaptiveNext(built.Snapshot.Entries),
	}, nil
}

// recordAttempt persists the scored attempt and logs a placement event.
// Both are best-effort.
func (s *Service) recordAttempt(ctx context.Context, id string, req SubmitRequest, result Result) {
	responses, _ := json.Marshal(req.Responses)
	strands, _ := json.Marshal(result.StrandEstimates)
	err := s.placement.SavePlacementAttempt(ctx, &store.PlacementAttemptRecord{
		ID:              id,
		AssessmentID:    req.AssessmentID,
		StudentID:       req.StudentID,
		Responses:       responses,
		MasteryPct:      result.MasteryPct,
		StrandEstimates: strands,
	})
	if err != nil {
		s.log.Warn("save placement attempt failed", "student_id", req.StudentID, "error", err)
	}

	payload, _ := json.Marshal(map[string]any{
		"attempt_id":    id,
		"assessment_id": req.AssessmentID,
		"mastery_pct":   result.MasteryPct,
		"grade_band":    req.GradeBand,
	})
	err = s.events.InsertEvents(ctx, []store.ActivityEvent{{
		StudentID: req.StudentID,
		EventType: store.EventPlacementCompleted,
		Payload:   payload,
	}})
	if err != nil {
		s.log.Warn("log placement event failed", "student_id", req.StudentID, "error", err)
	}
}
