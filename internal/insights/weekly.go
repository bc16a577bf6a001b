// Package insights rolls the activity log up into weekly progress summaries.
package insights

import (
	"context"
	"strings"
	"time"

	"github.com/abhisek/pathwise/internal/apperr"
	"github.com/abhisek/pathwise/internal/attempt"
	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/logger"
	"github.com/abhisek/pathwise/internal/mastery"
	"github.com/abhisek/pathwise/internal/observability"
	"github.com/abhisek/pathwise/internal/store"
)

// Week is the rollup period.
const Week = 7 * 24 * time.Hour

// Summary is one student's activity over the trailing week.
type Summary struct {
	StudentID        string    `json:"student_id"`
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	PracticeAnswered int       `json:"practice_answered"`
	PracticeCorrect  int       `json:"practice_correct"`
	QuizzesSubmitted int       `json:"quizzes_submitted"`
	LessonsStarted   int       `json:"lessons_started"`
	LessonsCompleted int       `json:"lessons_completed"`
	ActiveDays       int       `json:"active_days"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`

	// RollingAccuracy is nil when the week holds no attempts.
	RollingAccuracy *float64             `json:"rolling_accuracy"`
	Band            mastery.BandPosition `json:"band"`
	Misconceptions  []string             `json:"misconceptions"`
	Struggle        bool                 `json:"struggle"`

	// Degraded is set when the log could not be read.
	Degraded bool `json:"degraded,omitempty"`
}

// Service computes weekly summaries.
type Service struct {
	events store.EventRepo
	config *config.Loader
	log    *logger.Logger
}

// NewService creates a weekly insights service.
func NewService(events store.EventRepo, cfg *config.Loader, log *logger.Logger) *Service {
	return &Service{events: events, config: cfg, log: logger.OrNop(log)}
}

// Weekly summarizes the student's activity in the seven days ending at now.
// A log read failure yields an empty, degraded summary.
func (s *Service) Weekly(ctx context.Context, studentID string, now time.Time) (_ *Summary, err error) {
	ctx, span := observability.StartSpan(ctx, "insights.Weekly", observability.StudentID(studentID))
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(studentID) == "" {
		return nil, apperr.New(apperr.ReasonMissingStudent, "student id is required")
	}
	cfg := s.config.Load(ctx)
	now = now.UTC()
	sum := &Summary{
		StudentID:      studentID,
		From:           now.Add(-Week),
		To:             now,
		Band:           mastery.BandUnknown,
		Misconceptions: []string{},
	}

	records, err := s.events.RecentEvents(ctx, studentID, nil, cfg.InsightWindow)
	if err != nil {
		s.log.Warn("weekly rollup failed", "student_id", studentID, "error", err)
		sum.Degraded = true
		return sum, nil
	}

	days := make(map[string]struct{})
	var attempts []attempt.Attempt
	for _, rec := range records {
		if rec.CreatedAt.Before(sum.From) || rec.CreatedAt.After(now) {
			continue
		}
		ev := attempt.DecodeRecord(rec)
		switch e := ev.(type) {
		case attempt.PracticeAnswered:
			sum.PracticeAnswered++
			if e.Correct {
				sum.PracticeCorrect++
			}
			sum.TimeSpentSeconds += seconds(e.TimeSpentSeconds)
		case attempt.QuizSubmitted:
			sum.QuizzesSubmitted++
			sum.TimeSpentSeconds += seconds(e.TimeSpentSeconds)
		case attempt.LessonStarted:
			sum.LessonsStarted++
		case attempt.LessonCompleted:
			sum.LessonsCompleted++
			sum.TimeSpentSeconds += seconds(e.TimeSpentSeconds)
		case attempt.EntryProgress:
			sum.TimeSpentSeconds += seconds(e.TimeSpentSeconds)
		default:
			// placement and unrecognized events still mark the day active
		}
		days[rec.CreatedAt.UTC().Format(time.DateOnly)] = struct{}{}
		if a, ok := attempt.FromEvent(ev, cfg.TargetAccuracyMin); ok {
			attempts = append(attempts, a)
		}
	}
	sum.ActiveDays = len(days)

	agg := mastery.Aggregate(attempts, cfg)
	sum.RollingAccuracy = agg.RollingAccuracy
	sum.Band = mastery.ResolveBand(agg.RollingAccuracy, cfg)
	if agg.Misconceptions != nil {
		sum.Misconceptions = agg.Misconceptions
	}
	sum.Struggle = agg.Struggle
	return sum, nil
}

func seconds(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}
