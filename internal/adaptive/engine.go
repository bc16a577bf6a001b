// Package adaptive is the per-event entry point of the learning-path engine.
package adaptive

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/pathwise/internal/apperr"
	"github.com/abhisek/pathwise/internal/attempt"
	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/difficulty"
	"github.com/abhisek/pathwise/internal/learningpath"
	"github.com/abhisek/pathwise/internal/logger"
	"github.com/abhisek/pathwise/internal/mastery"
	"github.com/abhisek/pathwise/internal/observability"
	"github.com/abhisek/pathwise/internal/store"
)

// Event is an incoming learning event.
type Event struct {
	StudentID  string          `json:"student_id"`
	Type       string          `json:"event_type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// View is the refreshed state returned after an event.
type View struct {
	Path     *learningpath.Snapshot `json:"path"`
	Next     *learningpath.Entry    `json:"next"`
	Adaptive AdaptiveView           `json:"adaptive"`
}

// AdaptiveView summarizes the adaptive state for clients.
type AdaptiveView struct {
	TargetDifficulty int                  `json:"target_difficulty"`
	DifficultyStreak int                  `json:"difficulty_streak"`
	Misconceptions   []string             `json:"misconceptions"`
	RecentAttempts   []attempt.Attempt    `json:"recent_attempts"`
	RollingAccuracy  *float64             `json:"rolling_accuracy"`
	Band             mastery.BandPosition `json:"band"`
	Struggle         bool                 `json:"struggle"`
	Change           *difficulty.Change   `json:"difficulty_change,omitempty"`
	Inserted         []InsertReport       `json:"inserted,omitempty"`
}

// InsertReport records one remediation or stretch insertion attempt.
type InsertReport struct {
	Reason    learningpath.Reason        `json:"reason"`
	Standards []string                   `json:"standards"`
	Outcome   learningpath.InsertOutcome `json:"outcome"`
	EntryID   string                     `json:"entry_id,omitempty"`
}

// Engine processes adaptive events against the store.
type Engine struct {
	paths  *learningpath.Service
	events store.EventRepo
	reader *attempt.Reader
	config *config.Loader
	log    *logger.Logger
	now    func() time.Time
}

// NewEngine wires an engine over the given repositories.
func NewEngine(paths store.PathRepo, events store.EventRepo, cfg *config.Loader, log *logger.Logger) *Engine {
	log = logger.OrNop(log)
	return &Engine{
		paths:  learningpath.NewService(paths, log),
		events: events,
		reader: attempt.NewReader(events, log),
		config: cfg,
		log:    log,
		now:    time.Now,
	}
}

// HandleEvent records ev, advances the student's active path and adaptive
// state, inserts remediation or stretch entries when warranted, and returns
// the refreshed view. Only a missing student, an unusable event, an unknown
// explicit entry, or a path that cannot be loaded fail the call.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) (_ *View, err error) {
	ctx, span := observability.StartSpan(ctx, "adaptive.HandleEvent",
		observability.StudentID(ev.StudentID), attribute.String("event.type", ev.Type))
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(ev.StudentID) == "" {
		return nil, apperr.New(apperr.ReasonMissingStudent, "student id is required")
	}
	at := ev.OccurredAt
	if at.IsZero() {
		at = e.now()
	}
	at = at.UTC()

	decoded := attempt.Decode(ev.Type, ev.Payload, at)
	if ig, ok := decoded.(attempt.Ignored); ok {
		return nil, apperr.New(apperr.ReasonInvalidEvent, "%s: %s", ig.EventType, ig.Reason)
	}
	cfg := e.config.Load(ctx)
	progress, err := progressFor(decoded, cfg.TargetAccuracyMin)
	if err != nil {
		return nil, err
	}

	snap, history, err := e.load(ctx, ev.StudentID, cfg)
	if err != nil {
		return nil, err
	}

	// The incoming event is not in the log yet; it becomes the newest attempt.
	var latest *attempt.Attempt
	if a, ok := attempt.FromEvent(decoded, cfg.TargetAccuracyMin); ok {
		latest = &a
		history = append([]attempt.Attempt{a}, history...)
		if len(history) > cfg.AdaptationWindow {
			history = history[:cfg.AdaptationWindow]
		}
	}

	target, err := learningpath.ResolveTarget(snap.Entries, decoded.Ref())
	if err != nil {
		return nil, err
	}
	if target != nil {
		updated := learningpath.UpdateEntryProgress(*target, progress, at)
		if err := e.paths.SaveEntry(ctx, updated); err != nil {
			return nil, fmt.Errorf("save entry progress: %w", err)
		}
		replaceEntry(snap.Entries, updated)
		span.SetAttributes(attribute.String("entry.id", updated.ID))
	}

	e.logEvent(ctx, ev.StudentID, decoded, target)

	summary := mastery.Aggregate(history, cfg)
	prev := snap.Path.Metadata.Adaptive
	state, change := difficulty.Step(prev.State, difficulty.Input{
		Latest:          latest,
		RollingAccuracy: summary.RollingAccuracy,
		History:         len(history),
	}, cfg)
	if change.Changed() {
		e.log.Info("difficulty changed", "student_id", ev.StudentID, "from", change.From, "to", change.To, "reason", change.Reason)
	}

	updatedAt := at
	snap.Path.Metadata.Adaptive = learningpath.AdaptiveState{
		State:             state,
		TargetAccuracyMin: cfg.TargetAccuracyMin,
		TargetAccuracyMax: cfg.TargetAccuracyMax,
		Misconceptions:    summary.Misconceptions,
		RollingAccuracy:   summary.RollingAccuracy,
		UpdatedAt:         &updatedAt,
	}
	if err := e.paths.SaveMetadata(ctx, snap.Path); err != nil {
		e.log.Warn("persist adaptive state failed", "student_id", ev.StudentID, "path_id", snap.Path.ID, "error", err)
	}

	// Every flagged standard is offered on each event. Caps and pending
	// duplicates bound what actually lands on the path.
	var reports []InsertReport
	for _, std := range summary.Misconceptions {
		reports = append(reports, e.insert(ctx, snap, cfg, learningpath.NewEntry{
			Type:                learningpath.TypeReview,
			TargetStandardCodes: []string{std},
			Metadata: learningpath.EntryMetadata{
				Reason: learningpath.ReasonRemediation,
				Title:  "Review " + std,
			},
		}))
	}
	if summary.RollingAccuracy != nil && *summary.RollingAccuracy > cfg.TargetAccuracyMax && summary.StretchStandard != "" {
		reports = append(reports, e.insert(ctx, snap, cfg, learningpath.NewEntry{
			Type:                learningpath.TypePractice,
			TargetStandardCodes: []string{summary.StretchStandard},
			Metadata: learningpath.EntryMetadata{
				Reason: learningpath.ReasonStretch,
				Title:  "Stretch " + summary.StretchStandard,
			},
		}))
	}

	if reloaded, err := e.paths.Load(ctx, snap.Path.ID); err != nil {
		e.log.Warn("reload path failed", "student_id", ev.StudentID, "path_id", snap.Path.ID, "error", err)
	} else if reloaded != nil {
		reloaded.Path.Metadata = snap.Path.Metadata
		snap = reloaded
	}

	view := buildView(snap, history, summary, cfg)
	if change.Changed() {
		view.Adaptive.Change = &change
	}
	view.Adaptive.Inserted = reports
	return view, nil
}

// Current returns the view for the student's active path without recording
// anything.
func (e *Engine) Current(ctx context.Context, studentID string) (_ *View, err error) {
	ctx, span := observability.StartSpan(ctx, "adaptive.Current", observability.StudentID(studentID))
	defer observability.FinishSpan(span, &err)

	if strings.TrimSpace(studentID) == "" {
		return nil, apperr.New(apperr.ReasonMissingStudent, "student id is required")
	}
	cfg := e.config.Load(ctx)
	snap, history, err := e.load(ctx, studentID, cfg)
	if err != nil {
		return nil, err
	}
	return buildView(snap, history, mastery.Aggregate(history, cfg), cfg), nil
}

// load reads the active path and the recent attempts concurrently. Only the
// path is required.
func (e *Engine) load(ctx context.Context, studentID string, cfg config.Adaptive) (*learningpath.Snapshot, []attempt.Attempt, error) {
	var (
		snap    *learningpath.Snapshot
		history []attempt.Attempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, err = e.paths.LoadActive(gctx, studentID)
		return err
	})
	g.Go(func() error {
		history = e.reader.FetchRecent(gctx, studentID, cfg.AdaptationWindow, cfg.TargetAccuracyMin)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if snap == nil {
		return nil, nil, apperr.New(apperr.ReasonNoActivePath, "student %s has no active path", studentID)
	}
	return snap, history, nil
}

func (e *Engine) insert(ctx context.Context, snap *learningpath.Snapshot, cfg config.Adaptive, req learningpath.NewEntry) InsertReport {
	report := InsertReport{Reason: req.Metadata.Reason, Standards: req.TargetStandardCodes}
	entry, outcome, err := e.paths.AppendAdaptiveEntry(ctx, snap.Path, &snap.Entries, req, cfg)
	report.Outcome = outcome
	if err != nil {
		report.Outcome = learningpath.InsertFailed
		e.log.Warn("adaptive entry insert failed", "student_id", snap.Path.StudentID, "reason", req.Metadata.Reason, "error", err)
		return report
	}
	if entry != nil {
		report.EntryID = entry.ID
		e.log.Info("adaptive entry inserted", "student_id", snap.Path.StudentID, "reason", req.Metadata.Reason,
			"standards", req.TargetStandardCodes, "position", entry.Position)
	}
	return report
}

func (e *Engine) logEvent(ctx context.Context, studentID string, ev attempt.Event, target *learningpath.Entry) {
	if target != nil && ev.Ref().EntryID == "" {
		ev = withEntryID(ev, target.ID)
	}
	typ, payload, err := attempt.Encode(ev)
	if err == nil {
		err = e.events.InsertEvents(ctx, []store.ActivityEvent{{
			StudentID: studentID,
			EventType: typ,
			Payload:   payload,
			CreatedAt: attempt.OccurredAt(ev),
		}})
	}
	if err != nil {
		e.log.Warn("record activity event failed", "student_id", studentID, "event_type", ev.Type(), "error", err)
	}
}

// progressFor maps an event onto the progress it makes on its entry.
func progressFor(ev attempt.Event, targetMin float64) (learningpath.Progress, error) {
	switch e := ev.(type) {
	case attempt.PracticeAnswered:
		return learningpath.Progress{
			Status:           learningpath.StatusInProgress,
			TimeSpentSeconds: e.TimeSpentSeconds,
			Answered:         true,
			Correct:          e.Correct,
		}, nil
	case attempt.QuizSubmitted:
		a, _ := attempt.FromEvent(e, targetMin)
		return learningpath.Progress{
			Status:           learningpath.StatusCompleted,
			TimeSpentSeconds: e.TimeSpentSeconds,
			Answered:         true,
			Correct:          a.Correct,
			Score:            e.Score,
		}, nil
	case attempt.LessonCompleted:
		return learningpath.Progress{Status: learningpath.StatusCompleted, TimeSpentSeconds: e.TimeSpentSeconds}, nil
	case attempt.LessonStarted:
		return learningpath.Progress{Status: learningpath.StatusInProgress}, nil
	case attempt.EntryProgress:
		status := learningpath.Status(e.Status)
		if !status.Valid() {
			return learningpath.Progress{}, apperr.New(apperr.ReasonInvalidEvent, "unknown entry status %q", e.Status)
		}
		return learningpath.Progress{Status: status, TimeSpentSeconds: e.TimeSpentSeconds}, nil
	}
	return learningpath.Progress{}, apperr.New(apperr.ReasonInvalidEvent, "unsupported event %q", ev.Type())
}

func withEntryID(ev attempt.Event, id string) attempt.Event {
	switch e := ev.(type) {
	case attempt.PracticeAnswered:
		e.EntryID = id
		return e
	case attempt.QuizSubmitted:
		e.EntryID = id
		return e
	case attempt.LessonCompleted:
		e.EntryID = id
		return e
	case attempt.LessonStarted:
		e.EntryID = id
		return e
	case attempt.EntryProgress:
		e.EntryID = id
		return e
	}
	return ev
}

func replaceEntry(entries []learningpath.Entry, updated learningpath.Entry) {
	for i := range entries {
		if entries[i].ID == updated.ID {
			entries[i] = updated
			return
		}
	}
}

func buildView(snap *learningpath.Snapshot, history []attempt.Attempt, summary mastery.Summary, cfg config.Adaptive) *View {
	state := snap.Path.Metadata.Adaptive
	misconceptions := state.Misconceptions
	if misconceptions == nil {
		misconceptions = summary.Misconceptions
	}
	if history == nil {
		history = []attempt.Attempt{}
	}
	if misconceptions == nil {
		misconceptions = []string{}
	}
	return &View{
		Path: snap,
		Next: learningpath.ChooseAdaptiveNext(snap.Entries),
		Adaptive: AdaptiveView{
			TargetDifficulty: state.CurrentDifficulty,
			DifficultyStreak: state.DifficultyStreak,
			Misconceptions:   misconceptions,
			RecentAttempts:   history,
			RollingAccuracy:  summary.RollingAccuracy,
			Band:             mastery.ResolveBand(summary.RollingAccuracy, cfg),
			Struggle:         summary.Struggle,
		},
	}
}
