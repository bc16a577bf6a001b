package learningpath

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/logger"
	"github.com/abhisek/pathwise/internal/store"
)

// Service persists paths and entries through the store.
type Service struct {
	paths store.PathRepo
	log   *logger.Logger
	now   func() time.Time
}

// NewService creates a path service.
func NewService(paths store.PathRepo, log *logger.Logger) *Service {
	return &Service{paths: paths, log: logger.OrNop(log), now: time.Now}
}

// LoadActive returns the student's active path with its entries, or nil
// when the student has none.
func (s *Service) LoadActive(ctx context.Context, studentID string) (*Snapshot, error) {
	rec, err := s.paths.ActivePath(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load active path: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	return s.snapshot(ctx, rec)
}

// Load returns a path by id with its entries, or nil if it does not exist.
func (s *Service) Load(ctx context.Context, pathID string) (*Snapshot, error) {
	rec, err := s.paths.GetPath(ctx, pathID)
	if err != nil {
		return nil, fmt.Errorf("load path: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	return s.snapshot(ctx, rec)
}

func (s *Service) snapshot(ctx context.Context, rec *store.PathRecord) (*Snapshot, error) {
	recs, err := s.paths.ListEntries(ctx, rec.ID)
	if err != nil {
		return nil, fmt.Errorf("load path entries: %w", err)
	}
	snap := &Snapshot{Path: PathFromRecord(*rec), Entries: make([]Entry, 0, len(recs))}
	for _, r := range recs {
		snap.Entries = append(snap.Entries, EntryFromRecord(r))
	}
	return snap, nil
}

// Create stores a new active path with its initial entries, pausing the
// student's previous active paths. Nothing changes when any step fails.
func (s *Service) Create(ctx context.Context, p Path, entries []Entry) (*Snapshot, error) {
	now := s.now().UTC()
	p.Status = store.PathActive
	p.CreatedAt, p.UpdatedAt = now, now
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode path metadata: %w", err)
	}

	recs := make([]store.PathEntryRecord, 0, len(entries))
	for i := range entries {
		entries[i].PathID = p.ID
		if entries[i].CreatedAt.IsZero() {
			entries[i].CreatedAt = now
		}
		entries[i].UpdatedAt = now
		rec, err := entries[i].Record()
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}

	paused, err := s.paths.ReplaceActivePath(ctx, &store.PathRecord{
		ID:        p.ID,
		StudentID: p.StudentID,
		Status:    p.Status,
		Metadata:  meta,
		CreatedAt: now,
	}, recs)
	if err != nil {
		return nil, err
	}
	if paused > 0 {
		s.log.Info("paused previous paths", "student_id", p.StudentID, "count", paused)
	}
	return &Snapshot{Path: p, Entries: entries}, nil
}

// SaveMetadata writes the path's metadata blob.
func (s *Service) SaveMetadata(ctx context.Context, p Path) error {
	meta, err := json.Marshal(p.Metadata)
	if err != nil {
		return fmt.Errorf("encode path metadata: %w", err)
	}
	return s.paths.UpdatePathMetadata(ctx, p.ID, meta)
}

// SaveEntry upserts a single entry.
func (s *Service) SaveEntry(ctx context.Context, e Entry) error {
	rec, err := e.Record()
	if err != nil {
		return err
	}
	return s.paths.UpsertEntry(ctx, &rec)
}

// AppendAdaptiveEntry plans req against entries and stores it when allowed.
// On insert the new entry is returned and appended to the caller's slice.
func (s *Service) AppendAdaptiveEntry(ctx context.Context, path Path, entries *[]Entry, req NewEntry, cfg config.Adaptive) (*Entry, InsertOutcome, error) {
	e, outcome := PlanAdaptiveEntry(path.ID, *entries, req, cfg, s.now().UTC())
	if outcome != Inserted {
		s.log.Debug("adaptive entry skipped", "path_id", path.ID, "type", req.Type,
			"standards", req.TargetStandardCodes, "outcome", outcome)
		return nil, outcome, nil
	}
	if err := s.SaveEntry(ctx, e); err != nil {
		return nil, outcome, fmt.Errorf("insert adaptive entry: %w", err)
	}
	*entries = append(*entries, e)
	return &e, outcome, nil
}

// PathFromRecord converts a stored path.
func PathFromRecord(r store.PathRecord) Path {
	return Path{
		ID:        r.ID,
		StudentID: r.StudentID,
		Status:    r.Status,
		Metadata:  DecodePathMetadata(r.Metadata),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// EntryFromRecord converts a stored entry.
func EntryFromRecord(r store.PathEntryRecord) Entry {
	return Entry{
		ID:                  r.ID,
		PathID:              r.PathID,
		Position:            r.Position,
		Type:                EntryType(r.EntryType),
		Status:              Status(r.Status),
		ModuleID:            r.ModuleID,
		LessonID:            r.LessonID,
		AssessmentID:        r.AssessmentID,
		TargetStandardCodes: r.TargetStandardCodes,
		Metadata:            DecodeEntryMetadata(r.Metadata),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

// Record converts the entry for storage.
func (e Entry) Record() (store.PathEntryRecord, error) {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return store.PathEntryRecord{}, fmt.Errorf("encode entry metadata: %w", err)
	}
	return store.PathEntryRecord{
		ID:                  e.ID,
		PathID:              e.PathID,
		Position:            e.Position,
		EntryType:           string(e.Type),
		Status:              string(e.Status),
		ModuleID:            e.ModuleID,
		LessonID:            e.LessonID,
		AssessmentID:        e.AssessmentID,
		TargetStandardCodes: e.TargetStandardCodes,
		Metadata:            meta,
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}, nil
}
