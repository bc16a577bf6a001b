package placement

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/abhisek/pathwise/internal/learningpath"
	"github.com/abhisek/pathwise/internal/logger"
	"github.com/abhisek/pathwise/internal/observability"
	"github.com/abhisek/pathwise/internal/store"
)

// Seed tiers, recorded on the path as its seed_source.
const (
	SeedCanonical = "canonical"
	SeedGrade     = "grade"
	SeedFallback  = "fallback"
)

// BuildRequest describes the path to create.
type BuildRequest struct {
	StudentID string
	GradeBand string
	// Grade is the student's exact grade; defaults to the lowest in the band.
	Grade *int
	// Limit caps entries seeded from the grade and fallback tiers.
	Limit int
	// Metadata is written onto the new path.
	Metadata learningpath.PathMetadata
}

// BuildResult is the created path and the tier it was seeded from.
type BuildResult struct {
	Snapshot *learningpath.Snapshot
	Seed     string
}

// Builder creates paths from the module catalog.
type Builder struct {
	catalog store.CatalogRepo
	paths   *learningpath.Service
	log     *logger.Logger
}

// NewBuilder creates a path builder.
func NewBuilder(catalog store.CatalogRepo, paths *learningpath.Service, log *logger.Logger) *Builder {
	return &Builder{catalog: catalog, paths: paths, log: logger.OrNop(log)}
}

// BuildStudentPath pauses the student's active path and creates a new one.
// Entries come from the band's canonical sequence when one exists, else
// from modules tagged with the band's grades ordered by closeness to the
// student's grade, else from the first modules of the catalog.
func (b *Builder) BuildStudentPath(ctx context.Context, req BuildRequest) (_ *BuildResult, err error) {
	ctx, span := observability.StartSpan(ctx, "placement.BuildStudentPath", observability.StudentID(req.StudentID))
	defer observability.FinishSpan(span, &err)

	grades, err := ExpandGradeBand(req.GradeBand)
	if err != nil {
		return nil, err
	}
	target := grades[0]
	if req.Grade != nil && slices.Contains(grades, *req.Grade) {
		target = *req.Grade
	}

	modules, seed, err := b.seedModules(ctx, req.GradeBand, grades, target, req.Limit)
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		b.log.Warn("catalog empty, path has no entries", "student_id", req.StudentID, "grade_band", req.GradeBand)
	}

	entries := make([]learningpath.Entry, 0, len(modules))
	for i, m := range modules {
		e := learningpath.Entry{
			ID:                  uuid.NewString(),
			Position:            i + 1,
			Type:                learningpath.TypeLesson,
			Status:              learningpath.StatusNotStarted,
			ModuleID:            m.ID,
			TargetStandardCodes: m.StandardCodes,
			Metadata: learningpath.EntryMetadata{
				Reason: learningpath.ReasonPlacement,
				Title:  m.Title,
			},
		}
		if len(m.LessonIDs) > 0 {
			e.LessonID = m.LessonIDs[0]
		}
		entries = append(entries, e)
	}

	meta := req.Metadata
	meta.GradeBand = req.GradeBand
	meta.SeedSource = seed

	p := learningpath.Path{ID: uuid.NewString(), StudentID: req.StudentID, Metadata: meta}
	snap, err := b.paths.Create(ctx, p, entries)
	if err != nil {
		return nil, fmt.Errorf("create path: %w", err)
	}
	b.log.Info("built student path", "student_id", req.StudentID, "path_id", p.ID,
		"grade_band", req.GradeBand, "seed", seed, "entries", len(entries))
	return &BuildResult{Snapshot: snap, Seed: seed}, nil
}

func (b *Builder) seedModules(ctx context.Context, band string, grades []int, target, limit int) ([]store.ModuleRecord, string, error) {
	canonical, err := b.catalog.CanonicalSequence(ctx, band)
	if err != nil {
		b.log.Warn("canonical sequence lookup failed", "grade_band", band, "error", err)
	} else if len(canonical) > 0 {
		return canonical, SeedCanonical, nil
	}

	tagged, err := b.catalog.ModulesForGrades(ctx, grades)
	if err != nil {
		b.log.Warn("grade module lookup failed", "grade_band", band, "error", err)
	} else if len(tagged) > 0 {
		sortByCloseness(tagged, target)
		return truncate(tagged, limit), SeedGrade, nil
	}

	listed, err := b.catalog.ListModules(ctx, limit)
	if err != nil {
		return nil, "", fmt.Errorf("list modules: %w", err)
	}
	return truncate(listed, limit), SeedFallback, nil
}

// sortByCloseness puts modules tagged with the target grade first, then
// orders by the distance of their nearest grade to the target.
func sortByCloseness(mods []store.ModuleRecord, target int) {
	distance := func(m store.ModuleRecord) int {
		best := -1
		for _, g := range m.GradeLevels {
			d := g - target
			if d < 0 {
				d = -d
			}
			if best < 0 || d < best {
				best = d
			}
		}
		return best
	}
	sort.SliceStable(mods, func(i, j int) bool {
		di, dj := distance(mods[i]), distance(mods[j])
		if di != dj {
			return di < dj
		}
		if mods[i].SortOrder != mods[j].SortOrder {
			return mods[i].SortOrder < mods[j].SortOrder
		}
		return mods[i].ID < mods[j].ID
	})
}

func truncate(mods []store.ModuleRecord, limit int) []store.ModuleRecord {
	if limit > 0 && len(mods) > limit {
		return mods[:limit]
	}
	return mods
}
