package catalog

import (
	"context"
	"fmt"

	"github.com/abhisek/pathwise/internal/logger"
	"github.com/abhisek/pathwise/internal/placement"
	"github.com/abhisek/pathwise/internal/store"
)

// SeedStats counts what Seed wrote.
type SeedStats struct {
	Modules   int `json:"modules"`
	Sequences int `json:"sequences"`
	Questions int `json:"questions"`
}

// Seeder writes a catalog into the store.
type Seeder struct {
	catalog   store.CatalogRepo
	placement store.PlacementRepo
	log       *logger.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(catalog store.CatalogRepo, placement store.PlacementRepo, log *logger.Logger) *Seeder {
	return &Seeder{catalog: catalog, placement: placement, log: logger.OrNop(log)}
}

// Seed upserts every module, replaces the sequence of every band the
// catalog covers, and imports its placement banks. Seeding is idempotent.
func (s *Seeder) Seed(ctx context.Context, c *Catalog) (SeedStats, error) {
	var stats SeedStats
	for _, rec := range c.Records() {
		if err := s.catalog.UpsertModule(ctx, rec); err != nil {
			return stats, fmt.Errorf("seed module %s: %w", rec.ID, err)
		}
		stats.Modules++
	}

	for _, band := range c.Bands() {
		seq, err := c.SequenceFor(band)
		if err != nil {
			return stats, fmt.Errorf("sequence %s: %w", band, err)
		}
		if err := s.catalog.ReplaceCanonicalSequence(ctx, band, seq); err != nil {
			return stats, fmt.Errorf("seed sequence %s: %w", band, err)
		}
		stats.Sequences++
		s.log.Debug("seeded canonical sequence", "grade_band", band, "modules", len(seq))
	}

	for i := range c.Banks {
		n, err := placement.ImportBank(ctx, s.placement, &c.Banks[i])
		stats.Questions += n
		if err != nil {
			return stats, fmt.Errorf("seed placement bank %s: %w", c.Banks[i].AssessmentID, err)
		}
	}

	s.log.Info("catalog seeded", "modules", stats.Modules, "sequences", stats.Sequences, "questions", stats.Questions)
	return stats, nil
}
