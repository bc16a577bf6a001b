// Package catalog loads the module catalog, curated per-band sequences and
// placement question banks from YAML and seeds them into the store.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/pathwise/internal/placement"
	"github.com/abhisek/pathwise/internal/store"
)

//go:embed default.yaml
var defaultCatalog []byte

// Module is one catalog module as written in YAML.
type Module struct {
	ID            string   `yaml:"id"`
	Title         string   `yaml:"title"`
	Strand        string   `yaml:"strand"`
	Grades        []int    `yaml:"grades"`
	Standards     []string `yaml:"standards"`
	Lessons       []string `yaml:"lessons"`
	Prerequisites []string `yaml:"prerequisites,omitempty"`
	SortOrder     int      `yaml:"sort_order,omitempty"`
}

// Catalog is a full seed document.
type Catalog struct {
	Modules []Module `yaml:"modules"`

	// Sequences maps a grade band to its curated module order. Bands listed
	// in DerivedBands but not here get a prerequisite order instead.
	Sequences    map[string][]string `yaml:"sequences,omitempty"`
	DerivedBands []string            `yaml:"derived_bands,omitempty"`
	Banks        []placement.Bank    `yaml:"placement_banks,omitempty"`
}

// Load decodes and validates a catalog document.
func Load(raw []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("catalog is empty")
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the built-in grades 3-5 math catalog.
func Default() (*Catalog, error) {
	return Load(defaultCatalog)
}

// Module returns the module with the given id.
func (c *Catalog) Module(id string) (Module, bool) {
	i := slices.IndexFunc(c.Modules, func(m Module) bool { return m.ID == id })
	if i < 0 {
		return Module{}, false
	}
	return c.Modules[i], true
}

// Records converts modules to store records. Modules without an explicit
// sort order are ordered by their position in the prerequisite order.
func (c *Catalog) Records() []store.ModuleRecord {
	index := make(map[string]int, len(c.Modules))
	for i, m := range c.TopoOrder() {
		index[m.ID] = i + 1
	}
	out := make([]store.ModuleRecord, 0, len(c.Modules))
	for _, m := range c.Modules {
		order := m.SortOrder
		if order == 0 {
			order = index[m.ID]
		}
		out = append(out, store.ModuleRecord{
			ID:            m.ID,
			Title:         m.Title,
			Strand:        m.Strand,
			GradeLevels:   m.Grades,
			StandardCodes: m.Standards,
			LessonIDs:     m.Lessons,
			SortOrder:     order,
		})
	}
	return out
}

// SequenceFor returns the module order for a band: the curated sequence when
// one exists, otherwise the prerequisite order of the band's modules.
func (c *Catalog) SequenceFor(band string) ([]string, error) {
	if seq, ok := c.Sequences[band]; ok {
		return seq, nil
	}
	grades, err := placement.ExpandGradeBand(band)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, m := range c.TopoOrder() {
		if slices.ContainsFunc(m.Grades, func(g int) bool { return slices.Contains(grades, g) }) {
			ids = append(ids, m.ID)
		}
	}
	return ids, nil
}

// Bands returns every band with a curated or derived sequence.
func (c *Catalog) Bands() []string {
	bands := make([]string, 0, len(c.Sequences)+len(c.DerivedBands))
	for b := range c.Sequences {
		bands = append(bands, b)
	}
	for _, b := range c.DerivedBands {
		if !slices.Contains(bands, b) {
			bands = append(bands, b)
		}
	}
	slices.Sort(bands)
	return bands
}
