package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/pathwise/internal/placement"
)

// TopoOrder returns modules so that every module follows its prerequisites.
// Ties are broken by lowest grade, then sort order, then id.
func (c *Catalog) TopoOrder() []Module {
	byID := make(map[string]Module, len(c.Modules))
	inDegree := make(map[string]int, len(c.Modules))
	dependents := make(map[string][]string)
	for _, m := range c.Modules {
		byID[m.ID] = m
		inDegree[m.ID] = len(m.Prerequisites)
		for _, pre := range m.Prerequisites {
			dependents[pre] = append(dependents[pre], m.ID)
		}
	}

	var queue []Module
	for _, m := range c.Modules {
		if inDegree[m.ID] == 0 {
			queue = append(queue, m)
		}
	}

	order := make([]Module, 0, len(c.Modules))
	for len(queue) > 0 {
		slices.SortFunc(queue, compareModules)
		m := queue[0]
		queue = queue[1:]
		order = append(order, m)
		for _, dep := range dependents[m.ID] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, byID[dep])
			}
		}
	}
	return order
}

func compareModules(a, b Module) int {
	if ga, gb := minGrade(a), minGrade(b); ga != gb {
		return ga - gb
	}
	if a.SortOrder != b.SortOrder {
		return a.SortOrder - b.SortOrder
	}
	return strings.Compare(a.ID, b.ID)
}

func minGrade(m Module) int {
	if len(m.Grades) == 0 {
		return placement.MaxGrade + 1
	}
	return slices.Min(m.Grades)
}

// Validate performs all structural checks and reports every problem found.
func (c *Catalog) Validate() error {
	var errs []string

	ids := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		if strings.TrimSpace(m.ID) == "" {
			errs = append(errs, "module with empty id")
			continue
		}
		if ids[m.ID] {
			errs = append(errs, fmt.Sprintf("duplicate module id: %q", m.ID))
		}
		ids[m.ID] = true
		if len(m.Lessons) == 0 {
			errs = append(errs, fmt.Sprintf("module %q has no lessons", m.ID))
		}
		for _, g := range m.Grades {
			if g < placement.Kindergarten || g > placement.MaxGrade {
				errs = append(errs, fmt.Sprintf("module %q has grade %d outside K-%d", m.ID, g, placement.MaxGrade))
			}
		}
	}

	for _, m := range c.Modules {
		for _, pre := range m.Prerequisites {
			if !ids[pre] {
				errs = append(errs, fmt.Sprintf("module %q references nonexistent prerequisite %q", m.ID, pre))
			}
		}
	}

	if order := c.TopoOrder(); len(order) < len(c.Modules) {
		placed := make(map[string]bool, len(order))
		for _, m := range order {
			placed[m.ID] = true
		}
		var cycle []string
		for _, m := range c.Modules {
			if !placed[m.ID] {
				cycle = append(cycle, m.ID)
			}
		}
		errs = append(errs, fmt.Sprintf("cycle detected involving modules: %s", strings.Join(cycle, ", ")))
	}

	for band, seq := range c.Sequences {
		if _, err := placement.ExpandGradeBand(band); err != nil {
			errs = append(errs, fmt.Sprintf("sequence %q: %v", band, err))
		}
		for _, id := range seq {
			if !ids[id] {
				errs = append(errs, fmt.Sprintf("sequence %q references nonexistent module %q", band, id))
			}
		}
	}
	for _, band := range c.DerivedBands {
		if _, err := placement.ExpandGradeBand(band); err != nil {
			errs = append(errs, fmt.Sprintf("derived band %q: %v", band, err))
		}
	}

	seen := make(map[string]bool, len(c.Banks))
	for i := range c.Banks {
		b := &c.Banks[i]
		if seen[b.AssessmentID] {
			errs = append(errs, fmt.Sprintf("duplicate placement bank %q", b.AssessmentID))
		}
		seen[b.AssessmentID] = true
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("placement bank %q: %v", b.AssessmentID, err))
		}
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("catalog validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}
