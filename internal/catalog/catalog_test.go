package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathwise/internal/store"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Len(t, c.Modules, 15)
	require.Len(t, c.Banks, 1)
	assert.Len(t, c.Banks[0].Questions, 8)
	assert.Equal(t, []string{"3", "3-5", "4", "5"}, c.Bands())

	m, ok := c.Module("fraction-mult")
	require.True(t, ok)
	assert.Equal(t, []string{"5.NF.4"}, m.Standards)
}

func TestTopoOrderRespectsPrerequisites(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	order := c.TopoOrder()
	require.Len(t, order, len(c.Modules))
	index := make(map[string]int, len(order))
	for i, m := range order {
		index[m.ID] = i
	}
	for _, m := range order {
		for _, pre := range m.Prerequisites {
			assert.Less(t, index[pre], index[m.ID], "%s must follow %s", m.ID, pre)
		}
	}
}

func TestSequenceFor(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	curated, err := c.SequenceFor("3-5")
	require.NoError(t, err)
	assert.Equal(t, "place-value-1000", curated[0])

	derived, err := c.SequenceFor("4")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"equivalent-fractions", "decimals-tenths", "fraction-add-sub",
		"place-value-million", "multi-digit-mult",
	}, derived)

	_, err = c.SequenceFor("9-3")
	assert.Error(t, err)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "empty"},
		{"unknown field", "modules: []\ncolour: red\n", "colour"},
		{"duplicate", `
modules:
  - {id: a, lessons: [l]}
  - {id: a, lessons: [l]}
`, "duplicate module id"},
		{"dangling prerequisite", `
modules:
  - {id: a, lessons: [l], prerequisites: [ghost]}
`, "nonexistent prerequisite"},
		{"cycle", `
modules:
  - {id: a, lessons: [l], prerequisites: [b]}
  - {id: b, lessons: [l], prerequisites: [a]}
`, "cycle detected involving modules: a, b"},
		{"no lessons", `
modules:
  - {id: a, grades: [3]}
`, "has no lessons"},
		{"bad grade", `
modules:
  - {id: a, lessons: [l], grades: [14]}
`, "outside K-12"},
		{"bad sequence", `
modules:
  - {id: a, lessons: [l]}
sequences:
  "3-5": [a, b]
`, "nonexistent module \"b\""},
		{"bad bank", `
modules:
  - {id: a, lessons: [l]}
placement_banks:
  - assessment_id: p
    questions: []
`, "placement bank \"p\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSeed(t *testing.T) {
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()

	c, err := Default()
	require.NoError(t, err)
	seeder := NewSeeder(st.CatalogRepo(), st.PlacementRepo(), nil)

	for i := 0; i < 2; i++ {
		stats, err := seeder.Seed(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, SeedStats{Modules: 15, Sequences: 4, Questions: 8}, stats)
	}

	seq, err := st.CatalogRepo().CanonicalSequence(ctx, "3-5")
	require.NoError(t, err)
	require.Len(t, seq, 15)
	assert.Equal(t, "place-value-1000", seq[0].ID)
	assert.Equal(t, []string{"pv-1000-intro", "pv-1000-rounding"}, seq[0].LessonIDs)

	grade4, err := st.CatalogRepo().CanonicalSequence(ctx, "4")
	require.NoError(t, err)
	assert.Len(t, grade4, 5)

	all, err := st.CatalogRepo().ListModules(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 15)
	assert.Equal(t, "mult-facts", all[0].ID)

	qs, err := st.PlacementRepo().PlacementQuestions(ctx, "placement-3-5")
	require.NoError(t, err)
	assert.Len(t, qs, 8)
}
