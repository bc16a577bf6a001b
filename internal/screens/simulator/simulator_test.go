package simulator

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathwise/internal/adaptive"
	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/learningpath"
	"github.com/abhisek/pathwise/internal/router"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/store"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func newSimulator(t *testing.T) *Screen {
	t.Helper()
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	_, err = learningpath.NewService(st.PathRepo(), nil).Create(context.Background(),
		learningpath.Path{ID: "p1", StudentID: "s1"},
		[]learningpath.Entry{{
			ID: "e1", Position: 1, Type: learningpath.TypeLesson, Status: learningpath.StatusNotStarted,
			LessonID: "l1", TargetStandardCodes: []string{"4.NF.1"},
			Metadata: learningpath.EntryMetadata{Title: "Equivalent Fractions"},
		}})
	require.NoError(t, err)

	engine := adaptive.NewEngine(st.PathRepo(), st.EventRepo(), config.NewLoader(nil), nil)
	s := New(engine, "s1")
	run(t, s, s.Init())
	return s
}

// run executes cmd and feeds its message back into the screen.
func run(t *testing.T, s *Screen, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	if _, ok := msg.(viewMsg); ok {
		s.Update(msg)
	}
	return msg
}

func press(t *testing.T, s *Screen, r rune) {
	t.Helper()
	_, cmd := s.Update(keyPress(r))
	run(t, s, cmd)
}

func TestSimulatorLoads(t *testing.T) {
	s := newSimulator(t)
	require.NotNil(t, s.view)
	assert.Equal(t, "4.NF.1", s.standard)
	assert.Equal(t, "s1  L1", s.Status())

	out := s.View(120, 40)
	assert.Contains(t, out, "Equivalent Fractions")
	assert.Contains(t, out, "no attempts")
}

func TestSimulatorMissesInsertRemediation(t *testing.T) {
	s := newSimulator(t)

	press(t, s, 'x')
	press(t, s, 'x')

	require.Empty(t, s.errMsg)
	assert.Equal(t, []string{"4.NF.1"}, s.view.Adaptive.Misconceptions)
	require.NotNil(t, s.view.Next)
	assert.Equal(t, learningpath.TypeReview, s.view.Next.Type)
	assert.Contains(t, s.View(120, 40), "remediation")

	// Finishing the review leaves the lesson next.
	press(t, s, 'n')
	require.NotNil(t, s.view.Next)
	assert.Equal(t, "e1", s.view.Next.ID)
}

func TestSimulatorKeys(t *testing.T) {
	s := newSimulator(t)

	s.Update(keyPress('d'))
	s.Update(keyPress('d'))
	assert.Equal(t, 2, s.difficulty)

	s.Update(keyPress('s'))
	assert.True(t, s.CapturingInput())
	s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.False(t, s.CapturingInput())

	_, cmd := s.Update(keyPress('p'))
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.Equal(t, "Path", push.Screen.Title())
	assert.True(t, strings.Contains(push.Screen.View(120, 30), "Equivalent Fractions"))

	_, cmd = s.Update(screen.RefreshMsg{})
	run(t, s, cmd)
	assert.NotNil(t, s.view)
}
