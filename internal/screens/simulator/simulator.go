// Package simulator is the console screen for driving a student's adaptive
// path by hand: answering practice questions, finishing entries, and
// watching difficulty, misconceptions and inserted entries react.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/pathwise/internal/adaptive"
	"github.com/abhisek/pathwise/internal/attempt"
	"github.com/abhisek/pathwise/internal/learningpath"
	"github.com/abhisek/pathwise/internal/router"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/screens/pathview"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
)

// Engine is the part of the adaptive engine the simulator drives.
type Engine interface {
	HandleEvent(ctx context.Context, ev adaptive.Event) (*adaptive.View, error)
	Current(ctx context.Context, studentID string) (*adaptive.View, error)
}

// viewMsg carries a refreshed view, or the error that prevented one.
type viewMsg struct {
	View *adaptive.View
	Err  error
}

// Screen implements screen.Screen for the simulator.
type Screen struct {
	engine    Engine
	studentID string
	now       func() time.Time

	view     *adaptive.View
	standard string

	// difficulty tags answers; 0 means the path's current level.
	difficulty int
	input      components.TextInput
	pending    bool
	answered   int
	lastNote   string
	errMsg     string
}

var (
	_ screen.Screen          = (*Screen)(nil)
	_ screen.KeyHintProvider = (*Screen)(nil)
	_ screen.StatusProvider  = (*Screen)(nil)
	_ screen.InputCapturer   = (*Screen)(nil)
)

// New creates a simulator for one student.
func New(engine Engine, studentID string) *Screen {
	return &Screen{
		engine:    engine,
		studentID: studentID,
		now:       time.Now,
		input:     components.NewTextInput("standard code", 24),
		pending:   true,
	}
}

func (s *Screen) Init() tea.Cmd {
	return s.refresh()
}

func (s *Screen) Title() string {
	return "Simulator"
}

func (s *Screen) Status() string {
	if s.view == nil {
		return s.studentID
	}
	return fmt.Sprintf("%s  L%d", s.studentID, s.view.Adaptive.TargetDifficulty)
}

func (s *Screen) CapturingInput() bool {
	return s.input.Focused()
}

func (s *Screen) KeyHints() []layout.KeyHint {
	if s.input.Focused() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Set standard"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	return []layout.KeyHint{
		{Key: "c", Description: "Correct"},
		{Key: "x", Description: "Miss"},
		{Key: "n", Description: "Finish next"},
		{Key: "s", Description: "Standard"},
		{Key: "d", Description: "Difficulty"},
		{Key: "p", Description: "Path"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case viewMsg:
		s.pending = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.apply(msg.View)
		return s, nil

	case screen.RefreshMsg:
		return s, s.refresh()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.input.Focused() {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.input.Focused() {
		switch msg.String() {
		case "enter":
			if v := s.input.Value(); v != "" {
				s.standard = v
			}
			s.input.Blur()
			return s, nil
		case "esc":
			s.input.Blur()
			return s, nil
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}

	if s.pending {
		return s, nil
	}

	switch msg.String() {
	case "c":
		return s, s.answer(true)
	case "x":
		return s, s.answer(false)
	case "n":
		return s, s.finishNext()
	case "s":
		return s, s.input.Focus(s.standard)
	case "d":
		s.difficulty = (s.difficulty + 1) % (attempt.MaxDifficulty + 1)
		return s, nil
	case "p":
		if s.view == nil {
			return s, nil
		}
		pv := pathview.New(s.engine, s.studentID, s.view)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: pv} }
	case "r":
		s.pending = true
		return s, s.refresh()
	}
	return s, nil
}

// apply adopts a new view. The chosen standard follows the next entry until
// the operator picks one by hand.
func (s *Screen) apply(v *adaptive.View) {
	s.view = v
	if s.standard != "" {
		return
	}
	if v.Next != nil && len(v.Next.TargetStandardCodes) > 0 {
		s.standard = v.Next.TargetStandardCodes[0]
	} else {
		s.standard = attempt.GeneralStandard
	}
}

func (s *Screen) refresh() tea.Cmd {
	engine, studentID := s.engine, s.studentID
	return func() tea.Msg {
		v, err := engine.Current(context.Background(), studentID)
		return viewMsg{View: v, Err: err}
	}
}

func (s *Screen) send(eventType string, payload map[string]any, note string) tea.Cmd {
	raw, err := json.Marshal(payload)
	if err != nil {
		s.errMsg = err.Error()
		return nil
	}
	ev := adaptive.Event{StudentID: s.studentID, Type: eventType, Payload: raw, OccurredAt: s.now()}
	s.pending = true
	s.lastNote = note
	engine := s.engine
	return func() tea.Msg {
		v, err := engine.HandleEvent(context.Background(), ev)
		return viewMsg{View: v, Err: err}
	}
}

func (s *Screen) answer(correct bool) tea.Cmd {
	payload := map[string]any{
		"correct":   correct,
		"standards": []string{s.standard},
	}
	if s.difficulty > 0 {
		payload["difficulty"] = s.difficulty
	} else if s.view != nil {
		payload["difficulty"] = s.view.Adaptive.TargetDifficulty
	}
	// Answers count toward the next entry when it is practice work.
	if next := s.nextEntry(); next != nil && (next.Type == learningpath.TypeReview || next.Type == learningpath.TypePractice) {
		payload["entry_id"] = next.ID
	}
	s.answered++
	verdict := "miss"
	if correct {
		verdict = "correct"
	}
	return s.send(store.EventPracticeAnswered, payload, fmt.Sprintf("answer %d: %s on %s", s.answered, verdict, s.standard))
}

func (s *Screen) finishNext() tea.Cmd {
	next := s.nextEntry()
	if next == nil {
		s.lastNote = "nothing pending"
		return nil
	}
	if next.Type == learningpath.TypeLesson {
		return s.send(store.EventLessonCompleted, map[string]any{
			"entry_id":  next.ID,
			"standards": next.TargetStandardCodes,
		}, "completed "+next.Title())
	}
	return s.send(store.EventEntryProgress, map[string]any{
		"entry_id": next.ID,
		"status":   string(learningpath.StatusCompleted),
	}, "completed "+next.Title())
}

func (s *Screen) nextEntry() *learningpath.Entry {
	if s.view == nil {
		return nil
	}
	return s.view.Next
}
