// Package pathview lists every entry of a student's active path and lets
// the operator start one.
package pathview

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/adaptive"
	"github.com/abhisek/pathwise/internal/learningpath"
	"github.com/abhisek/pathwise/internal/screen"
	"github.com/abhisek/pathwise/internal/store"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

// Engine records events for the student.
type Engine interface {
	HandleEvent(ctx context.Context, ev adaptive.Event) (*adaptive.View, error)
}

type startedMsg struct {
	View *adaptive.View
	Err  error
}

// Screen implements screen.Screen for the path listing.
type Screen struct {
	engine    Engine
	studentID string
	view      *adaptive.View
	menu      components.Menu
	errMsg    string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)

// New creates a path view seeded with an already loaded view.
func New(engine Engine, studentID string, v *adaptive.View) *Screen {
	s := &Screen{engine: engine, studentID: studentID}
	s.apply(v)
	return s
}

func (s *Screen) Init() tea.Cmd { return nil }

func (s *Screen) Title() string { return "Path" }

func (s *Screen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Move"},
		{Key: "Enter", Description: "Start entry"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case startedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		s.errMsg = ""
		selected := s.menu.Selected
		s.apply(msg.View)
		s.menu.Selected = min(selected, max(len(s.menu.Items)-1, 0))
		return s, nil
	}
	var cmd tea.Cmd
	s.menu, cmd = s.menu.Update(msg)
	return s, cmd
}

func (s *Screen) apply(v *adaptive.View) {
	s.view = v
	var entries []learningpath.Entry
	if v != nil && v.Path != nil {
		entries = v.Path.Entries
	}
	nextID := ""
	if v != nil && v.Next != nil {
		nextID = v.Next.ID
	}

	items := make([]components.MenuItem, 0, len(entries))
	first := -1
	for i, e := range entries {
		item := components.MenuItem{Label: entryLine(e, e.ID == nextID)}
		if e.Status == learningpath.StatusNotStarted {
			item.Action = s.start(e)
		} else {
			item.Disabled = true
		}
		if e.ID == nextID {
			first = i
		}
		items = append(items, item)
	}
	s.menu = components.NewMenu(items)
	if first >= 0 {
		s.menu.Select(first)
	}
}

func (s *Screen) start(e learningpath.Entry) func() tea.Cmd {
	engine, studentID := s.engine, s.studentID
	return func() tea.Cmd {
		return func() tea.Msg {
			payload, _ := json.Marshal(map[string]string{
				"entry_id": e.ID,
				"status":   string(learningpath.StatusInProgress),
			})
			v, err := engine.HandleEvent(context.Background(), adaptive.Event{
				StudentID:  studentID,
				Type:       store.EventEntryProgress,
				Payload:    payload,
				OccurredAt: time.Now(),
			})
			return startedMsg{View: v, Err: err}
		}
	}
}

func entryLine(e learningpath.Entry, next bool) string {
	marker := " "
	if next {
		marker = "*"
	}
	status := theme.EntryStatus(string(e.Status)).Render(fmt.Sprintf("%-11s", e.Status))
	line := fmt.Sprintf("%s %2d  %-10s %s  %s", marker, e.Position, e.Type, status, e.Title())
	if e.Metadata.Reason != "" && e.Metadata.Reason != learningpath.ReasonPlacement {
		line += "  [" + string(e.Metadata.Reason) + "]"
	}
	if len(e.TargetStandardCodes) > 0 {
		line += "  " + strings.Join(e.TargetStandardCodes, ",")
	}
	return line
}

func (s *Screen) View(width, height int) string {
	var b strings.Builder
	if s.view != nil && s.view.Path != nil {
		p := s.view.Path.Path
		b.WriteString(theme.Label.Render(fmt.Sprintf("path %s  source %s  band %s  %d entries",
			p.ID, p.Metadata.Source, p.Metadata.GradeBand, len(s.view.Path.Entries))))
		b.WriteString("\n\n")
	}
	if len(s.menu.Items) == 0 {
		b.WriteString(theme.Hint.Render("no entries"))
	} else {
		b.WriteString(s.menu.View())
	}
	if s.errMsg != "" {
		b.WriteString("\n" + theme.Incorrect.Render(s.errMsg))
	}
	return lipgloss.NewStyle().Padding(1, 2).Width(width).MaxHeight(height).Render(b.String())
}
