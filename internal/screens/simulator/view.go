package simulator

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/adaptive"
	"github.com/abhisek/pathwise/internal/attempt"
	"github.com/abhisek/pathwise/internal/learningpath"
	"github.com/abhisek/pathwise/internal/mastery"
	"github.com/abhisek/pathwise/internal/ui/components"
	"github.com/abhisek/pathwise/internal/ui/layout"
	"github.com/abhisek/pathwise/internal/ui/theme"
)

const recentShown = 12

func (s *Screen) View(width, height int) string {
	if s.view == nil {
		msg := "Loading path..."
		if s.errMsg != "" {
			msg = s.errMsg
		}
		return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Render("\n\n" + msg)
	}

	a := s.view.Adaptive
	inner := max(width-4, 20)

	left := []string{
		layout.Section("difficulty",
			components.Pips(a.TargetDifficulty, attempt.MaxDifficulty)+
				theme.Label.Render(fmt.Sprintf("  L%d  streak %d", a.TargetDifficulty, a.DifficultyStreak))),
		layout.Section("rolling accuracy", s.renderAccuracy(inner/2)),
		layout.Section("misconceptions", renderList(a.Misconceptions, theme.Incorrect)...),
		layout.Section("recent attempts", renderAttempts(a.RecentAttempts)),
	}
	right := []string{
		layout.Section("next", renderNext(s.view.Next)),
		layout.Section("answering", s.renderAnswering()),
		layout.Section("last event", s.renderLast()...),
	}

	colWidth := inner / 2
	if layout.IsCompactWidth(width) {
		colWidth = inner
	}
	col := lipgloss.NewStyle().Width(colWidth).PaddingRight(2)
	leftCol := col.Render(strings.Join(left, "\n\n"))
	rightCol := col.Render(strings.Join(right, "\n\n"))

	var body string
	if layout.IsCompactWidth(width) {
		body = leftCol + "\n\n" + rightCol
	} else {
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftCol, rightCol)
	}
	if s.errMsg != "" {
		body += "\n\n" + theme.Incorrect.Render(s.errMsg)
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}

func (s *Screen) renderAccuracy(width int) string {
	a := s.view.Adaptive
	if a.RollingAccuracy == nil {
		return theme.Band(string(mastery.BandUnknown)).Render(a.Band.Label())
	}
	lo, hi := bandOf(s.view)
	bar := components.NewProgressBar("", *a.RollingAccuracy, true, width).WithBand(lo, hi)
	label := theme.Band(string(a.Band)).Render(a.Band.Label())
	if a.Struggle {
		label += "  " + theme.Warning.Render("struggling")
	}
	return bar.View() + "\n  " + label
}

func (s *Screen) renderAnswering() string {
	level := "path level"
	if s.difficulty > 0 {
		level = fmt.Sprintf("L%d", s.difficulty)
	}
	std := theme.Body.Render(s.standard)
	if s.input.Focused() {
		std = s.input.View()
	}
	return std + theme.Label.Render("  at "+level)
}

func (s *Screen) renderLast() []string {
	if s.lastNote == "" {
		return []string{theme.Hint.Render("none yet")}
	}
	lines := []string{theme.Body.Render(s.lastNote)}
	a := s.view.Adaptive
	if a.Change != nil {
		lines = append(lines, theme.Warning.Render(fmt.Sprintf("difficulty %d -> %d (%s)", a.Change.From, a.Change.To, a.Change.Reason)))
	}
	for _, r := range a.Inserted {
		style := theme.Label
		if r.Outcome == learningpath.Inserted {
			style = theme.Correct
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s %s: %s", r.Reason, strings.Join(r.Standards, ","), r.Outcome)))
	}
	return lines
}

func renderNext(e *learningpath.Entry) string {
	if e == nil {
		return theme.Hint.Render("path complete")
	}
	line := theme.Selected.Render(e.Title()) + theme.Label.Render(fmt.Sprintf("  #%d %s", e.Position, e.Type))
	if e.Metadata.Reason != "" {
		line += "\n  " + theme.Label.Render(string(e.Metadata.Reason))
	}
	if len(e.TargetStandardCodes) > 0 {
		line += theme.Label.Render("  " + strings.Join(e.TargetStandardCodes, ", "))
	}
	if e.Metadata.Attempts > 0 {
		line += theme.Label.Render(fmt.Sprintf("  %d/%d correct", e.Metadata.CorrectAttempts, e.Metadata.Attempts))
	}
	return line
}

func renderAttempts(attempts []attempt.Attempt) string {
	if len(attempts) == 0 {
		return theme.Hint.Render("no attempts")
	}
	n := min(len(attempts), recentShown)
	var b strings.Builder
	// Oldest on the left.
	for i := n - 1; i >= 0; i-- {
		if attempts[i].Correct {
			b.WriteString(theme.Correct.Render("✓"))
		} else {
			b.WriteString(theme.Incorrect.Render("✗"))
		}
	}
	b.WriteString(theme.Label.Render(fmt.Sprintf("  %d in window", len(attempts))))
	return b.String()
}

func renderList(items []string, style lipgloss.Style) []string {
	if len(items) == 0 {
		return []string{theme.Hint.Render("none")}
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = style.Render(it)
	}
	return out
}

func bandOf(v *adaptive.View) (float64, float64) {
	if v.Path == nil {
		return 0, 0
	}
	st := v.Path.Path.Metadata.Adaptive
	return st.TargetAccuracyMin, st.TargetAccuracyMax
}
