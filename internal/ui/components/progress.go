package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/pathwise/internal/ui/theme"
)

// ProgressBar displays a horizontal bar for a fraction in [0,1]. When a band
// is set, its edges are marked on the bar.
type ProgressBar struct {
	Label       string
	Percent     float64
	ShowPercent bool
	Width       int
	BandMin     float64
	BandMax     float64
}

// NewProgressBar creates a new progress bar.
func NewProgressBar(label string, percent float64, showPercent bool, width int) ProgressBar {
	return ProgressBar{
		Label:       label,
		Percent:     percent,
		ShowPercent: showPercent,
		Width:       width,
	}
}

// WithBand returns a copy that marks the [lo, hi] band.
func (p ProgressBar) WithBand(lo, hi float64) ProgressBar {
	p.BandMin, p.BandMax = lo, hi
	return p
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		result += theme.Body.Render(p.Label) + "  "
	}

	percentWidth := 0
	if p.ShowPercent {
		percentWidth = 6
	}
	barWidth := max(p.Width-lipgloss.Width(result)-percentWidth, 4)
	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)

	lo, hi := -1, -1
	if p.BandMax > p.BandMin {
		lo = int(float64(barWidth) * p.BandMin)
		hi = min(int(float64(barWidth)*p.BandMax), barWidth-1)
	}

	fill := lipgloss.NewStyle().Background(theme.Secondary)
	empty := lipgloss.NewStyle().Background(theme.Border)
	for i := 0; i < barWidth; i++ {
		style := empty
		if i < filled {
			style = fill
		}
		cell := " "
		if i == lo || i == hi {
			cell = "|"
		}
		result += style.Render(cell)
	}

	if p.ShowPercent {
		result += theme.Label.Render(fmt.Sprintf("  %d%%", int(p.Percent*100)))
	}
	return result
}

// Pips renders level out of total as filled and hollow dots.
func Pips(level, total int) string {
	level = min(max(level, 0), total)
	return theme.Warning.Render(strings.Repeat("●", level)) + theme.Label.Render(strings.Repeat("○", total-level))
}
