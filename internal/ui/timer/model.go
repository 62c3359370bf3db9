package timer

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskman/internal/pomodoro"
	"github.com/nhle/taskman/internal/theme"
	"github.com/nhle/taskman/internal/tracker"
)

// labelWidth fits "break 59:59" and "59:59 left" plus padding.
const labelWidth = 14

// Model renders the one-line pomodoro bar.
type Model struct {
	bar   progress.Model
	width int
}

// New creates a timer bar for the given terminal width.
func New(width int) Model {
	m := Model{
		bar: progress.New(
			progress.WithDefaultGradient(),
			progress.WithoutPercentage(),
		),
	}
	m.SetWidth(width)
	return m
}

// SetWidth updates the bar width.
func (m *Model) SetWidth(width int) {
	m.width = width
	m.bar.Width = max(width-2*labelWidth, 10)
}

// View renders st. It returns "" while no timer runs.
func (m Model) View(st tracker.PomodoroState) string {
	if !st.Running {
		return ""
	}

	label := theme.PhaseStyle(st.Phase.Kind).
		Width(labelWidth).
		Render(st.Phase.String())

	if st.Phase.Kind == pomodoro.KindDone {
		return lipgloss.JoinHorizontal(lipgloss.Top,
			label,
			theme.HelpStyle.Render("interval complete, press p to start another"),
		)
	}

	remaining := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Width(labelWidth).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%s left", pomodoro.FormatMinSec(st.Remaining)))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		label,
		m.bar.ViewAs(st.Progress),
		remaining,
	)
}
