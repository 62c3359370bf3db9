package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskman/internal/theme"
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int

	// TimerHeight is the number of rows reserved for the pomodoro bar. It is
	// zero while no timer runs.
	TimerHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// WithTimer returns a copy of l that reserves rows for the pomodoro bar
// when visible is true.
func (l Layout) WithTimer(visible bool) Layout {
	l.TimerHeight = 0
	if visible {
		l.TimerHeight = 1
	}
	return l
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header, timer and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight - l.TimerHeight
	if h < 0 {
		return 0
	}
	return h
}

// RenderHeader renders the top header bar with a title on the left and a
// short status on the right.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	return l.fill(theme.HeaderStyle, titleRendered, statusRendered)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	return l.fill(theme.StatusBarStyle, theme.StatusBarStyle.Render(hints), "")
}

// RenderErrorBar renders the bottom bar in the error style.
func (l Layout) RenderErrorBar(msg string) string {
	return l.fill(theme.ErrorBarStyle, theme.ErrorBarStyle.Render(msg), "")
}

// fill pads the gap between left and right with the background of style
// so that the bar spans the full width.
func (l Layout) fill(style lipgloss.Style, left, right string) string {
	gap := l.Width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	filler := lipgloss.NewStyle().
		Width(gap).
		Background(style.GetBackground()).
		Render("")

	return lipgloss.JoinHorizontal(lipgloss.Top, left, filler, right)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, optional timer bar and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	timer string,
	statusBar string,
) string {
	content = lipgloss.NewStyle().
		Height(l.ContentHeight()).
		MaxHeight(l.ContentHeight()).
		Render(content)

	parts := []string{header, content}
	if l.TimerHeight > 0 {
		parts = append(parts, timer)
	}
	parts = append(parts, statusBar)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
