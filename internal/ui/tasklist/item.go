package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskman/internal/model"
	"github.com/nhle/taskman/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task *model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Name }

// Title returns the task name for the list.
func (i TaskItem) Title() string { return i.Task.Name }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	parts := []string{
		i.Task.Status().String(),
		relativeTime(i.Task.CreationTime()),
	}
	if n := len(i.Task.SubtaskIDs()); n > 0 {
		parts = append(parts, fmt.Sprintf("%d subtasks", n))
	}
	return strings.Join(parts, " | ")
}

// ItemDelegate implements list.ItemDelegate for rendering task lines.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single list item line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}
	fmt.Fprint(w, renderLine(ti.Task, index == m.Index()))
}

// renderLine draws one task: status glyph, short id, status badge, name,
// subtask count and either the elapsed time or the age.
func renderLine(t *model.Task, selected bool) string {
	status := t.Status()

	var prefix string
	switch status {
	case model.StatusFinished:
		prefix = "✓"
	case model.StatusStarted:
		prefix = "▶"
	default:
		prefix = "○"
	}

	id := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(t.ID().String()[:8])

	badge := theme.StatusStyle(status).Render(status.String())

	subs := ""
	if n := len(t.SubtaskIDs()); n > 0 {
		subs = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(fmt.Sprintf(" [%d]", n))
	}

	when := relativeTime(t.CreationTime())
	if d, ok := t.Elapsed(); ok {
		when = "took " + d.Round(time.Second).String()
	}
	whenStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(when)

	line := fmt.Sprintf("%s %s %s %s%s  %s", prefix, id, badge, t.Name, subs, whenStr)

	if status == model.StatusFinished {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	}
}
