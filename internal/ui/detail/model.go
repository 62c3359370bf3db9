package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nhle/taskman/internal/keys"
	"github.com/nhle/taskman/internal/model"
	"github.com/nhle/taskman/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// LookupFunc resolves a subtask id to the live task.
type LookupFunc func(id uuid.UUID) (*model.Task, error)

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	parents  []*model.Task
	lookup   LookupFunc
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model. lookup is used to colour subtasks
// by their current status.
func New(keys *keys.KeyMap, lookup LookupFunc, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		lookup:   lookup,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		return m, func() tea.Msg {
			return BackMsg{}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No task selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Name))
	sections = append(sections, theme.StatusStyle(task.Status()).Render(task.Status().String()))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		sections = append(sections, fmt.Sprintf(
			"%s %s",
			metaStyle.Render(fmt.Sprintf("%-9s", label+":")),
			valStyle.Render(value),
		))
	}

	row("ID", task.ID().String())
	row("Created", formatTime(task.CreationTime()))
	if at, ok := task.Started(); ok {
		row("Started", formatTime(at))
	}
	if at, ok := task.Finished(); ok {
		row("Finished", formatTime(at))
	}
	if d, ok := task.Elapsed(); ok {
		row("Took", d.Round(time.Second).String())
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(0, min(m.width-4, 80))))

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	emptyStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Italic(true)

	sections = append(sections, "", separator, "")
	sections = append(sections, headerStyle.Render("Description"))
	if task.Description == "" {
		sections = append(sections, emptyStyle.Render("No description"))
	} else {
		sections = append(sections, task.Description)
	}

	sections = append(sections, "", separator, "")
	subs := task.Subtasks()
	switch {
	case !task.HasSubtaskList():
		sections = append(sections, headerStyle.Render("Subtasks"))
		sections = append(sections, emptyStyle.Render("No subtask list"))
	case len(subs) == 0:
		sections = append(sections, headerStyle.Render("Subtasks"))
		sections = append(sections, emptyStyle.Render("Empty"))
	default:
		sections = append(sections, headerStyle.Render(fmt.Sprintf("Subtasks (%d)", len(subs))))
		for _, s := range subs {
			sections = append(sections, fmt.Sprintf("  %s %s %s",
				metaStyle.Render(s.ID.String()[:8]), s.Name, m.subtaskBadge(s.ID)))
		}
	}

	if len(m.parents) > 0 {
		sections = append(sections, "", headerStyle.Render("Subtask of"))
		for _, p := range m.parents {
			sections = append(sections, fmt.Sprintf("  %s %s",
				metaStyle.Render(p.ID().String()[:8]), p.Name))
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// subtaskBadge renders the live status of a subtask, or nothing when it
// cannot be resolved.
func (m Model) subtaskBadge(id uuid.UUID) string {
	if m.lookup == nil {
		return ""
	}
	sub, err := m.lookup(id)
	if err != nil {
		return ""
	}
	return theme.StatusStyle(sub.Status()).Render(sub.Status().String())
}

// SetTask updates the task being displayed and re-renders the content.
// parents are the tasks listing it as a subtask.
func (m *Model) SetTask(task *model.Task, parents []*model.Task) {
	sameTask := m.task != nil && task != nil && m.task.ID() == task.ID()
	m.task = task
	m.parents = parents
	m.viewport.SetContent(m.renderContent())
	if !sameTask {
		m.viewport.GotoTop()
	}
}

// Task returns the displayed task, or nil.
func (m Model) Task() *model.Task { return m.task }

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewport.SetContent(m.renderContent())
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}
