package tasklist

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nhle/taskman/internal/keys"
	"github.com/nhle/taskman/internal/model"
	"github.com/nhle/taskman/internal/theme"
)

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID uuid.UUID
}

// Model is the main task list view component.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new task list model.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetTasks replaces the displayed tasks. tasks is expected in creation
// order and is shown newest first. The cursor stays on the same task when
// it is still present.
func (m *Model) SetTasks(tasks []*model.Task) tea.Cmd {
	prev, hadPrev := m.SelectedTask()
	cursor := m.list.Index()

	ordered := slices.Clone(tasks)
	slices.Reverse(ordered)

	items := make([]list.Item, len(ordered))
	for i, t := range ordered {
		items[i] = TaskItem{Task: t}
		if hadPrev && t.ID() == prev.ID() {
			cursor = i
		}
	}

	cmd := m.list.SetItems(items)
	if len(items) > 0 {
		m.list.Select(min(cursor, len(items)-1))
	}
	return cmd
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (*model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return nil, false
	}
	return item.Task, true
}

// Len returns the number of tasks shown.
func (m Model) Len() int { return len(m.list.Items()) }

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Select) {
		t, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		id := t.ID()
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: id}
		}
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}
	return m.list.View()
}

// renderEmptyState shows guidance text when there are no tasks.
func (m Model) renderEmptyState() string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render("No tasks yet.\n\nPress n to create one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
