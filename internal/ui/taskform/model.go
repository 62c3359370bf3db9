package taskform

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/nhle/taskman/internal/model"
	"github.com/nhle/taskman/internal/theme"
)

// SubmittedMsg is dispatched when the form completes. ID is uuid.Nil for a
// new task.
type SubmittedMsg struct {
	ID          uuid.UUID
	Name        string
	Description string
	Subtasks    []uuid.UUID
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	name        string
	description string
	subtasks    []uuid.UUID
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	editID     uuid.UUID
	candidates []*model.Task
	width      int
	height     int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// StartCreate initializes the form for a new task. candidates are the
// tasks offered as subtasks.
func (m *Model) StartCreate(candidates []*model.Task) tea.Cmd {
	m.editID = uuid.Nil
	m.candidates = candidates
	m.fb.name = ""
	m.fb.description = ""
	m.fb.subtasks = nil
	m.form = m.buildForm()
	return m.form.Init()
}

// StartEdit initializes the form with the fields of task. The task itself
// is never offered as its own subtask.
func (m *Model) StartEdit(task *model.Task, candidates []*model.Task) tea.Cmd {
	m.editID = task.ID()
	m.candidates = slices.DeleteFunc(slices.Clone(candidates), func(c *model.Task) bool {
		return c.ID() == task.ID()
	})
	m.fb.name = task.Name
	m.fb.description = task.Description
	m.fb.subtasks = task.SubtaskIDs()
	m.form = m.buildForm()
	return m.form.Init()
}

// Editing reports whether the form edits an existing task.
func (m Model) Editing() bool { return m.editID != uuid.Nil }

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		return m, m.submit()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.Editing() {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Name").
			Placeholder(model.DefaultTaskName).
			Value(&m.fb.name),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
	}
	if f := m.subtaskField(); f != nil {
		fields = append(fields, f)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) subtaskField() huh.Field {
	if len(m.candidates) == 0 {
		return nil
	}
	opts := make([]huh.Option[uuid.UUID], len(m.candidates))
	for i, t := range m.candidates {
		opts[i] = huh.NewOption(t.ID().String()[:8]+"  "+t.Name, t.ID())
	}
	return huh.NewMultiSelect[uuid.UUID]().
		Title("Subtasks").
		Options(opts...).
		Value(&m.fb.subtasks)
}

func (m Model) submit() tea.Cmd {
	msg := SubmittedMsg{
		ID:          m.editID,
		Name:        m.fb.name,
		Description: m.fb.description,
		Subtasks:    slices.Clone(m.fb.subtasks),
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}
