package app

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskman/internal/keys"
	"github.com/nhle/taskman/internal/model"
	"github.com/nhle/taskman/internal/tracker"
	"github.com/nhle/taskman/internal/ui"
	"github.com/nhle/taskman/internal/ui/command"
	"github.com/nhle/taskman/internal/ui/detail"
	helpview "github.com/nhle/taskman/internal/ui/help"
	"github.com/nhle/taskman/internal/ui/taskform"
	"github.com/nhle/taskman/internal/ui/tasklist"
	"github.com/nhle/taskman/internal/ui/timer"
)

// tickMsg drives pomodoro polling.
type tickMsg time.Time

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewForm
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model that manages view routing, layout
// and access to the tracker. Every tracker call happens inside Update.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	tracker      *tracker.Tracker
	keys         *keys.KeyMap
	tick         time.Duration
	taskList     tasklist.Model
	detail       detail.Model
	helpView     helpview.Model
	commandView  command.Model
	form         taskform.Model
	timer        timer.Model
	pomodoro     tracker.PomodoroState
	status       string
	statusErr    bool
	ready        bool
}

// New creates the root model around a loaded tracker.
func New(tr *tracker.Tracker, cfg *model.AppConfig) Model {
	if cfg == nil {
		cfg = model.DefaultAppConfig()
	}
	k := keys.DefaultKeyMap()

	m := Model{
		currentView: ViewList,
		tracker:     tr,
		keys:        k,
		tick:        time.Duration(cfg.Display.TickMillis) * time.Millisecond,
		taskList:    tasklist.New(k, 80, 24),
		detail:      detail.New(k, tr.Get, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		form:        taskform.New(80, 24),
		timer:       timer.New(80),
	}
	m.taskList.SetTasks(tr.Tasks())
	return m
}

// Init starts the polling tick.
func (m Model) Init() tea.Cmd {
	return m.nextTick()
}

func (m Model) nextTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		m.resize()
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case tickMsg:
		m.pollPomodoro()
		return m, m.nextTick()

	case tasklist.SelectedTaskMsg:
		task, err := m.tracker.Get(msg.TaskID)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detail.SetTask(task, m.tracker.Parents(task.ID()))
		return m, nil

	case detail.BackMsg:
		m.currentView = ViewList
		return m, nil

	case taskform.SubmittedMsg:
		m.currentView = m.previousView
		m.saveForm(msg)
		return m, nil

	case taskform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		m.commandView.Blur()
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

// handleKey processes global keys before delegating to the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		cmd := m.quit()
		return m, cmd
	}

	switch m.currentView {
	case ViewForm:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			return m, nil
		}
		return m.updateActiveView(msg)

	case ViewCommand:
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
			m.commandView.Blur()
			return m, nil
		}
		return m.updateActiveView(msg)

	case ViewHelp:
		if key.Matches(msg, m.keys.Help) || key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil
	}

	m.clearStatus()

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.currentView == ViewList {
			cmd := m.quit()
			return m, cmd
		}
		m.currentView = ViewList
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.New):
		m.previousView = m.currentView
		m.currentView = ViewForm
		cmd := m.form.StartCreate(m.tracker.Tasks())
		return m, cmd

	case key.Matches(msg, m.keys.Edit):
		if task, ok := m.selectedTask(); ok {
			m.previousView = m.currentView
			m.currentView = ViewForm
			cmd := m.form.StartEdit(task, m.tracker.Tasks())
			return m, cmd
		}
		return m, nil

	case key.Matches(msg, m.keys.Start):
		if task, ok := m.selectedTask(); ok {
			m.startTask(task)
		}
		return m, nil

	case key.Matches(msg, m.keys.Finish):
		if task, ok := m.selectedTask(); ok {
			m.finishTask(task)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if task, ok := m.selectedTask(); ok {
			m.deleteTask(task)
		}
		return m, nil

	case key.Matches(msg, m.keys.Pomodoro):
		m.togglePomodoro()
		return m, nil

	case key.Matches(msg, m.keys.Save):
		m.save()
		return m, nil
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewForm:
		m.form, cmd = m.form.Update(msg)
	}

	return m, cmd
}

// resize recomputes the layout, which depends on whether the timer bar
// is shown.
func (m *Model) resize() {
	m.layout = m.layout.WithTimer(m.pomodoro.Running)
	w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
	m.taskList.SetSize(w, h)
	m.detail.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
	m.form.SetSize(w, h)
	m.timer.SetWidth(w)
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("taskman", m.summary())
	content := m.renderContent()
	timerBar := m.timer.View(m.pomodoro)

	var statusBar string
	switch {
	case m.status != "" && m.statusErr:
		statusBar = m.layout.RenderErrorBar(m.status)
	case m.status != "":
		statusBar = m.layout.RenderStatusBar(m.status)
	default:
		statusBar = m.layout.RenderStatusBar(m.keyHints())
	}

	return m.layout.RenderWithFrame(header, content, timerBar, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewForm:
		return m.form.View()
	default:
		return ""
	}
}

// summary counts tasks by status for the header.
func (m Model) summary() string {
	var started, finished int
	tasks := m.tracker.Tasks()
	for _, t := range tasks {
		switch t.Status() {
		case model.StatusStarted:
			started++
		case model.StatusFinished:
			finished++
		}
	}
	return fmt.Sprintf("%d tasks, %d started, %d finished", len(tasks), started, finished)
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | esc back"
	case ViewDetail:
		return "esc back | e edit | s start | f finish | d delete | j/k scroll"
	case ViewForm:
		return "enter next | esc cancel"
	default:
		return "q quit | ? help | n new | s start | f finish | p pomodoro | : command"
	}
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = "Error: " + err.Error()
	m.statusErr = true
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusErr = false
}

// ctx is the context for tracker calls made from Update.
func (m Model) ctx() context.Context { return context.Background() }
