package app

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/nhle/taskman/internal/model"
	"github.com/nhle/taskman/internal/ui/command"
	"github.com/nhle/taskman/internal/ui/taskform"
)

// selectedTask returns the task the current view is pointing at.
func (m Model) selectedTask() (*model.Task, bool) {
	if m.currentView == ViewDetail {
		t := m.detail.Task()
		return t, t != nil
	}
	return m.taskList.SelectedTask()
}

// refresh reloads the list and the open detail after a mutation. The
// detail view falls back to the list when its task is gone.
func (m *Model) refresh() {
	m.taskList.SetTasks(m.tracker.Tasks())

	shown := m.detail.Task()
	if shown == nil {
		return
	}
	task, err := m.tracker.Get(shown.ID())
	if err != nil {
		m.detail.SetTask(nil, nil)
		if m.currentView == ViewDetail {
			m.currentView = ViewList
		}
		return
	}
	m.detail.SetTask(task, m.tracker.Parents(task.ID()))
}

// saveForm creates or updates a task from submitted form values.
func (m *Model) saveForm(msg taskform.SubmittedMsg) {
	defer m.refresh()

	if msg.ID == uuid.Nil {
		task, err := m.tracker.CreateTask(m.ctx(), msg.Name, msg.Description, msg.Subtasks)
		if err != nil {
			m.setError(err)
			return
		}
		m.setStatus("Created %s", task.Name)
		return
	}

	if err := m.tracker.UpdateTask(m.ctx(), msg.ID, msg.Name, msg.Description, msg.Subtasks); err != nil {
		m.setError(err)
		return
	}
	m.setStatus("Updated %s", displayName(msg.Name))
}

func (m *Model) startTask(task *model.Task) {
	defer m.refresh()

	before := task.Status()
	if _, err := m.tracker.StartTask(m.ctx(), task.ID()); err != nil {
		m.setError(err)
		return
	}
	if task.Status() == before {
		m.setStatus("%s is already %s", task.Name, before)
		return
	}
	m.setStatus("Started %s", task.Name)
}

func (m *Model) finishTask(task *model.Task) {
	defer m.refresh()

	before := task.Status()
	if _, err := m.tracker.FinishTask(m.ctx(), task.ID()); err != nil {
		m.setError(err)
		return
	}
	if task.Status() == before {
		m.setStatus("%s is %s; only started tasks can be finished", task.Name, before)
		return
	}
	m.setStatus("Finished %s", task.Name)
}

func (m *Model) deleteTask(task *model.Task) {
	defer m.refresh()

	if err := m.tracker.DeleteTask(m.ctx(), task.ID()); err != nil {
		m.setError(err)
		return
	}
	m.setStatus("Removed %s", task.Name)
}

func (m *Model) togglePomodoro() {
	if m.tracker.TogglePomodoro() {
		work, brk := m.tracker.PomodoroMinutes()
		m.setStatus("Pomodoro started: %d min work, %d min break", work, brk)
	} else {
		m.setStatus("Pomodoro stopped")
	}
	m.pollPomodoro()
}

// pollPomodoro reads the timer and relays phase changes to the status bar.
func (m *Model) pollPomodoro() {
	wasRunning := m.pomodoro.Running
	m.pomodoro = m.tracker.PollPomodoro()

	if note := m.pomodoro.Note; note != nil {
		if note.Body != "" {
			m.setStatus("%s (%s)", note.Summary, note.Body)
		} else {
			m.setStatus("%s", note.Summary)
		}
	}
	if wasRunning != m.pomodoro.Running && m.ready {
		m.resize()
	}
}

func (m *Model) save() {
	if err := m.tracker.Save(m.ctx()); err != nil {
		m.setError(err)
		return
	}
	m.setStatus("Saved %d tasks", m.tracker.Len())
}

// quit stops the timer and exits. The caller saves after the program ends.
func (m *Model) quit() tea.Cmd {
	m.tracker.StopPomodoro()
	return tea.Quit
}

// executeCommand handles a line from the command palette.
func (m *Model) executeCommand(line string) tea.Cmd {
	cmd, err := command.Parse(line)
	if err != nil {
		m.setError(err)
		return nil
	}

	switch cmd.Verb {
	case command.VerbExport:
		if err := m.tracker.Export(cmd.Path); err != nil {
			m.setError(err)
			return nil
		}
		m.setStatus("Exported %d tasks to %s", m.tracker.Len(), cmd.Path)

	case command.VerbImport:
		policy := m.tracker.ImportPolicy()
		if cmd.HasPolicy {
			policy = cmd.Policy
		}
		res, err := m.tracker.Import(m.ctx(), cmd.Path, policy)
		if err != nil {
			m.setError(err)
			return nil
		}
		m.refresh()
		m.setStatus("Imported %s: %s", cmd.Path, res)

	case command.VerbWork, command.VerbBreak:
		work, brk := m.tracker.PomodoroMinutes()
		if cmd.Verb == command.VerbWork {
			work = cmd.Minutes
		} else {
			brk = cmd.Minutes
		}
		if err := m.tracker.SetPomodoroMinutes(work, brk); err != nil {
			m.setError(err)
			return nil
		}
		m.setStatus("Next pomodoro: %d min work, %d min break", work, brk)

	case command.VerbPomodoro:
		m.togglePomodoro()

	case command.VerbSave:
		m.save()

	case command.VerbQuit:
		return m.quit()

	default:
		m.setError(errors.New("unsupported command"))
	}
	return nil
}

func displayName(name string) string {
	if name == "" {
		return model.DefaultTaskName
	}
	return name
}
