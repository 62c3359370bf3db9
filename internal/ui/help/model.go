package help

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskman/internal/keys"
	"github.com/nhle/taskman/internal/theme"
)

// commandHelp lists the command palette verbs.
var commandHelp = []string{
	"export PATH              write all tasks to a JSON file",
	"import PATH [POLICY]     merge tasks from a file (overwrite or skip)",
	"work MIN / break MIN     set pomodoro lengths (1-60)",
	"pomodoro                 start or stop the timer",
	"save                     write the task list now",
	"quit                     save and exit",
}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// View renders the help overlay.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	m.help.Width = m.width - 4
	m.help.ShowAll = true

	commands := theme.HelpStyle.Render(lipgloss.JoinVertical(lipgloss.Left, commandHelp...))

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		m.help.View(m.keys),
		"",
		titleStyle.Render("Commands"),
		commands,
	)

	return theme.DetailPanelStyle.
		Width(max(0, m.width-4)).
		Height(max(0, m.height-4)).
		Render(content)
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
