// Package cli implements the taskman command line using Cobra.
// With no subcommand it opens the terminal UI.
package cli

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskman/internal/app"
)

var (
	configPath string
	dbPath     string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default ~/.config/taskman/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the task database (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log tracker activity to stderr")
}

var rootCmd = &cobra.Command{
	Use:   "taskman",
	Short: "Track tasks and run pomodoros from the terminal",
	Long: `taskman keeps a local list of tasks with start/finish times and
subtask links, and runs a work/break pomodoro timer.

Run without a subcommand to open the interactive UI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runTUI,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runTUI(cmd *cobra.Command, args []string) error {
	env, err := openEnv(cmd.Context(), uiLogWriter)
	if err != nil {
		return err
	}
	defer env.Close()

	p := tea.NewProgram(app.New(env.tracker, env.cfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running UI: %w", err)
	}
	return env.tracker.Save(cmd.Context())
}
