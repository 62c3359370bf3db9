package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskman/internal/pomodoro"
)

var (
	pomodoroWork  int
	pomodoroBreak int
)

func init() {
	pomodoroCmd.Flags().IntVar(&pomodoroWork, "work", 0, "Work minutes, 1-60 (default from config)")
	pomodoroCmd.Flags().IntVar(&pomodoroBreak, "break", 0, "Break minutes, 1-60 (default from config)")

	rootCmd.AddCommand(pomodoroCmd)
}

var pomodoroCmd = &cobra.Command{
	Use:     "pomodoro",
	Aliases: []string{"pomo"},
	Short:   "Run a work/break timer in the foreground",
	Long:    `Run one work interval followed by one break. Ctrl-C stops the timer.`,
	Args:    cobra.NoArgs,
	RunE:    runPomodoro,
}

func runPomodoro(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	work, brk := e.tracker.PomodoroMinutes()
	if pomodoroWork != 0 {
		work = pomodoroWork
	}
	if pomodoroBreak != 0 {
		brk = pomodoroBreak
	}
	if err := e.tracker.SetPomodoroMinutes(work, brk); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	e.tracker.StartPomodoro()
	defer e.tracker.StopPomodoro()

	out := cmd.OutOrStdout()
	ticker := time.NewTicker(time.Duration(e.cfg.Display.TickMillis) * time.Millisecond)
	defer ticker.Stop()

	for {
		st := e.tracker.PollPomodoro()
		if st.Note != nil {
			fmt.Fprintf(out, "\r\033[K%s", st.Note.Summary)
			if st.Note.Body != "" {
				fmt.Fprintf(out, " (%s)", st.Note.Body)
			}
			fmt.Fprintln(out)
		}
		if st.Phase.Kind == pomodoro.KindDone {
			return nil
		}
		fmt.Fprintf(out, "\r\033[K%s  %s left", st.Phase, pomodoro.FormatMinSec(st.Remaining))

		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nStopped.")
			return nil
		case <-ticker.C:
		}
	}
}
