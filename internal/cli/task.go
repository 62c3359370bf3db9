package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	addDescription    string
	addSubtasks       []string
	renameDescription string
)

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "Task description")
	addCmd.Flags().StringSliceVar(&addSubtasks, "sub", nil, "Subtask id or id prefix (repeatable)")
	renameCmd.Flags().StringVarP(&renameDescription, "description", "d", "", "Replace the description as well")

	rootCmd.AddCommand(addCmd, startCmd, finishCmd, rmCmd, renameCmd)
}

var addCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var startCmd = &cobra.Command{
	Use:   "start TASK",
	Short: "Start a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runStart,
}

var finishCmd = &cobra.Command{
	Use:   "finish TASK",
	Short: "Finish a started task",
	Args:  cobra.ExactArgs(1),
	RunE:  runFinish,
}

var rmCmd = &cobra.Command{
	Use:     "rm TASK",
	Aliases: []string{"delete"},
	Short:   "Delete a task and unlink it from other tasks",
	Args:    cobra.ExactArgs(1),
	RunE:    runRm,
}

var renameCmd = &cobra.Command{
	Use:   "rename TASK NAME",
	Short: "Rename a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runRename,
}

func runAdd(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	var subs []uuid.UUID
	for _, ref := range addSubtasks {
		sub, err := e.tracker.Find(ref)
		if err != nil {
			return fmt.Errorf("subtask: %w", err)
		}
		subs = append(subs, sub.ID())
	}

	t, err := e.tracker.CreateTask(cmd.Context(), args[0], addDescription, subs)
	if err != nil {
		return err
	}
	if err := e.tracker.Save(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", shortID(t), t.Name)
	return nil
}

func runStart(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	t, err := e.tracker.Find(args[0])
	if err != nil {
		return err
	}
	before := t.Status()
	if _, err := e.tracker.StartTask(cmd.Context(), t.ID()); err != nil {
		return err
	}
	if err := e.tracker.Save(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if before == t.Status() {
		fmt.Fprintf(out, "%s is already %s\n", t.Name, before)
		return nil
	}
	started, _ := t.Started()
	fmt.Fprintf(out, "Started %s at %s\n", t.Name, formatTime(started))
	return nil
}

func runFinish(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	t, err := e.tracker.Find(args[0])
	if err != nil {
		return err
	}
	before := t.Status()
	if _, err := e.tracker.FinishTask(cmd.Context(), t.ID()); err != nil {
		return err
	}
	if err := e.tracker.Save(cmd.Context()); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if before == t.Status() {
		fmt.Fprintf(out, "%s is %s; only started tasks can be finished\n", t.Name, before)
		return nil
	}
	fmt.Fprintf(out, "Finished %s in %s\n", t.Name, formatElapsed(t))
	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	t, err := e.tracker.Find(args[0])
	if err != nil {
		return err
	}
	if err := e.tracker.DeleteTask(cmd.Context(), t.ID()); err != nil {
		return err
	}
	if err := e.tracker.Save(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", t.Name)
	return nil
}

func runRename(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	t, err := e.tracker.Find(args[0])
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("description") {
		err = e.tracker.UpdateTask(cmd.Context(), t.ID(), args[1], renameDescription, t.SubtaskIDs())
	} else {
		err = e.tracker.Rename(cmd.Context(), t.ID(), args[1])
	}
	if err != nil {
		return err
	}
	if err := e.tracker.Save(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %s\n", shortID(t), t.Name)
	return nil
}
