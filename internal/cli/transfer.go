package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/taskman/internal/registry"
)

var (
	importPolicy string
	historyLimit int
	resetYes     bool
)

func init() {
	importCmd.Flags().StringVar(&importPolicy, "policy", "", "What to do with tasks that already exist: overwrite or skip (default from config)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of revisions to show")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Confirm deleting every task and saved version")

	rootCmd.AddCommand(exportCmd, importCmd, historyCmd, restoreCmd, resetCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Write every task to a JSON file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Merge tasks from a JSON file",
	Long: `Merge tasks from a file written by 'taskman export'. Files from older
versions are accepted. Nothing is changed if any task in the file is malformed.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List earlier saved versions of the task list",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var restoreCmd = &cobra.Command{
	Use:   "restore REVISION",
	Short: "Replace the task list with an earlier saved version",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every task and every saved version",
	Long: `Delete the stored task list together with its history. This cannot be
undone with 'taskman restore'; run 'taskman export' first to keep a copy.`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.tracker.Export(args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", e.tracker.Len(), args[0])
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	policy := e.tracker.ImportPolicy()
	if importPolicy != "" {
		if policy, err = registry.ParsePolicy(importPolicy); err != nil {
			return err
		}
	}

	res, err := e.tracker.Import(cmd.Context(), args[0], policy)
	if err != nil {
		return err
	}
	if err := e.tracker.Save(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %s\n", args[0], res)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	revs, err := e.tracker.Revisions(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(revs) == 0 {
		fmt.Fprintln(out, "No earlier versions saved.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REVISION\tREPLACED AT\tSIZE")
	for _, r := range revs {
		fmt.Fprintf(w, "%d\t%s\t%d bytes\n", r.ID, formatTime(r.SavedAt), len(r.Value))
	}
	return w.Flush()
}

func runRestore(cmd *cobra.Command, args []string) error {
	var id int64
	if _, err := fmt.Sscan(args[0], &id); err != nil {
		return fmt.Errorf("revision must be a number: %q", args[0])
	}

	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	if err := e.tracker.RestoreRevision(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored revision %d (%d tasks)\n", id, e.tracker.Len())
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if !resetYes {
		return errors.New("reset deletes every task and saved version; pass --yes to confirm")
	}

	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	n := e.tracker.Len()
	if err := e.tracker.Reset(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d tasks and their history\n", n)
	return nil
}
