package cli

import (
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks, newest first",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	e, err := openEnv(cmd.Context(), cliLogWriter)
	if err != nil {
		return err
	}
	defer e.Close()

	tasks := e.tracker.Tasks()
	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks yet. Run 'taskman add <name>' to create one.")
		return nil
	}
	slices.Reverse(tasks)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tNAME\tCREATED\tTOOK\tSUBTASKS")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
			shortID(t),
			t.Status(),
			t.Name,
			formatTime(t.CreationTime()),
			formatElapsed(t),
			len(t.SubtaskIDs()),
		)
	}
	return w.Flush()
}
