package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devup/internal/output"
	"github.com/blackwell-systems/devup/internal/snapshot"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:   "history [run]",
		Short: "Show past runs and the decisions they made",
		Long: `List recent runs, or show every decision one run made: what was
upgraded, what was declined, what was vetoed, and the exact command
each upgrade ran.

A run is named by its number, its timestamp stamp, or "latest".`,
		Example: `  # List recent runs
  devup history

  # Every decision of the latest run
  devup history latest

  # A specific run
  devup history 12
  devup history 20260815_093000`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list")

	RootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	if len(args) == 0 {
		runs, err := st.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		fmt.Print(output.RenderRunTable(runs))
		if len(runs) > 0 {
			if n, err := st.CountEvents(); err == nil {
				fmt.Printf("\n%d decisions recorded in total\n", n)
			}
		}
		return nil
	}

	r, err := findRun(st, args[0])
	if err != nil {
		return err
	}
	events, err := st.ListEvents(r.ID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %d (%s): %d tools checked, %d commands run\n",
		r.ID, r.Stamp, r.ToolsChecked, r.CommandsRun)
	fmt.Printf("Log: %s\n", r.LogPath)
	if snap, err := snapshot.Load(r.SnapshotPath); err == nil {
		fmt.Printf("Snapshot: %s (%d tools captured)\n\n", r.SnapshotPath, len(snap.Tools))
	} else {
		fmt.Printf("Snapshot: %s\n\n", r.SnapshotPath)
	}
	fmt.Print(output.RenderEventTable(events))
	return nil
}
