package app

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [tool...]",
	Short: "Show what is outdated without changing anything",
	Long: `Survey the supported tools (Homebrew, Conda, Python, npm) and report
installed versions, available versions, and how the confirmation policy
classifies each pending change.

Nothing is upgraded. The survey itself is still a run: it writes an
execution log, saves a version snapshot, and lands in history.`,
	Example: `  # Check every tool
  devup check

  # Check only Homebrew and npm
  devup check brew npm`,
	RunE: runCheck,
}

func init() {
	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	rc, st := openRun()
	defer closeRun(rc, st)

	eng := newEngine(rc, false, false)
	mgrs, err := resolveManagers(args, eng.Runner)
	if err != nil {
		return err
	}

	eng.Check(cmd.Context(), rc, mgrs)
	return nil
}
