package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	upgradeYes    bool
	upgradeDryRun bool

	upgradeCmd = &cobra.Command{
		Use:   "upgrade [tool...]",
		Short: "Upgrade tools with prompts scaled to change size",
		Long: `Upgrade the supported tools (Homebrew, Conda, Python, npm), or only the
ones named. Before anything runs, the current tool versions are saved to
a snapshot and each pending change is classified:

  • patch changes apply automatically
  • minor changes ask y/N
  • major changes require typing "yes" after a warning

--yes covers the y/N tier only. Major changes always prompt, so an
unattended run can never cross a major version boundary. Interpreters
devup does not manage (system Python, pyenv) are reported and left
alone no matter what.`,
		Example: `  # Upgrade everything, answering prompts as they come
  devup upgrade

  # Upgrade only Homebrew packages
  devup upgrade brew

  # Accept minor-change prompts automatically
  devup upgrade --yes

  # Show what would run without executing anything
  devup upgrade --dry-run`,
		RunE: runUpgrade,
	}
)

func init() {
	upgradeCmd.Flags().BoolVarP(&upgradeYes, "yes", "y", false, "accept y/N prompts without asking (major changes still prompt)")
	upgradeCmd.Flags().BoolVar(&upgradeDryRun, "dry-run", false, "classify and report, but run no upgrade commands")

	RootCmd.AddCommand(upgradeCmd)
}

func runUpgrade(cmd *cobra.Command, args []string) error {
	rc, st := openRun()
	defer closeRun(rc, st)

	eng := newEngine(rc, upgradeYes, upgradeDryRun)
	mgrs, err := resolveManagers(args, eng.Runner)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		eng.UpgradeAll(cmd.Context(), rc, mgrs)
		if !upgradeDryRun {
			fmt.Println()
			fmt.Println("✓ All upgrades complete!")
		}
	} else {
		eng.Upgrade(cmd.Context(), rc, mgrs)
	}

	fmt.Printf("\nRun log: %s\n", rc.LogPath)
	return nil
}
