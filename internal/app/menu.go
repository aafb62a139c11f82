package app

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/devup/internal/config"
	"github.com/blackwell-systems/devup/internal/managers"
	"github.com/blackwell-systems/devup/internal/tui"
)

// menuTools maps single-tool menu choices to the names resolveManagers
// understands.
var menuTools = map[tui.Choice]string{
	tui.ChoiceUpgradeHomebrew: "brew",
	tui.ChoiceUpgradeConda:    "conda",
	tui.ChoiceUpgradePython:   "python",
	tui.ChoiceUpgradeNpm:      "npm",
}

// menuChecks maps the survey-only menu choices the same way.
var menuChecks = map[tui.Choice]string{
	tui.ChoiceCheckHomebrew: "brew",
	tui.ChoiceCheckConda:    "conda",
	tui.ChoiceCheckPython:   "python",
	tui.ChoiceCheckNpm:      "npm",
}

// runMenu drives the interactive session: one run context spans every
// action taken until the operator exits, so the session shares one log,
// one snapshot, and one history row.
func runMenu(cmd *cobra.Command) error {
	rc, st := openRun()
	defer closeRun(rc, st)

	fmt.Print(tui.Banner(version, rc.LogPath, rc.SnapshotPath, config.DBPath()))

	eng := newEngine(rc, false, false)

	for {
		choice, err := tui.Show()
		if err != nil {
			return err
		}

		switch choice {
		case tui.ChoiceExit, tui.ChoiceNone:
			fmt.Println("Goodbye!")
			return nil

		case tui.ChoiceCheckAll:
			eng.Check(cmd.Context(), rc, managers.All(eng.Runner, config.PythonBinary()))

		case tui.ChoiceUpgradeAll:
			eng.UpgradeAll(cmd.Context(), rc, managers.All(eng.Runner, config.PythonBinary()))
			fmt.Println()
			fmt.Println("✓ All upgrades complete!")

		default:
			if name, ok := menuChecks[choice]; ok {
				m, err := managers.ByName(name, eng.Runner, config.PythonBinary())
				if err != nil {
					return err
				}
				eng.Check(cmd.Context(), rc, []managers.Manager{m})
				break
			}
			m, err := managers.ByName(menuTools[choice], eng.Runner, config.PythonBinary())
			if err != nil {
				return err
			}
			eng.Upgrade(cmd.Context(), rc, []managers.Manager{m})
		}

		pause()
	}
}

// pause holds the screen until Enter so table output survives long enough
// to be read before the menu redraws over it.
func pause() {
	fmt.Print("\nPress Enter to continue...")
	_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
}
