package app

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/blackwell-systems/devup/internal/config"
	"github.com/blackwell-systems/devup/internal/output"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfgFile string

	// RootCmd is the root command for devup
	RootCmd = &cobra.Command{
		Use:     "devup",
		Short:   "Interactive upgrade manager for macOS developer tools",
		Version: version,
		Long: `devup keeps the package managers on a macOS workstation current:
Homebrew, Conda, Python, and npm. Confirmation prompts scale with how
much a version jump can break.

How confirmations scale:
  • patch  (1.2.3 → 1.2.4)  applied automatically
  • minor  (1.2 → 1.3)      asks y/N
  • major  (1.x → 2.x)      requires typing "yes" after a warning

Every run writes a timestamped execution log, saves a snapshot of tool
versions before anything changes, and records each decision in a local
SQLite history.

Quick Start:
  1. devup            # interactive menu
  2. devup check      # see what is outdated, change nothing
  3. devup upgrade    # upgrade everything, prompts included
  4. devup history    # review what past runs did

Examples:
  # Check all tools without mutating anything
  devup check

  # Upgrade only Homebrew packages
  devup upgrade brew

  # Accept minor-change prompts automatically (major still asks)
  devup upgrade --yes

  # Rehearse an upgrade
  devup upgrade --dry-run

  # Will installed Python packages survive 3.15?
  devup compat --target 3.15

  # Tail the newest run's log
  devup logs --follow`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Init(cfgFile); err != nil {
				return err
			}
			if config.NoColor() {
				output.DisableColor()
			}
			setupLogging(config.LogLevel())
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()) {
				return runMenu(cmd)
			}
			fmt.Println("devup: upgrade manager for macOS developer tools")
			fmt.Println()
			fmt.Println("Tip: Run 'devup check' to see what is outdated.")
			fmt.Println("     Run 'devup upgrade' to upgrade with confirmation prompts.")
			fmt.Println("     Run 'devup --help' for all commands.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./devup.yaml or ~/.config/devup/devup.yaml)")
	RootCmd.PersistentFlags().String("log-dir", "", "run log directory (default: ~/upgrade-logs)")
	RootCmd.PersistentFlags().String("db", "", "history database path (default: ~/.devup/devup.db)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	RootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	_ = viper.BindPFlag(config.KeyLogRoot, RootCmd.PersistentFlags().Lookup("log-dir"))
	_ = viper.BindPFlag(config.KeyDBPath, RootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag(config.KeyLogLevel, RootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyNoColor, RootCmd.PersistentFlags().Lookup("no-color"))

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// setupLogging configures the console logger. The level is set on the
// logger instance, never globally: the per-run execution log keeps its own
// logger and must record every command regardless of console verbosity.
func setupLogging(level string) {
	lvl := zerolog.InfoLevel
	switch level {
	case "debug":
		lvl = zerolog.DebugLevel
	case "warn":
		lvl = zerolog.WarnLevel
	case "error":
		lvl = zerolog.ErrorLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: !output.IsColorEnabled()}).Level(lvl)
}
