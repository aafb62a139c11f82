package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	logsFollow bool

	logsCmd = &cobra.Command{
		Use:   "logs [run]",
		Short: "Print a run's execution log",
		Long: `Print the execution log of a run: every subprocess with its exit code
and every confirmation decision, in the order they happened.

Defaults to the latest run. With --follow, keep the log open and print
new lines as another devup writes them, which is how you watch a long
upgrade from a second terminal.`,
		Example: `  # The latest run's log
  devup logs

  # A specific run
  devup logs 12

  # Watch an upgrade in progress
  devup logs --follow`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLogs,
	}
)

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "keep the log open and print new lines as they land")

	RootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	ref := "latest"
	if len(args) > 0 {
		ref = args[0]
	}
	r, err := findRun(st, ref)
	if err != nil {
		return err
	}

	f, err := os.Open(r.LogPath)
	if err != nil {
		return fmt.Errorf("failed to open log %s: %w", r.LogPath, err)
	}
	defer f.Close()

	if _, err := io.Copy(os.Stdout, f); err != nil {
		return err
	}
	if !logsFollow {
		return nil
	}
	return followLog(cmd.Context(), f, r.LogPath)
}

// followLog prints lines appended to the log until interrupted. f's offset
// already sits at the end of what was printed, so each write event only
// copies the new tail.
func followLog(ctx context.Context, f *os.File, path string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start log watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory, not the file: the run that owns the log may
	// not have created it yet when --follow starts.
	if err := w.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != path || !ev.Has(fsnotify.Write) {
				continue
			}
			if _, err := io.Copy(os.Stdout, f); err != nil {
				return err
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("log watcher error")
		case <-sigCh:
			fmt.Println()
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
