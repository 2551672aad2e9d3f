package cli

import (
	"context"
	"errors"

	"github.com/samartsevigor/change-analyzer/internal/watcher"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <base>",
	Short: "Re-analyse the working tree against base on every save",
	Long: `Watch analyses the working tree against base, writes the report, and then
re-runs whenever Solidity files under the project change. Writes are batched
for 500ms so a save-all produces one run. Ignored directories are not watched.

Parsed declarations are cached by content, so only edited files are parsed
again.

Example:
  change-analyzer watch origin/main
`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	base := args[0]

	s, err := newSession(cmd, NewCLIProgressReporter(cmd.ErrOrStderr(), true))
	if err != nil {
		return err
	}
	defer s.Close()

	files, err := watcher.NewFileWatcher(s.root, s.cfg.Analysis.Extensions, s.matcher)
	if err != nil {
		return err
	}

	run := func(ctx context.Context, changed []string) error {
		if changed != nil {
			logger.Debugf("[watch] changed: %v", changed)
		}
		_, err := analyzeAndWrite(ctx, s, base, "")
		return err
	}

	err = watcher.NewCoordinator(files, run).Start(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("[watch] stopped")
		return nil
	}
	return err
}
