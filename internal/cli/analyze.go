package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/samartsevigor/change-analyzer/internal/analyzer"
	"github.com/samartsevigor/change-analyzer/internal/report"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	quietFlag  bool
	stdoutFlag bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <base> [head]",
	Short: "Report declarations changed between two revisions",
	Long: `Analyze lists the Solidity files added or modified between base and head,
compares each contract's functions and modifiers, and writes the ones whose
code changed to the report file.

When head is omitted the working tree is compared against base.

Examples:
  # Compare two tags
  change-analyzer analyze v1.0.0 v1.1.0

  # Compare uncommitted work against main
  change-analyzer analyze main

  # Use the line-overlap strategy and print the report
  change-analyzer analyze main feature --strategy lines --stdout
`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress output")
	analyzeCmd.Flags().BoolVar(&stdoutFlag, "stdout", false, "Also print the report to stdout")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	base, head := args[0], ""
	if len(args) == 2 {
		head = args[1]
	}

	s, err := newSession(cmd, NewCLIProgressReporter(cmd.ErrOrStderr(), quietFlag))
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := analyzeAndWrite(ctx, s, base, head)
	if err != nil {
		return err
	}

	if stdoutFlag {
		if err := report.Encode(cmd.OutOrStdout(), result.Reports); err != nil {
			return err
		}
	}
	return nil
}

// analyzeAndWrite runs one analysis and writes the report file.
func analyzeAndWrite(ctx context.Context, s *session, base, head string) (*analyzer.Result, error) {
	result, err := s.analyzer.Run(ctx, base, head)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("analysis interrupted: %w", err)
		}
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	path := s.outputPath()
	if err := report.Write(path, result.Reports); err != nil {
		return nil, err
	}
	logger.Infof("[cli] report written to %s", path)
	return result, nil
}
