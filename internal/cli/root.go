package cli

import (
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	verbose    bool
	projectDir string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "change-analyzer",
	Short: "Report which Solidity declarations changed between two revisions",
	Long: `change-analyzer compares two git revisions of a Solidity project and
reports, per changed file, which contracts, libraries and interfaces changed
and which of their functions and modifiers need review.

Formatting and comment-only edits are not reported. The report is written as
JSON (changed_declarations.json by default) for downstream audit tooling.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is <project>/.change-analyzer.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	flags.StringVarP(&projectDir, "project", "p", ".", "project root (must be inside a git repository)")
	flags.String("scopeignore", "", "ignore file relative to the project root (default .scopeignore)")
	flags.StringP("output", "o", "", "report file (default changed_declarations.json)")
	flags.String("strategy", "", "change detection strategy: content or lines")
	flags.Int("workers", 0, "files analysed in parallel (default number of CPUs)")
	flags.String("backend", "", "git backend: exec or gogit")
}

func setupLogging() {
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})

	if verbose || strings.EqualFold(os.Getenv("DEBUG"), "true") {
		logger.SetLevel(logger.DebugLevel)
	} else {
		logger.SetLevel(logger.InfoLevel)
	}
}
