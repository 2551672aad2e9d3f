package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/samartsevigor/change-analyzer/internal/analyzer"
	"github.com/samartsevigor/change-analyzer/internal/config"
	"github.com/samartsevigor/change-analyzer/internal/git"
	"github.com/samartsevigor/change-analyzer/internal/ignore"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"scopeignore": "ignore.file",
	"output":      "output.path",
	"strategy":    "analysis.strategy",
	"workers":     "analysis.workers",
	"backend":     "analysis.backend",
}

// session bundles what every analysing command needs.
type session struct {
	root     string
	cfg      *config.Config
	matcher  *ignore.Matcher
	analyzer *analyzer.Analyzer
}

func (s *session) Close() {
	s.analyzer.Close()
}

// outputPath resolves the report path against the project root.
func (s *session) outputPath() string {
	if filepath.IsAbs(s.cfg.Output.Path) {
		return s.cfg.Output.Path
	}
	return filepath.Join(s.root, s.cfg.Output.Path)
}

// projectRoot returns the absolute --project directory.
func projectRoot() (string, error) {
	root, err := filepath.Abs(projectDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("failed to access project: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project path %s is not a directory", root)
	}
	return root, nil
}

// loadConfig loads configuration for root with the command's flags bound.
func loadConfig(cmd *cobra.Command, root string) (*config.Config, error) {
	var opts []config.Option
	if cfgFile != "" {
		opts = append(opts, config.WithConfigFile(cfgFile))
	}
	for name, key := range flagKeys {
		opts = append(opts, config.WithFlag(key, cmd.Flag(name)))
	}

	cfg, err := config.NewLoader(root, opts...).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newOperations returns the git backend named by cfg.
func newOperations(cfg *config.Config, root string) (git.Operations, error) {
	switch strings.ToLower(cfg.Analysis.Backend) {
	case config.BackendGoGit:
		return git.OpenRepository(root)
	case config.BackendExec, "":
		return git.NewOperations(root), nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidBackend, cfg.Analysis.Backend)
	}
}

// newSession loads configuration, ignore rules and the git backend, and
// builds an analyzer reporting to progress.
func newSession(cmd *cobra.Command, progress analyzer.ProgressReporter) (*session, error) {
	root, err := projectRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return nil, err
	}

	matcher, err := ignore.Load(root, cfg.Ignore.File)
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore rules: %w", err)
	}

	ops, err := newOperations(cfg, root)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	a, err := analyzer.New(ops, cfg,
		analyzer.WithIgnore(matcher),
		analyzer.WithProgress(progress),
	)
	if err != nil {
		return nil, err
	}

	logger.Debugf("[cli] project %s, strategy %s, backend %s, %d workers",
		root, cfg.Analysis.Strategy, cfg.Analysis.Backend, cfg.Analysis.Workers)
	return &session{root: root, cfg: cfg, matcher: matcher, analyzer: a}, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
