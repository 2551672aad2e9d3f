package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samartsevigor/change-analyzer/internal/cache"
	"github.com/samartsevigor/change-analyzer/internal/config"
	"github.com/samartsevigor/change-analyzer/internal/git"
	"github.com/samartsevigor/change-analyzer/internal/ignore"
	"github.com/samartsevigor/change-analyzer/internal/report"
	"github.com/samartsevigor/change-analyzer/internal/syntax"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one run.
type Result struct {
	// Reports are in changed-file listing order.
	Reports []report.FileReport

	// Skipped holds per-file failures that were logged and left out.
	Skipped []*FileError

	// Listed counts entries of the changed-file listing; Analyzed counts
	// those that passed extension and ignore filtering.
	Listed   int
	Analyzed int

	Duration time.Duration
}

// Analyzer runs the per-file pipeline over a changed-file listing.
// It is safe for sequential reuse, e.g. across watch iterations, so the
// catalog cache stays warm.
type Analyzer struct {
	ops      git.Operations
	matcher  *ignore.Matcher
	accept   func(path string) bool
	primary  Strategy
	fallback Strategy
	workers  int
	progress ProgressReporter
	catalogs *cache.Catalogs
	extract  *extractor
}

// Option customises an Analyzer.
type Option func(*Analyzer)

// WithIgnore excludes paths matched by m before any content is fetched.
func WithIgnore(m *ignore.Matcher) Option {
	return func(a *Analyzer) {
		a.matcher = m
	}
}

// WithProgress reports per-file progress.
func WithProgress(p ProgressReporter) Option {
	return func(a *Analyzer) {
		if p != nil {
			a.progress = p
		}
	}
}

// WithCatalogs shares an existing catalog cache.
func WithCatalogs(c *cache.Catalogs) Option {
	return func(a *Analyzer) {
		a.catalogs = c
	}
}

// New creates an analyzer reading revisions through ops and configured by cfg.
func New(ops git.Operations, cfg *config.Config, opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		ops:      ops,
		accept:   cfg.HasSourceExtension,
		workers:  cfg.Analysis.Workers,
		progress: &NoOpProgressReporter{},
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.catalogs == nil {
		catalogs, err := cache.New(cfg.Cache.Size)
		if err != nil {
			return nil, err
		}
		a.catalogs = catalogs
	}
	if a.workers < 1 {
		a.workers = 1
	}

	parser := syntax.NewParser()
	a.extract = &extractor{parser: parser, catalogs: a.catalogs}
	lines := NewLineStrategy(parser, a.catalogs, ops)
	switch strings.ToLower(cfg.Analysis.Strategy) {
	case config.StrategyLines:
		a.primary = lines
	case config.StrategyContent, "":
		a.primary = NewContentStrategy(parser, a.catalogs)
		if cfg.Analysis.Fallback {
			a.fallback = lines
		}
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidStrategy, cfg.Analysis.Strategy)
	}

	return a, nil
}

// Close releases the catalog cache.
func (a *Analyzer) Close() {
	a.catalogs.Close()
}

// Run analyses every added or modified source file between base and head.
// An empty head compares against the working tree.
//
// Per-file failures never abort the run; they are logged and collected in
// Result.Skipped. Run fails with ErrChangeListing when the listing cannot
// be produced and with ErrNoContent when no listed file could be read.
func (a *Analyzer) Run(ctx context.Context, base, head string) (*Result, error) {
	start := time.Now()

	listed, err := a.ops.ChangedFiles(ctx, base, head)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrChangeListing, err)
	}

	files := a.filter(listed)
	logger.Infof("[analyzer] %d changed files, %d to analyse (%s..%s)", len(listed), len(files), base, revisionLabel(head))
	a.progress.OnStart(len(files))

	outcomes := make([]outcome, len(files))
	var fetched atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, f := range files {
		g.Go(func() error {
			defer a.progress.OnFileAnalyzed(f.Path)

			o := a.analyzeFile(gctx, f, base, head)
			if o.fetched {
				fetched.Add(1)
			}
			if o.err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			outcomes[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(files) > 0 && fetched.Load() == 0 {
		return nil, fmt.Errorf("%w: %d files listed between %s and %s", ErrNoContent, len(files), base, revisionLabel(head))
	}

	result := &Result{
		Reports:  []report.FileReport{},
		Listed:   len(listed),
		Analyzed: len(files),
	}
	for _, o := range outcomes {
		if o.err != nil {
			var fe *FileError
			if !errors.As(o.err, &fe) {
				fe = &FileError{Path: o.path, Revision: head, Op: OpExtract, Err: o.err}
			}
			logger.Warnf("[analyzer] skipping %v", fe)
			result.Skipped = append(result.Skipped, fe)
			continue
		}
		if o.report != nil {
			result.Reports = append(result.Reports, *o.report)
		}
	}
	result.Duration = time.Since(start)

	logger.Infof("[analyzer] %d files in report, %d skipped (%s)", len(result.Reports), len(result.Skipped), result.Duration.Round(time.Millisecond))
	a.progress.OnComplete(result)
	return result, nil
}

// outcome is the per-file result slot filled by a worker.
type outcome struct {
	path    string
	report  *report.FileReport
	err     error
	fetched bool
}

// filter keeps source files that are not ignored, preserving order.
func (a *Analyzer) filter(listed []git.ChangedFile) []git.ChangedFile {
	var files []git.ChangedFile
	for _, f := range listed {
		if !a.accept(f.Path) {
			continue
		}
		if a.matcher.Match(f.Path) {
			logger.Debugf("[analyzer] ignored %s", f.Path)
			continue
		}
		files = append(files, f)
	}
	return files
}

func (a *Analyzer) analyzeFile(ctx context.Context, f git.ChangedFile, base, head string) outcome {
	o := outcome{path: f.Path}

	headContent, err := a.ops.Content(ctx, head, f.Path)
	if err != nil {
		o.err = &FileError{Path: f.Path, Revision: head, Op: OpFetch, Err: err}
		return o
	}
	o.fetched = true

	switch f.Status {
	case git.StatusAdded:
		// New files skip the diff engine entirely.
		catalog, err := a.extract.catalog(ctx, f.Path, head, headContent)
		if err != nil {
			o.err = err
			return o
		}
		o.report = report.ForAddedFile(f.Path, catalog)
		logger.Debugf("[analyzer] %s added with %d declarations", f.Path, len(catalog))
		return o

	case git.StatusModified:
		o.report, o.err = a.analyzeModified(ctx, f.Path, base, head, headContent)
		return o
	}

	logger.Debugf("[analyzer] %s has unsupported status %q", f.Path, f.Status)
	return o
}

func (a *Analyzer) analyzeModified(ctx context.Context, path, base, head string, headContent []byte) (*report.FileReport, error) {
	mf := ModifiedFile{Path: path, BaseRev: base, HeadRev: head, Head: headContent}

	baseContent, err := a.ops.Content(ctx, base, path)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err == nil && len(baseContent) > 0 {
		mf.Base = baseContent
		return a.primary.Analyze(ctx, mf)
	}
	if !a.primary.NeedsBase() {
		return a.primary.Analyze(ctx, mf)
	}

	if a.fallback == nil {
		logger.Warnf("[analyzer] could not get base content for %s at %s, skipping", path, base)
		return nil, nil
	}
	logger.Infof("[analyzer] base content missing for %s at %s, using %s strategy", path, base, a.fallback.Name())
	return a.fallback.Analyze(ctx, mf)
}
