package analyzer

import (
	"context"
	"errors"

	"github.com/samartsevigor/change-analyzer/internal/cache"
	"github.com/samartsevigor/change-analyzer/internal/declaration"
	"github.com/samartsevigor/change-analyzer/internal/diff"
	"github.com/samartsevigor/change-analyzer/internal/git"
	"github.com/samartsevigor/change-analyzer/internal/report"
	"github.com/samartsevigor/change-analyzer/internal/syntax"
	logger "github.com/sirupsen/logrus"
)

// ModifiedFile carries both revisions of a file whose status is M.
// Base is nil when the base revision could not be retrieved.
type ModifiedFile struct {
	Path    string
	BaseRev string
	HeadRev string
	Base    []byte
	Head    []byte
}

// Strategy turns a modified file into a report entry. A nil report means
// the file has nothing worth reporting.
type Strategy interface {
	Name() string

	// NeedsBase reports whether Analyze requires base content. Base content
	// is passed whenever it can be fetched; a strategy that does not need it
	// must cope with a nil Base.
	NeedsBase() bool

	Analyze(ctx context.Context, f ModifiedFile) (*report.FileReport, error)
}

// extractor parses content into catalogs through the shared cache.
type extractor struct {
	parser   *syntax.Parser
	catalogs *cache.Catalogs
}

// catalog extracts the declarations of content. Unparseable content
// degrades to an empty catalog.
func (e *extractor) catalog(ctx context.Context, path, revision string, content []byte) (declaration.Catalog, error) {
	catalog, hasErrors, err := e.catalogs.Extract(ctx, e.parser, content)
	if errors.Is(err, syntax.ErrUnparseable) {
		logger.Warnf("[analyzer] %s at %s is unparseable, treating as empty", path, revisionLabel(revision))
		return declaration.Catalog{}, nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FileError{Path: path, Revision: revision, Op: OpExtract, Err: err}
	}
	if hasErrors {
		logger.Warnf("[analyzer] %s at %s has syntax errors, results may be partial", path, revisionLabel(revision))
	}
	return catalog, nil
}

// ContentStrategy compares normalized member text of both revisions.
type ContentStrategy struct {
	extractor
}

// NewContentStrategy creates the declaration-level diff strategy.
func NewContentStrategy(parser *syntax.Parser, catalogs *cache.Catalogs) *ContentStrategy {
	return &ContentStrategy{extractor{parser: parser, catalogs: catalogs}}
}

func (s *ContentStrategy) Name() string    { return "content" }
func (s *ContentStrategy) NeedsBase() bool { return true }

func (s *ContentStrategy) Analyze(ctx context.Context, f ModifiedFile) (*report.FileReport, error) {
	base, err := s.catalog(ctx, f.Path, f.BaseRev, f.Base)
	if err != nil {
		return nil, err
	}
	head, err := s.catalog(ctx, f.Path, f.HeadRev, f.Head)
	if err != nil {
		return nil, err
	}

	changes := diff.Compare(base, head)
	logger.Debugf("[analyzer] %s: %d member changes", f.Path, len(changes))
	return report.ForModifiedFile(f.Path, changes), nil
}

// LineStrategy reports every head member whose line span overlaps a changed
// line. It never parses the base revision: base bytes, when present, are
// only diffed line by line against head.
type LineStrategy struct {
	extractor
	ops git.Operations
}

// NewLineStrategy creates the line-overlap strategy. Changed lines come from
// ops unless base content is at hand, in which case both buffers are diffed
// in memory.
func NewLineStrategy(parser *syntax.Parser, catalogs *cache.Catalogs, ops git.Operations) *LineStrategy {
	return &LineStrategy{extractor: extractor{parser: parser, catalogs: catalogs}, ops: ops}
}

func (s *LineStrategy) Name() string    { return "lines" }
func (s *LineStrategy) NeedsBase() bool { return false }

func (s *LineStrategy) Analyze(ctx context.Context, f ModifiedFile) (*report.FileReport, error) {
	var ranges []git.LineRange
	if f.Base != nil {
		ranges = git.BufferLines(f.Base, f.Head)
	} else {
		var err error
		ranges, err = s.ops.ChangedLines(ctx, f.BaseRev, f.HeadRev, f.Path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &FileError{Path: f.Path, Revision: f.BaseRev, Op: OpLines, Err: err}
		}
	}
	if len(ranges) == 0 {
		return nil, nil
	}

	head, err := s.catalog(ctx, f.Path, f.HeadRev, f.Head)
	if err != nil {
		return nil, err
	}
	return report.ForTouchedMembers(f.Path, touchedMembers(head, ranges)), nil
}

// touchedMembers selects members overlapping any range, in source order.
// Duplicate names keep their last occurrence, matching the diff engine.
func touchedMembers(catalog declaration.Catalog, ranges []git.LineRange) []diff.MemberChange {
	declarations := catalog.Index()

	var touched []diff.MemberChange
	seen := make(map[string]bool)
	for _, decl := range catalog {
		if seen[decl.Name] {
			continue
		}
		seen[decl.Name] = true

		last := declarations[decl.Name]
		members := last.MemberIndex()
		emitted := make(map[string]bool)
		for _, m := range last.Members {
			if emitted[m.Name] {
				continue
			}
			emitted[m.Name] = true

			winner := members[m.Name]
			if overlapsAny(ranges, winner.StartLine, winner.EndLine) {
				touched = append(touched, diff.MemberChange{
					Contract:     last.Name,
					ContractKind: last.Kind,
					Member:       winner.Name,
					Status:       diff.StatusModified,
				})
			}
		}
	}
	return touched
}

func overlapsAny(ranges []git.LineRange, start, end int) bool {
	for _, r := range ranges {
		if r.Overlaps(start, end) {
			return true
		}
	}
	return false
}
