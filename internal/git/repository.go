package git

import (
	"context"
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
	logger "github.com/sirupsen/logrus"
)

// repository implements Operations in-process with go-git. It reads
// commits only; the working tree is not supported.
type repository struct {
	repo *gogit.Repository
}

// OpenRepository opens the repository containing projectPath.
func OpenRepository(projectPath string) (Operations, error) {
	repo, err := gogit.PlainOpenWithOptions(projectPath, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", projectPath, err)
	}
	return &repository{repo: repo}, nil
}

func (r *repository) ChangedFiles(ctx context.Context, base, head string) ([]ChangedFile, error) {
	baseCommit, headCommit, err := r.commits(base, head)
	if err != nil {
		return nil, err
	}

	baseTree, err := baseCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", base, err)
	}
	headTree, err := headCommit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", head, err)
	}

	changes, err := object.DiffTreeWithOptions(ctx, baseTree, headTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to diff %s..%s: %w", base, head, err)
	}

	var files []ChangedFile
	for _, change := range changes {
		action, err := change.Action()
		if err != nil {
			return nil, fmt.Errorf("failed to classify change: %w", err)
		}
		switch action {
		case merkletrie.Insert:
			files = append(files, ChangedFile{Status: StatusAdded, Path: change.To.Name})
		case merkletrie.Modify:
			// Renamed entries are reported by git as R, not M.
			if change.From.Name != change.To.Name {
				continue
			}
			files = append(files, ChangedFile{Status: StatusModified, Path: change.To.Name})
		}
	}
	logger.Debugf("[git] go-git listed %d changed files between %s and %s", len(files), base, head)
	return files, nil
}

func (r *repository) Content(ctx context.Context, revision, path string) ([]byte, error) {
	if revision == WorkingTree {
		return nil, ErrWorkingTreeUnsupported
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	commit, err := r.commit(revision)
	if err != nil {
		return nil, fmt.Errorf("%w: %s:%s", ErrNotFound, revision, path)
	}
	file, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s:%s", ErrNotFound, revision, path)
		}
		return nil, fmt.Errorf("failed to read %s at %s: %w", path, revision, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s at %s: %w", path, revision, err)
	}
	return []byte(contents), nil
}

func (r *repository) ChangedLines(ctx context.Context, base, head, path string) ([]LineRange, error) {
	baseCommit, headCommit, err := r.commits(base, head)
	if err != nil {
		return nil, err
	}

	patch, err := baseCommit.PatchContext(ctx, headCommit)
	if err != nil {
		return nil, fmt.Errorf("failed to compute patch %s..%s: %w", base, head, err)
	}

	for _, fp := range patch.FilePatches() {
		_, to := fp.Files()
		if to == nil || to.Path() != path {
			continue
		}

		tracker := &lineTracker{next: 1}
		for _, chunk := range fp.Chunks() {
			switch chunk.Type() {
			case fdiff.Equal:
				tracker.equal(chunk.Content())
			case fdiff.Add:
				tracker.insert(chunk.Content())
			case fdiff.Delete:
				tracker.delete()
			}
		}
		return tracker.done(), nil
	}
	return nil, nil
}

func (r *repository) commits(base, head string) (*object.Commit, *object.Commit, error) {
	if head == WorkingTree {
		return nil, nil, ErrWorkingTreeUnsupported
	}
	baseCommit, err := r.commit(base)
	if err != nil {
		return nil, nil, err
	}
	headCommit, err := r.commit(head)
	if err != nil {
		return nil, nil, err
	}
	return baseCommit, headCommit, nil
}

func (r *repository) commit(revision string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", revision, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load commit %s: %w", revision, err)
	}
	return commit, nil
}
