package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"
)

var (
	// ErrNotFound indicates a path that does not exist at the requested revision
	ErrNotFound = errors.New("not found at revision")

	// ErrWorkingTreeUnsupported indicates a backend that can only compare commits
	ErrWorkingTreeUnsupported = errors.New("working tree comparison not supported by this backend")
)

// WorkingTree is the revision name for the checked-out files on disk.
const WorkingTree = ""

// File statuses kept from the changed-file listing.
const (
	StatusAdded    = "A"
	StatusModified = "M"
)

// ChangedFile is one entry of the changed-file listing.
type ChangedFile struct {
	Status string
	Path   string
}

// Operations defines the version-control queries the analyzer needs.
// This allows swapping the git CLI for an in-process implementation and
// mocking git in tests.
type Operations interface {
	// ChangedFiles lists files added or modified between base and head.
	// Deletions, renames and copies are left out. An empty head compares
	// against the working tree.
	ChangedFiles(ctx context.Context, base, head string) ([]ChangedFile, error)

	// Content returns the bytes of path at revision. Paths missing at that
	// revision return an error wrapping ErrNotFound.
	Content(ctx context.Context, revision, path string) ([]byte, error)

	// ChangedLines returns the head-side line ranges touched between base
	// and head for path.
	ChangedLines(ctx context.Context, base, head, path string) ([]LineRange, error)
}

// gitOps is the real implementation using exec.Command.
type gitOps struct {
	root string
}

// NewOperations returns the git CLI implementation rooted at projectPath.
func NewOperations(projectPath string) Operations {
	return &gitOps{root: projectPath}
}

func (g *gitOps) ChangedFiles(ctx context.Context, base, head string) ([]ChangedFile, error) {
	args := []string{"diff", "--name-status", base}
	if head != WorkingTree {
		args = append(args, head)
	}

	output, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	logger.Debugf("[git] diff --name-status %s %s:\n%s", base, head, output)

	return parseNameStatus(string(output)), nil
}

func (g *gitOps) Content(ctx context.Context, revision, path string) ([]byte, error) {
	if revision == WorkingTree {
		content, err := os.ReadFile(filepath.Join(g.root, filepath.FromSlash(path)))
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: working tree:%s", ErrNotFound, path)
		}
		return content, err
	}

	content, err := g.run(ctx, "show", revision+":"+path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Debugf("[git] %s not found at %s: %v", path, revision, err)
		return nil, fmt.Errorf("%w: %s:%s", ErrNotFound, revision, path)
	}
	return content, nil
}

func (g *gitOps) ChangedLines(ctx context.Context, base, head, path string) ([]LineRange, error) {
	args := []string{"diff", "--unified=0", "--no-color", base}
	if head != WorkingTree {
		args = append(args, head)
	}
	args = append(args, "--", path)

	output, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return ParseHunks(string(output))
}

// run executes git in the project root and returns stdout.
func (g *gitOps) run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.root

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return output, nil
}

// parseNameStatus parses `git diff --name-status` output, keeping only added
// and modified entries.
func parseNameStatus(output string) []ChangedFile {
	var files []ChangedFile
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		status, path, ok := strings.Cut(line, "\t")
		if !ok {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				continue
			}
			status, path = fields[0], strings.Join(fields[1:], " ")
		}

		status = strings.TrimSpace(status)
		if status != StatusAdded && status != StatusModified {
			continue
		}
		files = append(files, ChangedFile{Status: status, Path: strings.TrimSpace(path)})
	}
	return files
}
