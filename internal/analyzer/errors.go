package analyzer

import (
	"errors"
	"fmt"
)

var (
	// ErrChangeListing indicates the changed-file listing itself failed
	ErrChangeListing = errors.New("cannot list changed files")

	// ErrNoContent indicates files were listed but no head content could be
	// retrieved for any of them
	ErrNoContent = errors.New("no content retrieved for any changed file")
)

// Operations recorded in FileError.Op.
const (
	OpFetch   = "fetch"
	OpExtract = "extract"
	OpLines   = "lines"
)

// FileError identifies the file and revision a per-file failure belongs to.
type FileError struct {
	Path     string
	Revision string
	Op       string
	Err      error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s at %s: %v", e.Op, e.Path, revisionLabel(e.Revision), e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

func revisionLabel(revision string) string {
	if revision == "" {
		return "working tree"
	}
	return revision
}
