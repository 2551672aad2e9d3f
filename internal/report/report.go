package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/samartsevigor/change-analyzer/internal/declaration"
	"github.com/samartsevigor/change-analyzer/internal/diff"
)

// FileStatus is the file-level change status as reported by version control.
type FileStatus string

const (
	StatusAdded    FileStatus = "A"
	StatusModified FileStatus = "M"
)

// ContractSummary names a declaration and the members worth reviewing.
type ContractSummary struct {
	Name    string           `json:"name"`
	Kind    declaration.Kind `json:"type"`
	Methods []string         `json:"methods"`
}

// FileReport is the per-file entry of the final report.
type FileReport struct {
	File      string            `json:"file"`
	Status    FileStatus        `json:"status"`
	Contracts []ContractSummary `json:"contracts"`
}

// ForAddedFile reports every declaration and every member of a new file.
// The result is never nil: a new file is always part of the report.
func ForAddedFile(path string, head declaration.Catalog) *FileReport {
	r := &FileReport{
		File:      path,
		Status:    StatusAdded,
		Contracts: []ContractSummary{},
	}
	for _, decl := range head {
		r.Contracts = append(r.Contracts, ContractSummary{
			Name:    decl.Name,
			Kind:    decl.Kind,
			Methods: decl.MemberNames(),
		})
	}
	return r
}

// ForModifiedFile keeps only modified members, grouped by contract in the
// order they appear in changes. Contracts whose changes are purely added or
// deleted members are left out. It returns nil when nothing remains.
func ForModifiedFile(path string, changes []diff.MemberChange) *FileReport {
	return fromMembers(path, StatusModified, diff.Filter(changes, diff.StatusModified))
}

// ForTouchedMembers builds a modified-file report from members selected by
// some other means than a content diff.
func ForTouchedMembers(path string, touched []diff.MemberChange) *FileReport {
	return fromMembers(path, StatusModified, touched)
}

func fromMembers(path string, status FileStatus, changes []diff.MemberChange) *FileReport {
	var order []string
	byContract := make(map[string]*ContractSummary)

	for _, c := range changes {
		summary, ok := byContract[c.Contract]
		if !ok {
			summary = &ContractSummary{Name: c.Contract, Kind: c.ContractKind, Methods: []string{}}
			byContract[c.Contract] = summary
			order = append(order, c.Contract)
		}
		summary.Methods = append(summary.Methods, c.Member)
	}

	if len(order) == 0 {
		return nil
	}

	r := &FileReport{File: path, Status: status, Contracts: make([]ContractSummary, 0, len(order))}
	for _, name := range order {
		r.Contracts = append(r.Contracts, *byContract[name])
	}
	return r
}

// Encode writes reports as indented JSON. A nil slice is written as [].
func Encode(w io.Writer, reports []FileReport) error {
	if reports == nil {
		reports = []FileReport{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Write encodes reports to path, creating parent directories as needed.
func Write(path string, reports []FileReport) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := Encode(f, reports); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
