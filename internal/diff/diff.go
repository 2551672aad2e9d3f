package diff

import (
	"github.com/samartsevigor/change-analyzer/internal/declaration"
	"github.com/samartsevigor/change-analyzer/internal/normalize"
)

// Status classifies a member difference between two revisions.
type Status string

const (
	StatusModified Status = "modified"
	StatusAdded    Status = "added"
	StatusDeleted  Status = "deleted"
)

// MemberChange is one classified member difference. Unchanged members are
// never represented.
type MemberChange struct {
	Contract     string
	ContractKind declaration.Kind
	Member       string
	Status       Status
}

// Compare classifies every member of base and head by name.
//
// Declarations and members are matched by name only; duplicates collapse to
// the last definition, listed at the position of the first. Changes are
// grouped by contract in head source order, followed by contracts that only
// exist in base.
func Compare(base, head declaration.Catalog) []MemberChange {
	baseIndex := base.Index()
	headIndex := head.Index()

	changes := []MemberChange{}

	for _, name := range declarationNames(head) {
		headDecl := headIndex[name]
		baseDecl, ok := baseIndex[name]
		if !ok {
			changes = append(changes, allMembers(headDecl, StatusAdded)...)
			continue
		}
		changes = append(changes, compareMembers(baseDecl, headDecl)...)
	}

	for _, name := range declarationNames(base) {
		if _, ok := headIndex[name]; ok {
			continue
		}
		changes = append(changes, allMembers(baseIndex[name], StatusDeleted)...)
	}

	return changes
}

// compareMembers diffs two revisions of the same declaration.
func compareMembers(base, head declaration.Declaration) []MemberChange {
	baseMembers := base.MemberIndex()
	headMembers := head.MemberIndex()

	var changes []MemberChange

	for _, name := range memberNames(head) {
		headMember := headMembers[name]
		baseMember, ok := baseMembers[name]
		switch {
		case !ok:
			changes = append(changes, change(head, name, StatusAdded))
		case !normalize.Equal(baseMember.Text, headMember.Text):
			changes = append(changes, change(head, name, StatusModified))
		}
	}

	for _, name := range memberNames(base) {
		if _, ok := headMembers[name]; !ok {
			changes = append(changes, change(base, name, StatusDeleted))
		}
	}

	return changes
}

func allMembers(decl declaration.Declaration, status Status) []MemberChange {
	names := memberNames(decl)
	changes := make([]MemberChange, 0, len(names))
	for _, name := range names {
		changes = append(changes, change(decl, name, status))
	}
	return changes
}

func change(decl declaration.Declaration, member string, status Status) MemberChange {
	return MemberChange{
		Contract:     decl.Name,
		ContractKind: decl.Kind,
		Member:       member,
		Status:       status,
	}
}

// memberNames lists member names once each, in source order.
func memberNames(d declaration.Declaration) []string {
	seen := make(map[string]bool, len(d.Members))
	names := make([]string, 0, len(d.Members))
	for _, m := range d.Members {
		if !seen[m.Name] {
			seen[m.Name] = true
			names = append(names, m.Name)
		}
	}
	return names
}

// declarationNames lists declaration names once each, in source order.
func declarationNames(c declaration.Catalog) []string {
	seen := make(map[string]bool, len(c))
	names := make([]string, 0, len(c))
	for _, d := range c {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	return names
}

// Filter returns the changes with the given status, preserving order.
func Filter(changes []MemberChange, status Status) []MemberChange {
	var out []MemberChange
	for _, c := range changes {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}
