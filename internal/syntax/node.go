package syntax

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrSpanOutOfRange indicates a node whose byte span does not fit its source buffer
	ErrSpanOutOfRange = errors.New("node span out of range")

	// ErrInvalidUTF8 indicates a node whose text is not valid UTF-8
	ErrInvalidUTF8 = errors.New("node text is not valid UTF-8")
)

// Node is the minimal view of a syntax tree node the extractor relies on.
// Only kind, ordered children and byte span are exposed so the grammar can be
// swapped without touching callers.
type Node interface {
	Kind() string
	ChildCount() int
	Child(i int) Node
	StartByte() int
	EndByte() int
}

// FirstChildOfKind returns the first direct child with the given kind, or nil.
func FirstChildOfKind(node Node, kind string) Node {
	if node == nil {
		return nil
	}
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// ChildrenOfKind returns all direct children whose kind is one of kinds.
func ChildrenOfKind(node Node, kinds ...string) []Node {
	var results []Node
	if node == nil {
		return results
	}
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		for _, kind := range kinds {
			if child.Kind() == kind {
				results = append(results, child)
				break
			}
		}
	}
	return results
}

// Text returns the source text covered by node.
func Text(node Node, source []byte) (string, error) {
	start, end := node.StartByte(), node.EndByte()
	if start < 0 || end < start || end > len(source) {
		return "", fmt.Errorf("%w: [%d,%d) in %d bytes (%s)", ErrSpanOutOfRange, start, end, len(source), node.Kind())
	}
	raw := source[start:end]
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s at byte %d", ErrInvalidUTF8, node.Kind(), start)
	}
	return string(raw), nil
}

// Literal is an in-memory Node. It backs hand-built trees and lets callers
// feed output from other parsers through the same extractor.
type Literal struct {
	Type     string
	Start    int
	End      int
	Children []*Literal
}

func (l *Literal) Kind() string    { return l.Type }
func (l *Literal) ChildCount() int { return len(l.Children) }
func (l *Literal) StartByte() int  { return l.Start }
func (l *Literal) EndByte() int    { return l.End }

func (l *Literal) Child(i int) Node {
	if i < 0 || i >= len(l.Children) || l.Children[i] == nil {
		return nil
	}
	return l.Children[i]
}
