package syntax

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexaandru/go-sitter-forest/solidity"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ErrUnparseable is returned when the grammar produces no tree at all.
var ErrUnparseable = errors.New("content could not be parsed")

// solidityLanguage is created once and never mutated, so it is shared by
// every parser in the process.
var solidityLanguage = sync.OnceValue(func() *sitter.Language {
	return sitter.NewLanguage(solidity.GetLanguage())
})

// Parser turns Solidity source bytes into a syntax tree.
// A Parser is safe for concurrent use; each Parse call gets its own
// tree-sitter parser instance.
type Parser struct {
	language *sitter.Language
}

// NewParser creates a Solidity parser.
func NewParser() *Parser {
	return &Parser{language: solidityLanguage()}
}

// Parse parses source. The returned tree must be closed by the caller and
// nodes obtained from it are invalid after Close.
func (p *Parser) Parse(ctx context.Context, source []byte) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set solidity language: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, ErrUnparseable
	}
	return &Tree{tree: tree}, nil
}

// Tree wraps a tree-sitter tree.
type Tree struct {
	tree *sitter.Tree
}

// Root returns the root node, or nil when the tree has none.
func (t *Tree) Root() Node {
	root := t.tree.RootNode()
	if root == nil {
		return nil
	}
	return treeSitterNode{node: root}
}

// HasErrors reports whether the grammar had to recover from syntax errors.
func (t *Tree) HasErrors() bool {
	root := t.tree.RootNode()
	return root != nil && root.HasError()
}

// Close releases the underlying tree.
func (t *Tree) Close() {
	t.tree.Close()
}

// treeSitterNode adapts *sitter.Node to Node.
type treeSitterNode struct {
	node *sitter.Node
}

func (n treeSitterNode) Kind() string    { return n.node.Kind() }
func (n treeSitterNode) ChildCount() int { return int(n.node.ChildCount()) }
func (n treeSitterNode) StartByte() int  { return int(n.node.StartByte()) }
func (n treeSitterNode) EndByte() int    { return int(n.node.EndByte()) }

func (n treeSitterNode) Child(i int) Node {
	child := n.node.Child(uint(i))
	if child == nil {
		return nil
	}
	return treeSitterNode{node: child}
}
