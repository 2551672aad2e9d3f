package declaration

import (
	"bytes"
	"context"
	"fmt"

	"github.com/samartsevigor/change-analyzer/internal/syntax"
)

const (
	identifierKind   = "identifier"
	contractBodyKind = "contract_body"
	constructorKind  = "constructor"
)

// memberKinds lists body children treated as members. Newer grammar
// releases emit constructor_definition instead of a function_definition
// carrying a constructor keyword; both are accepted.
var memberKinds = []string{
	"function_definition",
	"modifier_definition",
	"constructor_definition",
}

// Extract walks the direct children of root and returns every contract,
// library and interface with its members, in source order.
//
// A nil root yields an empty catalog. Declarations and members without a
// resolvable name are skipped. Span or decoding problems are returned as
// errors wrapping syntax.ErrSpanOutOfRange or syntax.ErrInvalidUTF8.
func Extract(root syntax.Node, source []byte) (Catalog, error) {
	catalog := Catalog{}
	if root == nil {
		return catalog, nil
	}

	for i := 0; i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		kind, ok := declarationKinds[child.Kind()]
		if !ok {
			continue
		}

		decl, ok, err := extractDeclaration(child, kind, source)
		if err != nil {
			return nil, err
		}
		if ok {
			catalog = append(catalog, decl)
		}
	}

	return catalog, nil
}

// ExtractSource parses source with parser and extracts its catalog.
// hasErrors reports whether the grammar had to recover from syntax errors.
func ExtractSource(ctx context.Context, parser *syntax.Parser, source []byte) (catalog Catalog, hasErrors bool, err error) {
	tree, err := parser.Parse(ctx, source)
	if err != nil {
		return nil, false, err
	}
	defer tree.Close()

	catalog, err = Extract(tree.Root(), source)
	if err != nil {
		return nil, false, err
	}
	return catalog, tree.HasErrors(), nil
}

func extractDeclaration(node syntax.Node, kind Kind, source []byte) (Declaration, bool, error) {
	name, ok, err := nodeName(node, source)
	if err != nil || !ok {
		return Declaration{}, false, err
	}

	decl := Declaration{
		Name:    name,
		Kind:    kind,
		Members: []Member{},
	}

	body := syntax.FirstChildOfKind(node, contractBodyKind)
	for _, memberNode := range syntax.ChildrenOfKind(body, memberKinds...) {
		member, ok, err := extractMember(memberNode, source)
		if err != nil {
			return Declaration{}, false, fmt.Errorf("%s %s: %w", kind, name, err)
		}
		if ok {
			decl.Members = append(decl.Members, member)
		}
	}

	return decl, true, nil
}

func extractMember(node syntax.Node, source []byte) (Member, bool, error) {
	name, ok, err := nodeName(node, source)
	if err != nil {
		return Member{}, false, err
	}
	if !ok {
		if node.Kind() == "modifier_definition" || syntax.FirstChildOfKind(node, constructorKind) == nil {
			return Member{}, false, nil
		}
		name = ConstructorName
	}

	text, err := syntax.Text(node, source)
	if err != nil {
		return Member{}, false, err
	}

	return Member{
		Name:      name,
		Text:      text,
		StartLine: lineAt(source, node.StartByte()),
		EndLine:   lineAt(source, node.EndByte()),
	}, true, nil
}

// nodeName returns the text of the first direct identifier child.
func nodeName(node syntax.Node, source []byte) (string, bool, error) {
	ident := syntax.FirstChildOfKind(node, identifierKind)
	if ident == nil {
		return "", false, nil
	}
	name, err := syntax.Text(ident, source)
	if err != nil {
		return "", false, err
	}
	if name == "" {
		return "", false, nil
	}
	return name, true, nil
}

// lineAt returns the 1-based line containing byte offset.
func lineAt(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte{'\n'}) + 1
}
