// Package rustdeps infers the external crates a Rust source file imports.
package rustdeps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/alexaandru/go-sitter-forest/rust"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/Sumatoshi-tech/runfile/pkg/importmodel"
)

// Lang is the language name recorded on extraction results.
const Lang = "rust"

// Tree-sitter node kinds of the Rust grammar used by the extractor.
const (
	kindUseDeclaration = "use_declaration"
	kindScopedIdent    = "scoped_identifier"
	kindScopedUseList  = "scoped_use_list"
	kindUseList        = "use_list"
	kindUseAsClause    = "use_as_clause"
	kindUseWildcard    = "use_wildcard"
	kindMetavariable   = "metavariable"

	fieldArgument = "argument"
	fieldPath     = "path"
	fieldName     = "name"
	fieldList     = "list"

	wildcard = "*"
)

// ErrParse is the sentinel wrapped by every *ParseError.
var ErrParse = errors.New("failed to parse rust source")

var errNoRootNode = errors.New("no root node")

// ParseError reports source text that is not syntactically well-formed.
type ParseError struct {
	Err    error
	Line   uint
	Column uint
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrParse, e.Err)
	}

	return fmt.Sprintf("%s: syntax error at line %d, column %d", ErrParse, e.Line, e.Column)
}

// Unwrap exposes ErrParse and the underlying cause.
func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrParse, e.Err}
	}

	return []error{ErrParse}
}

var language = sync.OnceValue(func() *sitter.Language {
	return sitter.NewLanguage(rust.GetLanguage())
})

// Extract parses src and returns the external crates named by its top-level
// use declarations. Malformed source fails with a *ParseError and no partial result.
func Extract(ctx context.Context, src []byte) (importmodel.Set, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(language())

	tree, err := parser.ParseString(ctx, nil, src)
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, &ParseError{Err: errNoRootNode}
	}

	if root.HasError() {
		point := firstErrorNode(root).StartPoint()

		return nil, &ParseError{Line: point.Row + 1, Column: point.Column + 1}
	}

	deps := importmodel.NewSet()

	for idx := range root.NamedChildCount() {
		decl := root.NamedChild(idx)
		if decl.Type() != kindUseDeclaration {
			continue
		}

		argument := decl.ChildByFieldName(fieldArgument)
		if argument.IsNull() {
			continue
		}

		if importTree := convert(argument, src); importTree != nil {
			deps = Reduce(importTree, deps)
		}
	}

	return deps, nil
}

// ExtractFile reads path and extracts its dependencies. Failures are recorded
// on the returned File rather than returned.
func ExtractFile(ctx context.Context, path string) importmodel.File {
	file := importmodel.File{Path: path, Lang: Lang}

	src, err := os.ReadFile(path)
	if err != nil {
		file.Error = fmt.Errorf("read %s: %w", path, err)

		return file
	}

	file.Dependencies, file.Error = Extract(ctx, src)

	return file
}

// convert maps a use-clause node onto an ImportTree. It returns nil for
// clauses that name nothing, such as macro metavariables.
func convert(clause sitter.Node, src []byte) ImportTree {
	if clause.IsNull() {
		return nil
	}

	switch clause.Type() {
	case kindUseList:
		group := &GroupNode{}

		for idx := range clause.NamedChildCount() {
			if item := convert(clause.NamedChild(idx), src); item != nil {
				group.Items = append(group.Items, item)
			}
		}

		return group
	case kindScopedUseList:
		list := convert(clause.ChildByFieldName(fieldList), src)

		prefix := clause.ChildByFieldName(fieldPath)
		if prefix.IsNull() {
			return list
		}

		return chain(segments(prefix, src), list)
	case kindUseAsClause:
		return chain(segments(clause.ChildByFieldName(fieldPath), src), nil)
	case kindUseWildcard:
		if clause.NamedChildCount() == 0 {
			return nil
		}

		return chain(segments(clause.NamedChild(0), src), &PathNode{Ident: wildcard})
	case kindMetavariable:
		return nil
	default:
		return chain(segments(clause, src), nil)
	}
}

// segments flattens a path node into its identifiers, outermost first.
func segments(path sitter.Node, src []byte) []string {
	if path.IsNull() {
		return nil
	}

	// Identifiers, crate, self, super and generic segments are single tokens.
	if path.Type() != kindScopedIdent {
		return []string{text(path, src)}
	}

	segs := segments(path.ChildByFieldName(fieldPath), src)

	name := path.ChildByFieldName(fieldName)
	if !name.IsNull() {
		segs = append(segs, text(name, src))
	}

	return segs
}

func text(n sitter.Node, src []byte) string {
	start, end := n.StartByte(), n.EndByte()
	if int(end) > len(src) || start > end {
		return ""
	}

	return string(src[start:end])
}

// firstErrorNode returns the earliest ERROR or MISSING node under n.
func firstErrorNode(n sitter.Node) sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}

	for idx := range n.ChildCount() {
		child := n.Child(idx)
		if child.HasError() || child.IsMissing() {
			return firstErrorNode(child)
		}
	}

	return n
}
