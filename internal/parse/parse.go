// Package parse walks a Python syntax tree and extracts top-level
// declarations: classes with their direct methods, and free functions.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/archmap/internal/lang"
	"github.com/phobologic/archmap/internal/model"
)

// ParseError reports source text that could not be parsed. Line and
// Column are 1-based.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Declaration is a class, free function or method found in the source.
type Declaration struct {
	ID        string
	Name      string
	Kind      model.Kind
	Label     string
	Owner     string // owning class id, methods only
	Line      int
	Signature string
	Members   []Declaration // methods, classes only

	// Syntax is the outermost node of the declaration, including any
	// decorators.
	Syntax *sitter.Node
}

// Module is the walked form of one source text. Declarations reference
// nodes of the underlying tree, so Close must not be called until they
// are no longer needed.
type Module struct {
	Source []byte
	Decls  []Declaration
	tree   *sitter.Tree
}

// Close releases the syntax tree.
func (m *Module) Close() {
	if m.tree != nil {
		m.tree.Close()
		m.tree = nil
	}
}

// Walk parses source with parser and returns its top-level declarations in
// document order. The parser must be created for Python.
// Returns a *ParseError when the tree contains syntax errors.
func Walk(parser *sitter.Parser, source []byte) (*Module, error) {
	mod := &Module{Source: source}
	if len(source) == 0 {
		return mod, nil
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing source: %w", err)
	}

	root := tree.RootNode()
	if root.HasError() {
		perr := locateError(root)
		tree.Close()
		return nil, perr
	}
	// tree-sitter accepts a definition whose body is not indented and
	// leaves the block empty.
	if perr := locateEmptyBody(root); perr != nil {
		tree.Close()
		return nil, perr
	}
	mod.tree = tree

	for i := 0; i < int(root.NamedChildCount()); i++ {
		outer := root.NamedChild(i)
		def := lang.UnwrapDefinition(outer)
		switch def.Type() {
		case "class_definition":
			if d, ok := classDecl(outer, def, source); ok {
				mod.Decls = append(mod.Decls, d)
			}
		case "function_definition":
			if d, ok := funcDecl(outer, def, source, ""); ok {
				mod.Decls = append(mod.Decls, d)
			}
		}
	}

	return mod, nil
}

func classDecl(outer, def *sitter.Node, source []byte) (Declaration, bool) {
	name := lang.DefinitionName(def, source)
	if name == "" {
		return Declaration{}, false
	}

	d := Declaration{
		ID:        name,
		Name:      name,
		Kind:      model.Class,
		Label:     "Class: " + name,
		Line:      int(def.StartPoint().Row) + 1,
		Signature: lang.ExtractSignature(def, model.Class, source),
		Syntax:    outer,
	}

	body := lang.ClassBody(def)
	if body == nil {
		return d, true
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		fn := lang.UnwrapDefinition(member)
		if fn.Type() != "function_definition" {
			continue
		}
		if m, ok := funcDecl(member, fn, source, name); ok {
			d.Members = append(d.Members, m)
		}
	}
	return d, true
}

func funcDecl(outer, def *sitter.Node, source []byte, owner string) (Declaration, bool) {
	name := lang.DefinitionName(def, source)
	if name == "" {
		return Declaration{}, false
	}

	d := Declaration{
		ID:        name,
		Name:      name,
		Kind:      model.Function,
		Label:     "fn: " + name,
		Line:      int(def.StartPoint().Row) + 1,
		Signature: lang.ExtractSignature(def, model.Function, source),
		Syntax:    outer,
	}
	if owner != "" {
		d.ID = owner + "." + name
		d.Kind = model.Method
		d.Owner = owner
	}
	return d, true
}

// locateEmptyBody finds the first class or function definition, at any
// depth, whose body block has no statements.
func locateEmptyBody(n *sitter.Node) *ParseError {
	switch n.Type() {
	case "class_definition", "function_definition":
		body := n.ChildByFieldName("body")
		if body == nil {
			pos := n.EndPoint()
			return &ParseError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Msg: "expected an indented block"}
		}
		if body.NamedChildCount() == 0 {
			pos := body.StartPoint()
			return &ParseError{Line: int(pos.Row) + 1, Column: int(pos.Column) + 1, Msg: "expected an indented block"}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if perr := locateEmptyBody(n.NamedChild(i)); perr != nil {
			return perr
		}
	}
	return nil
}

// locateError finds the first ERROR or MISSING node in document order.
func locateError(root *sitter.Node) *ParseError {
	var found *sitter.Node
	var visit func(n *sitter.Node) bool
	visit = func(n *sitter.Node) bool {
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return true
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			child := n.Child(i)
			if child == nil || !(child.HasError() || child.IsMissing()) {
				continue
			}
			if visit(child) {
				return true
			}
		}
		return false
	}
	visit(root)

	if found == nil {
		return &ParseError{Line: 1, Column: 1, Msg: "invalid syntax"}
	}

	pos := found.StartPoint()
	msg := "invalid syntax"
	if found.IsMissing() {
		msg = fmt.Sprintf("missing %q", found.Type())
	}
	return &ParseError{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
		Msg:    msg,
	}
}
