package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/archmap/internal/model"
)

func init() {
	Languages["python"] = &Language{
		Name:       "python",
		Extensions: []string{".py", ".pyw"},
		lang:       python.GetLanguage(),
	}
}

// Python returns the registered Python language.
func Python() *Language {
	return Languages["python"]
}

// UnwrapDefinition returns the class_definition or function_definition
// wrapped by a decorated_definition. Any other node is returned unchanged.
func UnwrapDefinition(node *sitter.Node) *sitter.Node {
	if node == nil || node.Type() != "decorated_definition" {
		return node
	}
	if def := node.ChildByFieldName("definition"); def != nil {
		return def
	}
	for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
		child := node.NamedChild(i)
		switch child.Type() {
		case "class_definition", "function_definition":
			return child
		}
	}
	return node
}

// DefinitionName returns the declared name of a class_definition or
// function_definition, or "" if the node has none.
func DefinitionName(node *sitter.Node, source []byte) string {
	if name := node.ChildByFieldName("name"); name != nil {
		return NodeText(name, source)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == "identifier" {
			return NodeText(child, source)
		}
	}
	return ""
}

// ClassBody returns the block holding a class_definition's members.
func ClassBody(classNode *sitter.Node) *sitter.Node {
	if body := classNode.ChildByFieldName("body"); body != nil {
		return body
	}
	for i := 0; i < int(classNode.ChildCount()); i++ {
		child := classNode.Child(i)
		if child.Type() == "block" {
			return child
		}
	}
	return nil
}

// ExtractSignature returns a one-line signature for a definition node:
// "Name(Base)" for classes, "name(params) -> ret" for functions.
func ExtractSignature(defNode *sitter.Node, kind model.Kind, source []byte) string {
	if kind == model.Class {
		return extractClassSignature(defNode, source)
	}
	return extractFunctionSignature(defNode, source)
}

func extractClassSignature(node *sitter.Node, source []byte) string {
	var name, args string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = NodeText(child, source)
			}
		case "argument_list":
			args = CollapseWhitespace(NodeText(child, source))
		}
	}
	if args != "" {
		return name + args
	}
	return name
}

func extractFunctionSignature(node *sitter.Node, source []byte) string {
	var name, params, returnType string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = NodeText(child, source)
			}
		case "parameters":
			params = CollapseWhitespace(NodeText(child, source))
		case "type":
			returnType = NodeText(child, source)
		}
	}
	sig := name + params
	if returnType != "" {
		sig += " -> " + returnType
	}
	return sig
}
