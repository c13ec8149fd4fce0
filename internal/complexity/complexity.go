// Package complexity scores Python functions and methods by cyclomatic
// complexity using tree-sitter.
package complexity

import (
	"context"
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/archmap/internal/lang"
	"github.com/phobologic/archmap/internal/logging"
)

// Record maps qualified names ("Class.method" or "function") to scores.
// A missing key means the score is unavailable.
type Record map[string]int

// Lookup returns the score for id, if one was computed.
func (r Record) Lookup(id string) (int, bool) {
	score, ok := r[id]
	return score, ok
}

// decisionTypes are the node types that add a path through a function.
var decisionTypes = map[string]struct{}{
	"if_statement":             {},
	"elif_clause":              {},
	"for_statement":            {},
	"while_statement":          {},
	"except_clause":            {},
	"with_statement":           {},
	"boolean_operator":         {}, // and, or
	"conditional_expression":   {}, // ternary
	"list_comprehension":       {},
	"dictionary_comprehension": {},
	"set_comprehension":        {},
	"generator_expression":     {},
}

// Scorer computes a Record for a module. It owns a parser, so a Scorer
// must not be shared between goroutines.
type Scorer struct {
	parser *sitter.Parser
	logger *slog.Logger
}

// NewScorer creates a scorer. A nil logger discards output.
func NewScorer(logger *slog.Logger) *Scorer {
	return &Scorer{
		parser: lang.Python().NewParser(),
		logger: logging.OrDiscard(logger),
	}
}

// Score parses source on its own and scores every top-level function and
// every method declared directly in a top-level class. It never fails:
// when the source cannot be scored the returned Record is empty.
func (s *Scorer) Score(source []byte) (rec Record) {
	rec = Record{}
	if len(source) == 0 {
		return rec
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("complexity scoring aborted", "panic", fmt.Sprint(r))
			rec = Record{}
		}
	}()

	tree, err := s.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		s.logger.Debug("complexity scoring skipped", "err", err)
		return rec
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		s.logger.Debug("complexity scoring skipped", "reason", "syntax errors")
		return rec
	}

	for i := 0; i < int(root.NamedChildCount()); i++ {
		def := lang.UnwrapDefinition(root.NamedChild(i))
		switch def.Type() {
		case "function_definition":
			rec.add(lang.DefinitionName(def, source), def, source)
		case "class_definition":
			className := lang.DefinitionName(def, source)
			body := lang.ClassBody(def)
			if className == "" || body == nil {
				continue
			}
			for j := 0; j < int(body.NamedChildCount()); j++ {
				fn := lang.UnwrapDefinition(body.NamedChild(j))
				if fn.Type() != "function_definition" {
					continue
				}
				if name := lang.DefinitionName(fn, source); name != "" {
					rec.add(className+"."+name, fn, source)
				}
			}
		}
	}

	s.logger.Debug("complexity scored", "functions", len(rec))
	return rec
}

// add records the first definition of a name; redefinitions keep the
// first score, matching the graph's first-wins node rule.
func (r Record) add(name string, fn *sitter.Node, source []byte) {
	if name == "" {
		return
	}
	if _, ok := r[name]; ok {
		return
	}
	r[name] = Cyclomatic(fn, source)
}

// Cyclomatic returns 1 plus the number of decision points under node,
// including those of nested functions and lambdas.
func Cyclomatic(node *sitter.Node, source []byte) int {
	complexity := 1
	for _, dn := range findNodes(node, decisionTypes) {
		if dn.Type() == "boolean_operator" && !isBooleanOperator(dn) {
			continue
		}
		complexity++
	}
	return complexity
}

// isBooleanOperator checks that a boolean_operator node joins with and/or.
func isBooleanOperator(node *sitter.Node) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Type() == "and" || child.Type() == "or" {
			return true
		}
	}
	return false
}

// findNodes finds all nodes of the given types under root, root included.
func findNodes(root *sitter.Node, types map[string]struct{}) []*sitter.Node {
	var result []*sitter.Node

	var walk func(*sitter.Node)
	walk = func(node *sitter.Node) {
		if node == nil {
			return
		}
		if _, ok := types[node.Type()]; ok {
			result = append(result, node)
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}

	walk(root)
	return result
}
