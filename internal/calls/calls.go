// Package calls reduces the call expressions inside a declaration to
// best-effort dotted target names.
package calls

import (
	"iter"
	"slices"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/archmap/internal/lang"
)

// Targets returns the call targets found anywhere under node, in document
// order, one per call site. Callees that are not a bare name or an
// attribute chain rooted at a bare name are skipped. query must be the
// language's call query (see lang.Language.GetCallQuery).
func Targets(node *sitter.Node, source []byte, query *sitter.Query) iter.Seq[string] {
	return func(yield func(string) bool) {
		if node == nil || query == nil {
			return
		}

		qc := sitter.NewQueryCursor()
		defer qc.Close()
		qc.Exec(query, node)

		for {
			match, ok := qc.NextMatch()
			if !ok {
				return
			}
			match = qc.FilterPredicates(match, source)

			for _, c := range match.Captures {
				if query.CaptureNameForId(c.Index) != "callee" {
					continue
				}
				name, ok := Resolve(c.Node, source)
				if !ok {
					continue
				}
				if !yield(name) {
					return
				}
			}
		}
	}
}

// Resolve reduces a callee expression to a dotted name. An identifier
// resolves to itself; a.b.c resolves to "a.b.c" with the base name first.
// Any other shape reports false.
func Resolve(callee *sitter.Node, source []byte) (string, bool) {
	switch callee.Type() {
	case "identifier":
		return lang.NodeText(callee, source), true
	case "attribute":
	default:
		return "", false
	}

	var parts []string
	cur := callee
	for cur.Type() == "attribute" {
		obj := cur.ChildByFieldName("object")
		attr := cur.ChildByFieldName("attribute")
		if obj == nil || attr == nil {
			return "", false
		}
		parts = append(parts, lang.NodeText(attr, source))
		cur = obj
	}
	if cur.Type() != "identifier" {
		return "", false
	}
	parts = append(parts, lang.NodeText(cur, source))

	// collected innermost attribute first
	slices.Reverse(parts)
	return strings.Join(parts, "."), true
}
