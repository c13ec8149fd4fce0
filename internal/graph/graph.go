// Package graph assembles declarations, complexity scores and call targets
// into the architecture graph.
package graph

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/archmap/internal/calls"
	"github.com/phobologic/archmap/internal/complexity"
	"github.com/phobologic/archmap/internal/health"
	"github.com/phobologic/archmap/internal/model"
	"github.com/phobologic/archmap/internal/parse"
)

// Builder accumulates nodes and edges in insertion order.
type Builder struct {
	graph  *model.Graph
	record complexity.Record
}

// NewBuilder creates a builder that scores nodes from record.
func NewBuilder(record complexity.Record) *Builder {
	return &Builder{graph: model.NewGraph(), record: record}
}

// AddNode appends the node for d.
func (b *Builder) AddNode(d parse.Declaration) {
	b.graph.Nodes = append(b.graph.Nodes, b.node(d))
}

// AddEdge appends an edge.
func (b *Builder) AddEdge(source, target string, kind model.EdgeKind) {
	b.graph.Edges = append(b.graph.Edges, model.Edge{Source: source, Target: target, Kind: kind})
}

// Graph returns the accumulated graph.
func (b *Builder) Graph() *model.Graph {
	return b.graph
}

func (b *Builder) node(d parse.Declaration) model.Node {
	n := model.Node{
		ID:        d.ID,
		Label:     d.Label,
		Kind:      d.Kind,
		Line:      d.Line,
		Signature: d.Signature,
	}

	switch d.Kind {
	case model.Class:
		n.Color = health.ColorClass
		n.Tooltip = classTooltip(d.Signature, len(d.Members))
	case model.Function, model.Method:
		if score, ok := b.record.Lookup(d.ID); ok {
			n.Score = &score
		}
		n.Health, n.Color = health.Classify(n.Score)
		if n.Score != nil {
			n.Tooltip = fmt.Sprintf("%s\nComplexity: %d (%s)", d.Signature, *n.Score, n.Health)
		} else {
			n.Tooltip = d.Signature + "\nComplexity: unavailable"
		}
	}
	return n
}

func classTooltip(signature string, methods int) string {
	return fmt.Sprintf("%s\nMethods: %d", signature, methods)
}

// Build assembles the graph for a walked module. query is the call query
// used to resolve call targets inside each function and method.
func Build(mod *parse.Module, record complexity.Record, query *sitter.Query) *model.Graph {
	reg := NewRegistry(mod.Decls)
	b := NewBuilder(record)

	addCalls := func(d parse.Declaration) {
		for target := range calls.Targets(d.Syntax, mod.Source, query) {
			b.AddEdge(d.ID, target, model.Calls)
		}
	}

	methods := make(map[string]int)

	for _, d := range mod.Decls {
		switch d.Kind {
		case model.Class:
			if reg.Claim(d.ID, model.Class) {
				b.AddNode(d)
			} else if k, _ := reg.KindOf(d.ID); k != model.Class {
				// name already taken by a free function
				continue
			}
			for _, m := range d.Members {
				if !reg.Claim(m.ID, model.Method) {
					continue
				}
				b.AddNode(m)
				b.AddEdge(d.ID, m.ID, model.Contains)
				methods[d.ID]++
				addCalls(m)
			}

		case model.Function:
			if !reg.IsFree(d.Name) || !reg.Claim(d.ID, model.Function) {
				continue
			}
			b.AddNode(d)
			addCalls(d)
		}
	}

	// Redeclared classes and skipped duplicates change the member count.
	g := b.Graph()
	for i := range g.Nodes {
		if n := &g.Nodes[i]; n.Kind == model.Class {
			n.Tooltip = classTooltip(n.Signature, methods[n.ID])
		}
	}
	return g
}
