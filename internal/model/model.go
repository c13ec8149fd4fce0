// Package model defines the architecture graph produced by an analysis run.
package model

// Kind is the closed set of declaration kinds a node can carry.
type Kind string

const (
	Class    Kind = "class"
	Function Kind = "function"
	Method   Kind = "method"
)

// EdgeKind indicates the relation an edge expresses.
type EdgeKind string

const (
	Contains EdgeKind = "contains"
	Calls    EdgeKind = "calls"
)

// Health is the complexity category attached to function and method nodes.
type Health string

const (
	Healthy  Health = "healthy"
	Warning  Health = "warning"
	Critical Health = "critical"
	Unknown  Health = "unknown"
)

// Node is a single declaration in the graph.
type Node struct {
	ID        string `json:"id" yaml:"id"`
	Label     string `json:"label" yaml:"label"`
	Kind      Kind   `json:"kind" yaml:"kind"`
	Score     *int   `json:"complexity,omitempty" yaml:"complexity,omitempty"`
	Health    Health `json:"health,omitempty" yaml:"health,omitempty"`
	Color     string `json:"color" yaml:"color"`
	Tooltip   string `json:"tooltip" yaml:"tooltip"`
	Line      int    `json:"line" yaml:"line"`
	Signature string `json:"signature,omitempty" yaml:"signature,omitempty"`
}

// Edge links two node ids. For Calls edges Target may name a symbol
// that has no node in the graph.
type Edge struct {
	Source string   `json:"source" yaml:"source"`
	Target string   `json:"target" yaml:"target"`
	Kind   EdgeKind `json:"kind" yaml:"kind"`
}

// Graph is the result of analyzing one module. Nodes and Edges keep
// insertion order and are never nil.
type Graph struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Stats summarizes a graph the way the dashboard reports it.
type Stats struct {
	Classes   int `json:"classes" yaml:"classes"`
	Functions int `json:"functions" yaml:"functions"`
	Links     int `json:"links" yaml:"links"`
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{Nodes: []Node{}, Edges: []Edge{}}
}

// Stats counts classes, functions (including methods) and edges.
func (g *Graph) Stats() Stats {
	var s Stats
	for i := range g.Nodes {
		switch g.Nodes[i].Kind {
		case Class:
			s.Classes++
		case Function, Method:
			s.Functions++
		}
	}
	s.Links = len(g.Edges)
	return s
}

// Lookup returns the node with the given id.
func (g *Graph) Lookup(id string) (Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return g.Nodes[i], true
		}
	}
	return Node{}, false
}

// FileGraph is the analysis result for one file of a multi-file run.
// Err is set instead of Graph when the file could not be analyzed.
type FileGraph struct {
	Path  string `json:"path" yaml:"path"`
	Graph *Graph `json:"graph,omitempty" yaml:"graph,omitempty"`
	Err   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the complete output of a CLI run, ready for serialization.
type Report struct {
	Root    string      `json:"root" yaml:"root"`
	Files   []FileGraph `json:"files" yaml:"files"`
	Summary string      `json:"summary,omitempty" yaml:"summary,omitempty"`
}
