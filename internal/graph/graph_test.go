package graph

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/phobologic/archmap/internal/complexity"
	"github.com/phobologic/archmap/internal/health"
	"github.com/phobologic/archmap/internal/lang"
	"github.com/phobologic/archmap/internal/model"
	"github.com/phobologic/archmap/internal/parse"
)

func build(t *testing.T, source string) *model.Graph {
	t.Helper()
	py := lang.Python()
	q, err := py.GetCallQuery()
	if err != nil {
		t.Fatalf("GetCallQuery: %v", err)
	}
	mod, err := parse.Walk(py.NewParser(), []byte(source))
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	defer mod.Close()
	rec := complexity.NewScorer(nil).Score([]byte(source))
	return Build(mod, rec, q)
}

func nodeIDs(g *model.Graph) string {
	var ids []string
	for _, n := range g.Nodes {
		ids = append(ids, n.ID)
	}
	return strings.Join(ids, ",")
}

func hasEdge(g *model.Graph, src, tgt string, kind model.EdgeKind) bool {
	for _, e := range g.Edges {
		if e.Source == src && e.Target == tgt && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	g := build(t, "import os\n\nVALUE = os.getenv('X')\n")
	if g.Nodes == nil || g.Edges == nil {
		t.Fatal("nodes and edges must be non-nil")
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("expected empty graph, got %d nodes %d edges", len(g.Nodes), len(g.Edges))
	}
}

func TestBuildClassWithCalls(t *testing.T) {
	t.Parallel()

	source := `class A:
    def m1(self):
        m2()
        self.m2()

    def m2(self):
        pass
`
	g := build(t, source)

	if got := nodeIDs(g); got != "A,A.m1,A.m2" {
		t.Fatalf("nodes = %s, want A,A.m1,A.m2", got)
	}
	want := []model.Edge{
		{Source: "A", Target: "A.m1", Kind: model.Contains},
		{Source: "A.m1", Target: "m2", Kind: model.Calls},
		{Source: "A.m1", Target: "self.m2", Kind: model.Calls},
		{Source: "A", Target: "A.m2", Kind: model.Contains},
	}
	if !reflect.DeepEqual(g.Edges, want) {
		t.Errorf("edges = %+v\nwant %+v", g.Edges, want)
	}
}

func TestBuildDanglingEdges(t *testing.T) {
	t.Parallel()

	source := `def show(x):
    print(x)
    self.helper.run()
`
	g := build(t, source)

	if !hasEdge(g, "show", "print", model.Calls) {
		t.Error("missing dangling edge show -> print")
	}
	if !hasEdge(g, "show", "self.helper.run", model.Calls) {
		t.Error("missing edge show -> self.helper.run")
	}
	if _, ok := g.Lookup("print"); ok {
		t.Error("print should not be a node")
	}
}

func TestBuildFreeFunctionSuppression(t *testing.T) {
	t.Parallel()

	source := `class Worker:
    def run(self):
        pass

    def process_all(self):
        pass

def run():
    pass

def process():
    pass
`
	g := build(t, source)

	if got := nodeIDs(g); got != "Worker,Worker.run,Worker.process_all,process" {
		t.Errorf("nodes = %s", got)
	}
}

func TestBuildDuplicatesFirstWins(t *testing.T) {
	t.Parallel()

	source := `class A:
    def m(self):
        first()

    def m(self):
        second()

class A:
    def n(self):
        pass

def helper():
    one()

def helper():
    two()
`
	g := build(t, source)

	if got := nodeIDs(g); got != "A,A.m,A.n,helper" {
		t.Fatalf("nodes = %s, want A,A.m,A.n,helper", got)
	}
	if hasEdge(g, "A.m", "second", model.Calls) {
		t.Error("duplicate method contributed edges")
	}
	if hasEdge(g, "helper", "two", model.Calls) {
		t.Error("duplicate function contributed edges")
	}
	if !hasEdge(g, "A", "A.n", model.Contains) {
		t.Error("member of redeclared class missing")
	}
	contains := 0
	for _, e := range g.Edges {
		if e.Kind == model.Contains && e.Target == "A.m" {
			contains++
		}
	}
	if contains != 1 {
		t.Errorf("Contains(A, A.m) count = %d, want 1", contains)
	}

	a, _ := g.Lookup("A")
	if a.Tooltip != "A\nMethods: 2" {
		t.Errorf("class tooltip = %q, want members attached across both bodies", a.Tooltip)
	}
}

func TestBuildClassNameTakenByFunction(t *testing.T) {
	t.Parallel()

	source := `def Thing():
    pass

class Thing:
    def go(self):
        pass
`
	g := build(t, source)

	if got := nodeIDs(g); got != "Thing" {
		t.Errorf("nodes = %s, want Thing", got)
	}
	for _, e := range g.Edges {
		if e.Kind == model.Contains {
			t.Errorf("unexpected contains edge %+v", e)
		}
	}
}

// branches returns a function whose cyclomatic complexity is n+1.
func branches(name string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "def %s(x):\n", name)
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "    if x == %d:\n        return %d\n", i, i)
	}
	b.WriteString("    return -1\n")
	return b.String()
}

func TestBuildHealthBoundaries(t *testing.T) {
	t.Parallel()

	source := branches("five", 4) + branches("six", 5) + branches("ten", 9) + branches("eleven", 10)
	g := build(t, source)

	tests := []struct {
		id    string
		score int
		want  model.Health
	}{
		{"five", 5, model.Healthy},
		{"six", 6, model.Warning},
		{"ten", 10, model.Warning},
		{"eleven", 11, model.Critical},
	}
	for _, tt := range tests {
		n, ok := g.Lookup(tt.id)
		if !ok {
			t.Errorf("%s: missing node", tt.id)
			continue
		}
		if n.Score == nil || *n.Score != tt.score {
			t.Errorf("%s: score = %v, want %d", tt.id, n.Score, tt.score)
		}
		if n.Health != tt.want {
			t.Errorf("%s: health = %q, want %q", tt.id, n.Health, tt.want)
		}
		if n.Color != health.Color(tt.want) {
			t.Errorf("%s: color = %q", tt.id, n.Color)
		}
	}
}

func TestBuildMissingScore(t *testing.T) {
	t.Parallel()

	py := lang.Python()
	q, _ := py.GetCallQuery()
	source := []byte("def f():\n    pass\n")
	mod, err := parse.Walk(py.NewParser(), source)
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	defer mod.Close()

	g := Build(mod, complexity.Record{}, q)

	n, ok := g.Lookup("f")
	if !ok {
		t.Fatal("missing node f")
	}
	if n.Score != nil {
		t.Errorf("score = %d, want nil", *n.Score)
	}
	if n.Health != model.Unknown || n.Color != health.ColorUnknown {
		t.Errorf("health = %q color = %q, want unknown/neutral", n.Health, n.Color)
	}
	if !strings.Contains(n.Tooltip, "Complexity: unavailable") {
		t.Errorf("tooltip = %q", n.Tooltip)
	}
}

func TestBuildClassNode(t *testing.T) {
	t.Parallel()

	g := build(t, "class Shape(Base):\n    def area(self):\n        return 0\n")

	n, ok := g.Lookup("Shape")
	if !ok {
		t.Fatal("missing class node")
	}
	if n.Kind != model.Class || n.Label != "Class: Shape" {
		t.Errorf("node = %+v", n)
	}
	if n.Color != health.ColorClass || n.Score != nil || n.Health != "" {
		t.Errorf("class node should carry only the class color: %+v", n)
	}
	if n.Tooltip != "Shape(Base)\nMethods: 1" {
		t.Errorf("tooltip = %q", n.Tooltip)
	}

	m, _ := g.Lookup("Shape.area")
	if m.Label != "fn: area" || m.Kind != model.Method {
		t.Errorf("method node = %+v", m)
	}
	if m.Tooltip != "area(self)\nComplexity: 1 (healthy)" {
		t.Errorf("method tooltip = %q", m.Tooltip)
	}
}

func TestBuildIdempotent(t *testing.T) {
	t.Parallel()

	source := `class A:
    def m(self):
        self.n()
        print("x")

def free(a):
    return a.b.c()
`
	first := build(t, source)
	second := build(t, source)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("graphs differ:\n%+v\n%+v", first, second)
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	decls := []parse.Declaration{
		{ID: "A", Name: "A", Kind: model.Class, Members: []parse.Declaration{
			{ID: "A.save", Name: "save", Kind: model.Method, Owner: "A"},
		}},
		{ID: "load", Name: "load", Kind: model.Function},
	}
	reg := NewRegistry(decls)

	if reg.IsFree("save") {
		t.Error("save is a method name")
	}
	if !reg.IsFree("load") || !reg.IsFree("sav") {
		t.Error("names without a matching method should be free")
	}
	if !reg.Claim("A", model.Class) {
		t.Error("first claim should succeed")
	}
	if reg.Claim("A", model.Function) {
		t.Error("second claim should fail")
	}
	if k, _ := reg.KindOf("A"); k != model.Class {
		t.Errorf("KindOf(A) = %q, want class", k)
	}
}

func TestStats(t *testing.T) {
	t.Parallel()

	g := build(t, "class A:\n    def m(self):\n        f()\n\ndef f():\n    pass\n")
	s := g.Stats()
	if s.Classes != 1 || s.Functions != 2 || s.Links != 2 {
		t.Errorf("stats = %+v, want {1 2 2}", s)
	}
}
