package analysis

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/phobologic/archmap/internal/health"
	"github.com/phobologic/archmap/internal/model"
)

func TestAnalyzeEmpty(t *testing.T) {
	t.Parallel()

	for _, source := range []string{"", "\n", "import os\nprint(os.name)\n"} {
		g, err := Analyze(source)
		if err != nil {
			t.Fatalf("%q: %v", source, err)
		}
		if len(g.Nodes) != 0 || len(g.Edges) != 0 {
			t.Errorf("%q: expected empty graph, got %+v", source, g)
		}
	}
}

func TestAnalyzeClassCallsSibling(t *testing.T) {
	t.Parallel()

	g, err := Analyze(`class A:
    def m1(self):
        return m2()

    def m2(self):
        return 1
`)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	ids := map[string]bool{}
	for _, n := range g.Nodes {
		ids[n.ID] = true
	}
	if len(ids) != 3 || !ids["A"] || !ids["A.m1"] || !ids["A.m2"] {
		t.Errorf("nodes = %v, want {A, A.m1, A.m2}", ids)
	}

	for _, want := range []model.Edge{
		{Source: "A", Target: "A.m1", Kind: model.Contains},
		{Source: "A", Target: "A.m2", Kind: model.Contains},
		{Source: "A.m1", Target: "m2", Kind: model.Calls},
	} {
		found := false
		for _, e := range g.Edges {
			if e == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing edge %+v", want)
		}
	}
}

func TestAnalyzeAttributeChain(t *testing.T) {
	t.Parallel()

	g, err := Analyze("class S:\n    def go(self):\n        self.helper.run()\n")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := model.Edge{Source: "S.go", Target: "self.helper.run", Kind: model.Calls}
	if len(g.Edges) != 2 || g.Edges[1] != want {
		t.Errorf("edges = %+v, want Contains then %+v", g.Edges, want)
	}
}

func TestAnalyzeDanglingCall(t *testing.T) {
	t.Parallel()

	g, err := Analyze("def show(x):\n    print(x)\n")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(g.Edges) != 1 || g.Edges[0].Target != "print" {
		t.Fatalf("edges = %+v, want show -> print", g.Edges)
	}
	if _, ok := g.Lookup("print"); ok {
		t.Error("print must not become a node")
	}
}

func TestAnalyzeParseError(t *testing.T) {
	t.Parallel()

	g, err := Analyze("def f(:\n    return (1\n")
	if err == nil {
		t.Fatal("expected error")
	}
	if g != nil {
		t.Error("graph returned alongside error")
	}
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error %T is not *ParseError", err)
	}
	if perr.Line < 1 {
		t.Errorf("line = %d, want >= 1", perr.Line)
	}
	var aerr *AnalysisError
	if errors.As(err, &aerr) {
		t.Error("parse errors must not be reported as AnalysisError")
	}
}

func TestAnalyzeHealthColors(t *testing.T) {
	t.Parallel()

	g, err := Analyze(`def calm(x):
    return x

def busy(x):
    if x == 1:
        return 1
    if x == 2:
        return 2
    if x == 3:
        return 3
    if x == 4:
        return 4
    if x == 5:
        return 5
    return 0
`)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	calm, _ := g.Lookup("calm")
	if calm.Health != model.Healthy || calm.Color != health.ColorHealthy {
		t.Errorf("calm = %+v", calm)
	}
	busy, _ := g.Lookup("busy")
	if busy.Score == nil || *busy.Score != 6 || busy.Health != model.Warning {
		t.Errorf("busy = %+v", busy)
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	t.Parallel()

	source := "class A:\n    def a(self):\n        self.b()\n\ndef c():\n    A().a()\n"
	a, err := NewAnalyzer(nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	first, err := a.Analyze([]byte(source))
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Analyze([]byte(source))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestAnalyzeConcurrent(t *testing.T) {
	t.Parallel()

	sources := []string{
		"def a():\n    b()\n",
		"class K:\n    def m(self):\n        pass\n",
		"def broken(:\n",
	}

	var wg sync.WaitGroup
	errs := make([]error, len(sources))
	graphs := make([]*model.Graph, len(sources))
	for i, src := range sources {
		wg.Add(1)
		go func() {
			defer wg.Done()
			graphs[i], errs[i] = Analyze(src)
		}()
	}
	wg.Wait()

	if errs[0] != nil || len(graphs[0].Edges) != 1 {
		t.Errorf("source 0: %v %+v", errs[0], graphs[0])
	}
	if errs[1] != nil || len(graphs[1].Nodes) != 2 {
		t.Errorf("source 1: %v %+v", errs[1], graphs[1])
	}
	var perr *ParseError
	if !errors.As(errs[2], &perr) {
		t.Errorf("source 2: error = %v, want ParseError", errs[2])
	}
}

func TestAnalysisErrorUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := &AnalysisError{Msg: "walking syntax tree", cause: cause}
	if !errors.Is(err, cause) {
		t.Error("AnalysisError should unwrap to its cause")
	}
	if err.Error() != "analysis failed: walking syntax tree: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
}
