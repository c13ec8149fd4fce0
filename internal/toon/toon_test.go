package toon

import (
	"strings"
	"testing"

	"github.com/phobologic/archmap/internal/model"
)

func TestEncodeValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", `""`},
		{"simple", "hello", "hello"},
		{"leading space", " hello", `" hello"`},
		{"trailing space", "hello ", `"hello "`},
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"true keyword", "true", `"true"`},
		{"True keyword", "True", `"True"`},
		{"false keyword", "false", `"false"`},
		{"null keyword", "null", `"null"`},
		{"integer", "42", "42"},
		{"negative integer", "-1", "-1"},
		{"float", "3.14", "3.14"},
		{"zero", "0", "0"},
		{"leading zero invalid", "01", "01"},
		{"comma", "a,b", `"a,b"`},
		{"colon", "a:b", `"a:b"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"bracket", "a[b", `"a[b"`},
		{"brace", "a{b", `"a{b"`},
		{"dash prefix", "-foo", `"-foo"`},
		{"path", "src/main.py", "src/main.py"},
		{"dotted name", "Foo.__init__", "Foo.__init__"},
		{"signature no special", "run(self) -> None", "run(self) -> None"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := encodeValue(tt.in)
			if got != tt.want {
				t.Errorf("encodeValue(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func intPtr(n int) *int { return &n }

func TestEncode(t *testing.T) {
	t.Parallel()

	r := &model.Report{
		Root: "shop",
		Files: []model.FileGraph{
			{
				Path: "src/cart.py",
				Graph: &model.Graph{
					Nodes: []model.Node{
						{ID: "Cart", Label: "Class: Cart", Kind: model.Class, Line: 1, Signature: "class Cart"},
						{ID: "Cart.total", Label: "fn: total", Kind: model.Method, Score: intPtr(3), Health: model.Healthy, Line: 2, Signature: "def total(self)"},
						{ID: "main", Label: "fn: main", Kind: model.Function, Health: model.Unknown, Line: 9, Signature: "def main()"},
					},
					Edges: []model.Edge{
						{Source: "Cart", Target: "Cart.total", Kind: model.Contains},
						{Source: "Cart.total", Target: "sum", Kind: model.Calls},
					},
				},
			},
			{Path: "src/bad.py", Err: "line 3, column 1: invalid syntax"},
		},
		Summary: "A small layered module.",
	}

	got := Encode(r)
	lines := strings.Split(got, "\n")

	want := []string{
		"root: shop",
		"files[2]{path,classes,functions,links,error}:",
		`  src/cart.py,1,2,2,""`,
		`  src/bad.py,0,0,0,"line 3, column 1: invalid syntax"`,
		"nodes[3]{file,id,kind,line,complexity,health,signature}:",
		`  src/cart.py,Cart,class,1,"","",class Cart`,
		"  src/cart.py,Cart.total,method,2,3,healthy,def total(self)",
		`  src/cart.py,main,function,9,"",unknown,def main()`,
		"edges[2]{file,source,target,kind}:",
		"  src/cart.py,Cart,Cart.total,contains",
		"  src/cart.py,Cart.total,sum,calls",
		"summary: A small layered module.",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), got)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestEncodeEmpty(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Report{Root: "empty"})
	if !strings.Contains(got, "files[0]{path,classes,functions,links,error}:") {
		t.Errorf("expected empty files section, got:\n%s", got)
	}
	if !strings.Contains(got, "nodes[0]{file,id,kind,line,complexity,health,signature}:") {
		t.Errorf("expected empty nodes section, got:\n%s", got)
	}
	if strings.Contains(got, "summary:") {
		t.Errorf("summary should be omitted when empty, got:\n%s", got)
	}
}

func TestEncodeQuotesSummary(t *testing.T) {
	t.Parallel()

	got := Encode(&model.Report{Root: "x", Summary: "Layers:\nservice, repo"})
	if !strings.HasSuffix(got, `summary: "Layers:\nservice, repo"`) {
		t.Errorf("summary not quoted:\n%s", got)
	}
}
