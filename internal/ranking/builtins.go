package ranking

import "github.com/phobologic/archmap/internal/model"

// pythonBuiltins lists the callable names in Python's builtins module.
var pythonBuiltins = map[string]struct{}{
	"abs": {}, "aiter": {}, "all": {}, "anext": {}, "any": {}, "ascii": {},
	"bin": {}, "bool": {}, "breakpoint": {}, "bytearray": {}, "bytes": {},
	"callable": {}, "chr": {}, "classmethod": {}, "compile": {}, "complex": {},
	"delattr": {}, "dict": {}, "dir": {}, "divmod": {}, "enumerate": {},
	"eval": {}, "exec": {}, "filter": {}, "float": {}, "format": {},
	"frozenset": {}, "getattr": {}, "globals": {}, "hasattr": {}, "hash": {},
	"help": {}, "hex": {}, "id": {}, "input": {}, "int": {}, "isinstance": {},
	"issubclass": {}, "iter": {}, "len": {}, "list": {}, "locals": {},
	"map": {}, "max": {}, "memoryview": {}, "min": {}, "next": {},
	"object": {}, "oct": {}, "open": {}, "ord": {}, "pow": {}, "print": {},
	"property": {}, "range": {}, "repr": {}, "reversed": {}, "round": {},
	"set": {}, "setattr": {}, "slice": {}, "sorted": {}, "staticmethod": {},
	"str": {}, "sum": {}, "super": {}, "tuple": {}, "type": {}, "vars": {},
	"zip": {}, "__import__": {},
}

// IsBuiltin reports whether a call target names a Python builtin.
func IsBuiltin(target string) bool {
	_, ok := pythonBuiltins[target]
	return ok
}

// HideBuiltins returns a new Report without Calls edges to builtins that
// have no node of their own. A module that defines its own print keeps
// its edges to it.
func HideBuiltins(r *model.Report) *model.Report {
	files := make([]model.FileGraph, 0, len(r.Files))
	for _, f := range r.Files {
		if f.Graph == nil {
			files = append(files, f)
			continue
		}
		out := &model.Graph{Nodes: f.Graph.Nodes, Edges: make([]model.Edge, 0, len(f.Graph.Edges))}
		for _, e := range f.Graph.Edges {
			if e.Kind == model.Calls && IsBuiltin(e.Target) {
				if _, defined := f.Graph.Lookup(e.Target); !defined {
					continue
				}
			}
			out.Edges = append(out.Edges, e)
		}
		files = append(files, model.FileGraph{Path: f.Path, Graph: out})
	}
	return &model.Report{Root: r.Root, Files: files, Summary: r.Summary}
}
