package graph

import (
	"github.com/phobologic/archmap/internal/model"
	"github.com/phobologic/archmap/internal/parse"
)

// Registry tracks which ids have been emitted and which bare names are
// claimed by methods. It is filled in two passes: method names are
// collected up front, ids are claimed during assembly.
type Registry struct {
	methodNames map[string]struct{}
	kinds       map[string]model.Kind
}

// NewRegistry collects the short names of every method in decls.
func NewRegistry(decls []parse.Declaration) *Registry {
	r := &Registry{
		methodNames: make(map[string]struct{}),
		kinds:       make(map[string]model.Kind),
	}
	for i := range decls {
		for j := range decls[i].Members {
			r.methodNames[decls[i].Members[j].Name] = struct{}{}
		}
	}
	return r
}

// IsFree reports whether a top-level function named name should be listed
// as a free function, i.e. no class in the module declares a method with
// the same name.
func (r *Registry) IsFree(name string) bool {
	_, isMethod := r.methodNames[name]
	return !isMethod
}

// Claim registers id for kind. It returns false if id was already claimed;
// the first claim wins.
func (r *Registry) Claim(id string, kind model.Kind) bool {
	if _, ok := r.kinds[id]; ok {
		return false
	}
	r.kinds[id] = kind
	return true
}

// KindOf returns the kind id was claimed with.
func (r *Registry) KindOf(id string) (model.Kind, bool) {
	k, ok := r.kinds[id]
	return k, ok
}
