// Package ranking orders and narrows multi-file reports.
package ranking

import (
	"cmp"
	"slices"
	"strings"

	"github.com/phobologic/archmap/internal/discover"
	"github.com/phobologic/archmap/internal/model"
)

// Weight is the hotspot weight of a graph: the sum of all known
// function and method complexity scores. Unscored functions add nothing.
func Weight(g *model.Graph) int {
	if g == nil {
		return 0
	}
	total := 0
	for i := range g.Nodes {
		if s := g.Nodes[i].Score; s != nil {
			total += *s
		}
	}
	return total
}

// Rank sorts files in place, most complex first. Test modules follow
// production modules, files that failed to analyze come last, and ties
// keep path order.
func Rank(files []model.FileGraph) {
	slices.SortStableFunc(files, func(a, b model.FileGraph) int {
		if c := cmp.Compare(tier(a), tier(b)); c != 0 {
			return c
		}
		if c := cmp.Compare(Weight(b.Graph), Weight(a.Graph)); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})
}

func tier(f model.FileGraph) int {
	switch {
	case f.Graph == nil:
		return 2
	case discover.IsTestFile(f.Path):
		return 1
	default:
		return 0
	}
}

// SelectFiles returns a new Report with only the first maxFiles files.
// If maxFiles is <= 0 or >= len(files), the report is returned unchanged.
func SelectFiles(r *model.Report, maxFiles int) *model.Report {
	if maxFiles <= 0 || maxFiles >= len(r.Files) {
		return r
	}
	return &model.Report{
		Root:    r.Root,
		Files:   r.Files[:maxFiles],
		Summary: r.Summary,
	}
}

// FilterBySymbol returns a new Report in which every graph keeps only the
// nodes whose id contains substr (case-insensitive), their direct callers
// and callees, and the edges touching a matched node. Files left without
// nodes are dropped.
func FilterBySymbol(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)

	var files []model.FileGraph
	for _, f := range r.Files {
		if f.Graph == nil {
			continue
		}
		g := f.Graph

		matched := make(map[string]struct{})
		for i := range g.Nodes {
			if strings.Contains(strings.ToLower(g.Nodes[i].ID), lower) {
				matched[g.Nodes[i].ID] = struct{}{}
			}
		}
		if len(matched) == 0 {
			continue
		}

		// Expand to direct neighbours so the call context stays visible.
		keep := make(map[string]struct{}, len(matched))
		out := model.NewGraph()
		for i := range g.Edges {
			e := &g.Edges[i]
			_, srcOK := matched[e.Source]
			_, tgtOK := matched[e.Target]
			if srcOK || tgtOK {
				out.Edges = append(out.Edges, *e)
				keep[e.Source] = struct{}{}
				keep[e.Target] = struct{}{}
			}
		}
		for id := range matched {
			keep[id] = struct{}{}
		}
		for i := range g.Nodes {
			if _, ok := keep[g.Nodes[i].ID]; ok {
				out.Nodes = append(out.Nodes, g.Nodes[i])
			}
		}

		files = append(files, model.FileGraph{Path: f.Path, Graph: out})
	}

	return &model.Report{Root: r.Root, Files: files, Summary: r.Summary}
}

// FilterByFile returns a new Report containing only files whose path
// contains substr (case-insensitive).
func FilterByFile(r *model.Report, substr string) *model.Report {
	lower := strings.ToLower(substr)

	var files []model.FileGraph
	for _, f := range r.Files {
		if strings.Contains(strings.ToLower(f.Path), lower) {
			files = append(files, f)
		}
	}
	return &model.Report{Root: r.Root, Files: files, Summary: r.Summary}
}
