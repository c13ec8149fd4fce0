// Package toon implements TOON (Token-Oriented Object Notation) encoding.
package toon

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/phobologic/archmap/internal/model"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts a Report into TOON format.
func Encode(r *model.Report) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(r.Root)))

	var fileRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		var st model.Stats
		if f.Graph != nil {
			st = f.Graph.Stats()
		}
		fileRows = append(fileRows, []string{
			f.Path,
			strconv.Itoa(st.Classes),
			strconv.Itoa(st.Functions),
			strconv.Itoa(st.Links),
			f.Err,
		})
	}
	parts = append(parts, formatTabular("files", []string{"path", "classes", "functions", "links", "error"}, fileRows))

	var nodeRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		if f.Graph == nil {
			continue
		}
		for j := range f.Graph.Nodes {
			n := &f.Graph.Nodes[j]
			complexity := ""
			if n.Score != nil {
				complexity = strconv.Itoa(*n.Score)
			}
			nodeRows = append(nodeRows, []string{
				f.Path,
				n.ID,
				string(n.Kind),
				strconv.Itoa(n.Line),
				complexity,
				string(n.Health),
				n.Signature,
			})
		}
	}
	parts = append(parts, formatTabular("nodes", []string{"file", "id", "kind", "line", "complexity", "health", "signature"}, nodeRows))

	var edgeRows [][]string
	for i := range r.Files {
		f := &r.Files[i]
		if f.Graph == nil {
			continue
		}
		for j := range f.Graph.Edges {
			e := &f.Graph.Edges[j]
			edgeRows = append(edgeRows, []string{f.Path, e.Source, e.Target, string(e.Kind)})
		}
	}
	parts = append(parts, formatTabular("edges", []string{"file", "source", "target", "kind"}, edgeRows))

	if r.Summary != "" {
		parts = append(parts, fmt.Sprintf("summary: %s", encodeValue(r.Summary)))
	}

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
