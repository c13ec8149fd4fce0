// Package export writes reports in the structured output formats.
package export

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/archmap/internal/model"
	"github.com/phobologic/archmap/internal/toon"
)

// Output formats.
const (
	FormatTOON = "toon"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// report mirrors model.Report with per-file stats attached.
type report struct {
	Root    string      `json:"root" yaml:"root"`
	Stats   model.Stats `json:"stats" yaml:"stats"`
	Files   []file      `json:"files" yaml:"files"`
	Summary string      `json:"summary,omitempty" yaml:"summary,omitempty"`
}

type file struct {
	Path  string       `json:"path" yaml:"path"`
	Stats model.Stats  `json:"stats" yaml:"stats"`
	Graph *model.Graph `json:"graph,omitempty" yaml:"graph,omitempty"`
	Err   string       `json:"error,omitempty" yaml:"error,omitempty"`
}

func view(r *model.Report) report {
	out := report{Root: r.Root, Files: make([]file, 0, len(r.Files)), Summary: r.Summary}
	for _, f := range r.Files {
		var st model.Stats
		if f.Graph != nil {
			st = f.Graph.Stats()
		}
		out.Stats.Classes += st.Classes
		out.Stats.Functions += st.Functions
		out.Stats.Links += st.Links
		out.Files = append(out.Files, file{Path: f.Path, Stats: st, Graph: f.Graph, Err: f.Err})
	}
	return out
}

// Write encodes r to w in the given format.
func Write(w io.Writer, r *model.Report, format string) error {
	switch format {
	case FormatTOON, "":
		_, err := fmt.Fprintln(w, toon.Encode(r))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view(r))
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view(r)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
