// Package analysis turns Python source text into an architecture graph.
//
// An analysis is synchronous and keeps no state between runs. An Analyzer
// owns tree-sitter parsers and must be used by one goroutine at a time;
// concurrent callers each create their own.
package analysis

import (
	"errors"
	"fmt"
	"log/slog"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/archmap/internal/complexity"
	"github.com/phobologic/archmap/internal/graph"
	"github.com/phobologic/archmap/internal/lang"
	"github.com/phobologic/archmap/internal/logging"
	"github.com/phobologic/archmap/internal/model"
	"github.com/phobologic/archmap/internal/parse"
)

// ParseError reports source text that is not valid Python.
type ParseError = parse.ParseError

// AnalysisError reports any failure other than invalid source.
type AnalysisError struct {
	Msg   string
	cause error
}

func (e *AnalysisError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("analysis failed: %s: %v", e.Msg, e.cause)
	}
	return "analysis failed: " + e.Msg
}

// Unwrap returns the underlying error.
func (e *AnalysisError) Unwrap() error {
	return e.cause
}

// Analyzer builds graphs for Python modules.
type Analyzer struct {
	parser *sitter.Parser
	query  *sitter.Query
	scorer *complexity.Scorer
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer. A nil logger discards output.
func NewAnalyzer(logger *slog.Logger) (*Analyzer, error) {
	py := lang.Python()
	q, err := py.GetCallQuery()
	if err != nil {
		return nil, &AnalysisError{Msg: "loading call query", cause: err}
	}
	logger = logging.OrDiscard(logger)
	return &Analyzer{
		parser: py.NewParser(),
		query:  q,
		scorer: complexity.NewScorer(logger),
		logger: logger,
	}, nil
}

// Analyze returns the graph for source. Invalid source yields a
// *ParseError; any other failure an *AnalysisError. No partial graph is
// returned with an error.
func (a *Analyzer) Analyze(source []byte) (g *model.Graph, err error) {
	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = &AnalysisError{Msg: fmt.Sprint(r)}
		}
	}()

	mod, err := parse.Walk(a.parser, source)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, perr
		}
		return nil, &AnalysisError{Msg: "walking syntax tree", cause: err}
	}
	defer mod.Close()

	record := a.scorer.Score(source)
	g = graph.Build(mod, record, a.query)

	a.logger.Debug("analysis complete",
		"declarations", len(mod.Decls),
		"scored", len(record),
		"nodes", len(g.Nodes),
		"edges", len(g.Edges),
	)
	return g, nil
}

// Analyze builds the graph for source with a fresh Analyzer.
func Analyze(source string) (*model.Graph, error) {
	a, err := NewAnalyzer(nil)
	if err != nil {
		return nil, err
	}
	return a.Analyze([]byte(source))
}
