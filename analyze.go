package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/archmap/internal/analysis"
	"github.com/phobologic/archmap/internal/discover"
	"github.com/phobologic/archmap/internal/export"
	"github.com/phobologic/archmap/internal/model"
	"github.com/phobologic/archmap/internal/ranking"
	"github.com/phobologic/archmap/internal/summarize"
)

// maxSummarySource caps the source text sent to a summary provider.
const maxSummarySource = 100_000

// input is a single file or the files discovered under a directory.
type input struct {
	root   string // directory paths are relative to
	name   string // report root label
	files  []discover.FileEntry
	single bool
}

func resolveInput(o *options, path string) (*input, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}

	if !info.IsDir() {
		return &input{
			root:   filepath.Dir(abs),
			name:   filepath.Base(abs),
			files:  []discover.FileEntry{{Path: filepath.Base(abs), Language: "python"}},
			single: true,
		}, nil
	}

	files, err := discover.Files(abs, discover.Options{
		Exclude:   o.cfg.Analysis.Exclude,
		SkipTests: o.skipTests,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no Python files found under %s", abs)
	}
	return &input{root: abs, name: filepath.Base(abs), files: files}, nil
}

func runAnalyze(ctx context.Context, o *options, path string) error {
	in, err := resolveInput(o, path)
	if err != nil {
		return err
	}

	// Filtered and summarized output is never cached.
	cacheable := o.cachePath != "" && o.symbol == "" && o.file == "" && !o.summary

	if cacheable && cacheIsFresh(o.cachePath, in.root, in.files) {
		data, err := os.ReadFile(o.cachePath)
		if err == nil {
			o.logger.Debug("serving cached output", "cache", o.cachePath)
			_, _ = o.stdout.Write(data)
			return nil
		}
	}

	files := filterBySize(in.root, in.files, o.cfg.Analysis.MaxFileSize, o.logger)
	if len(files) == 0 {
		return fmt.Errorf("no Python files left to analyze (all exceeded %d bytes)", o.cfg.Analysis.MaxFileSize)
	}

	report := &model.Report{Root: in.name}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Files = analyzeFilesConcurrent(in.root, files, o.logger)
		return nil
	})
	if o.summary {
		g.Go(func() error {
			report.Summary = summarizeFiles(gctx, nil, in.root, files, o)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if in.single {
		if msg := report.Files[0].Err; msg != "" {
			_, _ = fmt.Fprintf(o.stderr, "%s: %s\n", report.Files[0].Path, msg)
			return &exitError{err: errors.New(msg)}
		}
	}

	report = shape(o, report)

	var buf bytes.Buffer
	if err := export.Write(&buf, report, o.cfg.Output.Format); err != nil {
		return err
	}
	if cacheable {
		if err := os.WriteFile(o.cachePath, buf.Bytes(), 0o644); err != nil {
			o.logger.Warn("failed to write cache", "cache", o.cachePath, "err", err)
		}
	}
	_, err = o.stdout.Write(buf.Bytes())
	return err
}

// shape ranks and narrows a report according to the output flags.
func shape(o *options, r *model.Report) *model.Report {
	ranking.Rank(r.Files)
	if o.file != "" {
		r = ranking.FilterByFile(r, o.file)
	}
	if o.symbol != "" {
		r = ranking.FilterBySymbol(r, o.symbol)
	}
	if o.cfg.Output.HideBuiltins {
		r = ranking.HideBuiltins(r)
	}
	return ranking.SelectFiles(r, o.cfg.Analysis.MaxFiles)
}

// describeError renders an analysis failure for a report row.
func describeError(err error) string {
	var perr *analysis.ParseError
	if errors.As(err, &perr) {
		return fmt.Sprintf("Syntax error at line %d, column %d: %s", perr.Line, perr.Column, perr.Msg)
	}
	return err.Error()
}

// summarizeFiles asks the configured provider about files. A nil s sends
// the request uncached. Failures, including unreadable files, come back as
// the summary text.
func summarizeFiles(ctx context.Context, s *summarize.Summarizer, root string, files []discover.FileEntry, o *options) string {
	prompt, err := summaryPrompt(root, files)
	if err != nil {
		o.logger.Warn("summary unavailable", "err", err)
		return summarize.ErrorMessage(err)
	}
	if s != nil {
		return s.Summarize(ctx, prompt, o.cfg.Summary)
	}
	o.logger.Debug("requesting summary", "provider", o.cfg.Summary.Provider, "model", o.cfg.Summary.Model)
	return summarize.Summarize(ctx, prompt, o.cfg.Summary)
}

func summaryPrompt(root string, files []discover.FileEntry) (string, error) {
	if len(files) == 1 {
		source, err := os.ReadFile(filepath.Join(root, files[0].Path))
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", files[0].Path, err)
		}
		return summarize.ArchitecturePrompt(string(source)), nil
	}

	var b strings.Builder
	for _, f := range files {
		source, err := os.ReadFile(filepath.Join(root, f.Path))
		if err != nil {
			continue
		}
		if b.Len()+len(source) > maxSummarySource {
			break
		}
		fmt.Fprintf(&b, "# file: %s\n%s\n", filepath.ToSlash(f.Path), source)
	}
	return summarize.ArchitecturePrompt(b.String()), nil
}

func cacheIsFresh(cachePath, root string, files []discover.FileEntry) bool {
	cacheInfo, err := os.Stat(cachePath)
	if err != nil {
		return false
	}
	cacheMtime := cacheInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(cacheMtime) {
			return false
		}
	}
	return true
}

func filterBySize(root string, files []discover.FileEntry, maxSize int, logger *slog.Logger) []discover.FileEntry {
	var kept []discover.FileEntry
	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, f.Path))
		if err != nil {
			kept = append(kept, f) // keep if can't stat
			continue
		}
		if fi.Size() > int64(maxSize) {
			logger.Warn("skipped large file", "path", f.Path, "bytes", fi.Size(), "limit", maxSize)
			continue
		}
		kept = append(kept, f)
	}
	return kept
}

// analyzeFilesConcurrent analyzes files on GOMAXPROCS workers, each with
// its own Analyzer, and returns results in input order.
func analyzeFilesConcurrent(root string, files []discover.FileEntry, logger *slog.Logger) []model.FileGraph {
	type result struct {
		index int
		fg    model.FileGraph
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	results := make(chan result, len(files))

	var wg sync.WaitGroup

	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			a, err := analysis.NewAnalyzer(logger)

			for idx := range work {
				f := files[idx]
				fg := model.FileGraph{Path: filepath.ToSlash(f.Path)}
				if err != nil {
					fg.Err = describeError(err)
					results <- result{index: idx, fg: fg}
					continue
				}

				source, rerr := os.ReadFile(filepath.Join(root, f.Path))
				if rerr != nil {
					logger.Warn("failed to read file", "path", f.Path, "err", rerr)
					fg.Err = rerr.Error()
					results <- result{index: idx, fg: fg}
					continue
				}

				g, aerr := a.Analyze(source)
				if aerr != nil {
					logger.Info("analysis failed", "path", f.Path, "err", aerr)
					fg.Err = describeError(aerr)
				} else {
					fg.Graph = g
				}
				results <- result{index: idx, fg: fg}
			}
		}()
	}

	for i := range files {
		work <- i
	}
	close(work)

	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results in original order
	out := make([]model.FileGraph, len(files))
	for r := range results {
		out[r.index] = r.fg
	}
	return out
}
