package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/phobologic/archmap/internal/analysis"
	"github.com/phobologic/archmap/internal/discover"
	"github.com/phobologic/archmap/internal/export"
	"github.com/phobologic/archmap/internal/model"
	"github.com/phobologic/archmap/internal/ranking"
	"github.com/phobologic/archmap/internal/summarize"
	"github.com/phobologic/archmap/internal/watch"
)

func newWatchCmd(o *options) *cobra.Command {
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Re-analyze Python files as they change",
		Long: `Watch a file or directory and print a fresh graph for every Python file
whose content changes. Removed files are reported on stderr. With --summary,
each batch also gets an architecture summary; summaries are cached for the
life of the process, so content seen before is not sent again. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			w, err := watch.New(path, watch.Options{
				Debounce: debounce,
				Exclude:  o.cfg.Analysis.Exclude,
				Logger:   o.logger,
			})
			if err != nil {
				return err
			}

			a, err := analysis.NewAnalyzer(o.logger)
			if err != nil {
				return err
			}

			var s *summarize.Summarizer
			if o.summary {
				if s, err = summarize.NewSummarizer(summarize.DefaultCacheSize, o.logger); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			o.logger.Info("watching", "dir", w.Dir())
			return w.Run(ctx, func(changes []watch.Change) {
				if err := reportChanges(ctx, a, s, w.Dir(), changes, o); err != nil {
					o.logger.Error("failed to write report", "err", err)
				}
			})
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet period before re-analyzing")
	cmd.Flags().BoolVar(&o.summary, "summary", false, "summarize each batch of changed files")
	return cmd
}

// reportChanges analyzes each changed file and writes one report per batch.
// When s is non-nil the batch is also summarized through s.
func reportChanges(ctx context.Context, a *analysis.Analyzer, s *summarize.Summarizer, dir string, changes []watch.Change, o *options) error {
	report := &model.Report{Root: filepath.Base(dir)}
	var changed []discover.FileEntry
	for _, c := range changes {
		if c.Removed {
			_, _ = fmt.Fprintf(o.stderr, "removed: %s\n", filepath.ToSlash(c.Path))
			continue
		}
		changed = append(changed, discover.FileEntry{Path: c.Path, Language: "python"})
		fg := model.FileGraph{Path: filepath.ToSlash(c.Path)}
		source, err := os.ReadFile(filepath.Join(dir, c.Path))
		if err != nil {
			fg.Err = err.Error()
		} else if g, err := a.Analyze(source); err != nil {
			fg.Err = describeError(err)
		} else {
			fg.Graph = g
		}
		report.Files = append(report.Files, fg)
	}
	if len(report.Files) == 0 {
		return nil
	}
	if s != nil {
		report.Summary = summarizeFiles(ctx, s, dir, changed, o)
	}
	if o.cfg.Output.HideBuiltins {
		report = ranking.HideBuiltins(report)
	}
	return export.Write(o.stdout, report, o.cfg.Output.Format)
}
