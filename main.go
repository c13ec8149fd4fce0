// archmap turns Python source into an architecture graph of classes,
// functions and calls, annotated with cyclomatic complexity health.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/phobologic/archmap/internal/config"
	"github.com/phobologic/archmap/internal/discover"
	"github.com/phobologic/archmap/internal/logging"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		var exit *exitError
		if !errors.As(err, &exit) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

// exitError signals a failure whose message was already written to stderr.
type exitError struct{ err error }

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// options holds flag values and the state derived from them before a
// command runs.
type options struct {
	configFile   string
	verbose      int
	quiet        bool
	showVersion  bool
	format       string
	maxFiles     int
	cachePath    string
	maxFileSize  int
	exclude      []string
	hideBuiltins bool
	skipTests    bool
	summary      bool
	symbol       string
	file         string

	cfg    *config.Config
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	o := &options{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "archmap [path]",
		Short: "Map the architecture and complexity of Python code",
		Long: `archmap parses Python source with tree-sitter and prints an architecture graph:
classes, functions and methods as nodes, containment and call relations as
edges, and a cyclomatic complexity health score for every function.

path may be a single .py file or a directory (default: current directory).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.showVersion {
				_, _ = fmt.Fprintf(o.stdout, "archmap %s\n", version)
				return nil
			}
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runAnalyze(cmd.Context(), o, path)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&o.configFile, "config", "", "config file (default: .archmap.{yaml,toml,json} in the current directory)")
	pf.CountVarP(&o.verbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&o.quiet, "quiet", "q", false, "suppress all log output")
	pf.StringVar(&o.format, "format", "", "output format: toon, json or yaml")
	pf.StringSliceVar(&o.exclude, "exclude", nil, "doublestar patterns of paths to skip (repeatable)")
	pf.IntVar(&o.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes")

	f := root.Flags()
	f.BoolVarP(&o.showVersion, "version", "V", false, "show version and exit")
	f.IntVarP(&o.maxFiles, "max-files", "n", 0, "keep only the N most complex files")
	f.StringVar(&o.cachePath, "cache", "", "cache file path")
	f.BoolVar(&o.hideBuiltins, "hide-builtins", false, "drop call edges to Python builtins")
	f.BoolVar(&o.skipTests, "skip-tests", false, "skip test modules when analyzing a directory")
	f.BoolVar(&o.summary, "summary", false, "ask the configured LLM provider for an architecture summary")
	f.StringVarP(&o.symbol, "symbol", "s", "", "keep only symbols whose id contains this text, with their callers and callees")
	f.StringVarP(&o.file, "file", "f", "", "keep only files whose path contains this text")

	root.AddCommand(newSummarizeCmd(o), newWatchCmd(o), newInitCmd(o))
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (o *options) setup(cmd *cobra.Command) error {
	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	cfg, err := config.Load(dir, o.configFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = o.format
	}
	if flags.Changed("exclude") {
		cfg.Analysis.Exclude = append(cfg.Analysis.Exclude, o.exclude...)
	}
	if flags.Changed("max-file-size") {
		cfg.Analysis.MaxFileSize = o.maxFileSize
	}
	if flags.Changed("max-files") {
		cfg.Analysis.MaxFiles = o.maxFiles
	}
	if flags.Changed("hide-builtins") {
		cfg.Output.HideBuiltins = o.hideBuiltins
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := discover.ValidatePatterns(cfg.Analysis.Exclude); err != nil {
		return err
	}

	level := logging.LevelFromVerbosity(logging.LevelFromString(cfg.Logging.Level), o.verbose, o.quiet)
	o.logger = logging.NewLogger(o.stderr, level)
	o.cfg = cfg
	return nil
}
