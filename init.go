package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	sentinelStart = "<!-- archmap:start -->"
	sentinelEnd   = "<!-- archmap:end -->"
)

// newInitCmd builds `archmap init`, which writes (or updates) an archmap
// usage section in a CLAUDE.md file.
func newInitCmd(o *options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "init [path-to-CLAUDE.md]",
		Short: "Write an archmap usage section to CLAUDE.md",
		Long: `Write an archmap usage section to a CLAUDE.md file. The section is wrapped in
sentinel comments so it can be updated in place on subsequent runs without
touching surrounding content. Creates the file if it does not exist.

path-to-CLAUDE.md defaults to ./CLAUDE.md.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			section := generateSection()

			// --dry-run with no path: just print the section itself.
			if dryRun && len(args) == 0 {
				_, _ = fmt.Fprintln(o.stdout, section)
				return nil
			}

			path := "CLAUDE.md"
			if len(args) > 0 {
				path = args[0]
			}

			existing, _ := os.ReadFile(path)
			updated := applySection(string(existing), section)

			if dryRun {
				_, _ = fmt.Fprint(o.stdout, updated)
				return nil
			}

			if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(o.stderr, "wrote archmap section to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	return cmd
}

// generateSection returns the full sentinel-wrapped archmap documentation block.
func generateSection() string {
	body := `## archmap: Architecture Map

Run ` + "`archmap`" + ` via the Bash tool before changing unfamiliar Python code. It
prints every class, function and method with its cyclomatic complexity, plus
the containment and call edges between them.

**Availability:** Check with ` + "`archmap --version`" + ` first; skip gracefully if
not found.

**Run it:**
` + "```" + `bash
archmap                                 # current directory
archmap path/to/module.py               # a single file
archmap -n 10                           # the 10 most complex files only
archmap -s OrderService                 # one symbol with its callers and callees
archmap --hide-builtins                 # drop calls to print, len, ...
archmap --format json                   # machine-readable output
archmap --cache .archmap-cache          # cache output (fast on repeat runs)
` + "```" + `

**Caching:** Use ` + "`--cache <file>`" + ` to skip re-parsing when nothing changed. Add the
cache file to ` + "`.gitignore`" + `.

**All flags:** ` + "`archmap --help`" + `

**How to use the output:**

1. **Start with the files at the top.** Files are ordered by total complexity,
   so the hotspots come first.

2. **Check ` + "`health`" + ` before editing a function.** ` + "`critical`" + ` (complexity above 10)
   and ` + "`warning`" + ` (6 to 10) functions deserve extra care and tests.

3. **Use ` + "`edges`" + ` to trace call chains** instead of grepping for call sites.
   Call targets are dotted names as written (` + "`self.repo.save`" + `), so a target
   may not have a node of its own.`

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
