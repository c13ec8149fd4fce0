// Package watch reports debounced changes to Python files under a path.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"

	"github.com/phobologic/archmap/internal/discover"
	"github.com/phobologic/archmap/internal/lang"
	"github.com/phobologic/archmap/internal/logging"
)

// DefaultDebounce is the quiet period before pending events are flushed.
const DefaultDebounce = 200 * time.Millisecond

// Change describes one file whose content changed or that was removed.
type Change struct {
	Path    string // relative to the watched directory
	Removed bool
}

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Exclude  []string
	Logger   *slog.Logger
}

// Watcher watches a directory tree, or a single file, for Python changes.
// Writes that leave a file's content unchanged are not reported.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dir      string
	only     string // set when watching a single file
	debounce time.Duration
	exclude  []string
	logger   *slog.Logger
	hashes   map[string]uint64
}

var skipDirs = map[string]struct{}{
	"__pycache__":  {},
	"node_modules": {},
	"venv":         {},
	"build":        {},
	"dist":         {},
}

// New creates a watcher for path, which may be a directory or a file.
func New(path string, opts Options) (*Watcher, error) {
	if err := discover.ValidatePatterns(opts.Exclude); err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		dir:      abs,
		debounce: opts.Debounce,
		exclude:  opts.Exclude,
		logger:   logging.OrDiscard(opts.Logger),
		hashes:   make(map[string]uint64),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if !info.IsDir() {
		w.dir = filepath.Dir(abs)
		w.only = filepath.Base(abs)
	}

	if err := w.addTree(w.dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Dir returns the directory change paths are relative to.
func (w *Watcher) Dir() string { return w.dir }

// addTree registers dir and its subdirectories and records the current
// content hash of every watched file.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.skipDir(path) {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				return fmt.Errorf("watching %s: %w", path, err)
			}
			if w.only != "" {
				// A single file only needs its parent directory.
				w.seed(filepath.Join(dir, w.only))
				return filepath.SkipDir
			}
			return nil
		}
		if w.relevant(path) {
			w.seed(path)
		}
		return nil
	})
}

func (w *Watcher) seed(path string) {
	if sum, ok := hashFile(path); ok {
		w.hashes[w.rel(path)] = sum
	}
}

func (w *Watcher) skipDir(path string) bool {
	name := filepath.Base(path)
	if _, ok := skipDirs[name]; ok || strings.HasPrefix(name, ".") {
		return true
	}
	return discover.Excluded(w.rel(path), w.exclude)
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil {
		return path
	}
	return rel
}

// relevant reports whether path is a Python file this watcher reports on.
func (w *Watcher) relevant(path string) bool {
	name := filepath.Base(path)
	if w.only != "" {
		return filepath.Dir(path) == w.dir && name == w.only
	}
	if strings.HasPrefix(name, ".") || lang.ForExtension(filepath.Ext(name)) == "" {
		return false
	}
	return !discover.Excluded(w.rel(path), w.exclude)
}

// Run delivers batches of changes to fn until ctx is done, then closes the
// watcher. fn runs on the watcher's goroutine; events arriving while it
// runs are queued for the next batch.
func (w *Watcher) Run(ctx context.Context, fn func([]Change)) error {
	defer w.fsw.Close()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handle(ev, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)

		case <-timer.C:
			if changes := w.flush(pending); len(changes) > 0 {
				fn(changes)
			}
		}
	}
}

// handle records ev in pending and reports whether it should (re)start
// the debounce timer.
func (w *Watcher) handle(ev fsnotify.Event, pending map[string]struct{}) bool {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
		return false
	}

	if ev.Has(fsnotify.Create) && w.only == "" {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.skipDir(ev.Name) {
				return false
			}
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("failed to watch new directory", "path", ev.Name, "err", err)
			}
			// Files written before the watch was added produce no events
			// of their own; report them as new.
			prefix := w.rel(ev.Name) + string(filepath.Separator)
			for rel := range w.hashes {
				if strings.HasPrefix(rel, prefix) {
					pending[rel] = struct{}{}
					delete(w.hashes, rel)
				}
			}
			return true
		}
	}

	if !w.relevant(ev.Name) {
		return false
	}
	w.logger.Debug("file event", "path", ev.Name, "op", ev.Op.String())
	pending[w.rel(ev.Name)] = struct{}{}
	return true
}

// flush resolves pending paths into changes, dropping writes that left
// content unchanged, and clears pending.
func (w *Watcher) flush(pending map[string]struct{}) []Change {
	paths := make([]string, 0, len(pending))
	for rel := range pending {
		paths = append(paths, rel)
	}
	clear(pending)
	slices.Sort(paths)

	var changes []Change
	for _, rel := range paths {
		sum, ok := hashFile(filepath.Join(w.dir, rel))
		prev, seen := w.hashes[rel]
		switch {
		case !ok && seen:
			delete(w.hashes, rel)
			changes = append(changes, Change{Path: rel, Removed: true})
		case !ok:
			// Created and removed within one debounce window.
		case seen && prev == sum:
			w.logger.Debug("content unchanged", "path", rel)
		default:
			w.hashes[rel] = sum
			changes = append(changes, Change{Path: rel})
		}
	}
	return changes
}

func hashFile(path string) (uint64, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return xxhash.Sum64(data), true
}
