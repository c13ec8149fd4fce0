package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testDebounce = 50 * time.Millisecond

// startWatcher runs w in the background and returns a channel of batches.
// The watcher is stopped and drained when the test ends.
func startWatcher(t *testing.T, w *Watcher) <-chan []Change {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	batches := make(chan []Change, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(ctx, func(c []Change) { batches <- c }); err != nil {
			t.Errorf("Run: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return batches
}

func nextBatch(t *testing.T, batches <-chan []Change) []Change {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for changes")
		return nil
	}
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWatchReportsWrites(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "app.py"), "def a(): pass\n")

	w, err := New(dir, Options{Debounce: testDebounce})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	batches := startWatcher(t, w)

	write(t, filepath.Join(dir, "app.py"), "def a(): return 1\n")

	got := nextBatch(t, batches)
	if len(got) != 1 || got[0] != (Change{Path: "app.py"}) {
		t.Errorf("changes = %+v, want [app.py]", got)
	}
}

func TestWatchSkipsUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "same.py"), "x = 1\n")

	w, err := New(dir, Options{Debounce: testDebounce})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	batches := startWatcher(t, w)

	write(t, filepath.Join(dir, "same.py"), "x = 1\n")
	write(t, filepath.Join(dir, "other.py"), "y = 2\n")

	got := nextBatch(t, batches)
	if len(got) != 1 || got[0].Path != "other.py" {
		t.Errorf("changes = %+v, want only other.py", got)
	}
}

func TestWatchIgnoresNonPythonAndExcluded(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, Options{Debounce: testDebounce, Exclude: []string{"gen/**"}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	batches := startWatcher(t, w)

	write(t, filepath.Join(dir, "notes.txt"), "hello")
	write(t, filepath.Join(dir, "skip_me.py.bak"), "x")
	write(t, filepath.Join(dir, "gen", "models.py"), "m = 0\n")
	write(t, filepath.Join(dir, "real.py"), "z = 3\n")

	got := nextBatch(t, batches)
	if len(got) != 1 || got[0].Path != "real.py" {
		t.Errorf("changes = %+v, want only real.py", got)
	}
}

func TestWatchReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gone.py")
	write(t, path, "pass\n")

	w, err := New(dir, Options{Debounce: testDebounce})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	batches := startWatcher(t, w)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	got := nextBatch(t, batches)
	if len(got) != 1 || got[0] != (Change{Path: "gone.py", Removed: true}) {
		t.Errorf("changes = %+v, want removal of gone.py", got)
	}
}

func TestWatchSingleFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "main.py")
	write(t, target, "a = 1\n")

	w, err := New(target, Options{Debounce: testDebounce})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if w.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", w.Dir(), dir)
	}
	batches := startWatcher(t, w)

	write(t, filepath.Join(dir, "sibling.py"), "b = 2\n")
	write(t, target, "a = 2\n")

	got := nextBatch(t, batches)
	if len(got) != 1 || got[0].Path != "main.py" {
		t.Errorf("changes = %+v, want only main.py", got)
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Error("expected error for missing path")
	}
	if _, err := New(t.TempDir(), Options{Exclude: []string{"[bad"}}); err == nil {
		t.Error("expected error for malformed exclude pattern")
	}
}
