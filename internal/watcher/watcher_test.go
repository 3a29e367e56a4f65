package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 100 * time.Millisecond

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWatcher(t *testing.T, root string, opts Options) *Watcher {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = testDebounce
	}
	w, err := New(root, opts, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// expectEvent waits for the next event or fails.
func expectEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		require.True(t, ok, "events channel closed unexpectedly")
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change event")
		return Event{}
	}
}

// expectNoEvent asserts that nothing is emitted for d.
func expectNoEvent(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		if ok {
			t.Fatalf("unexpected event: %+v", ev)
		}
	case <-time.After(d):
	}
}

func TestNew(t *testing.T) {
	t.Run("rejects missing root", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "missing"), Options{}, testLogger())
		require.Error(t, err)
	})

	t.Run("rejects file root", func(t *testing.T) {
		f := filepath.Join(t.TempDir(), "file.txt")
		writeFile(t, f, "x")

		_, err := New(f, Options{}, testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})

	t.Run("resolves absolute root", func(t *testing.T) {
		dir := t.TempDir()
		w := newTestWatcher(t, dir, Options{})
		assert.True(t, filepath.IsAbs(w.Root()))
	})
}

func TestWatcher_BurstYieldsSingleEvent(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, Options{})

	for i, name := range []string{"a.rs", "b.rs", "c.rs"} {
		writeFile(t, filepath.Join(dir, name), "fn main() {}")
		if i < 2 {
			time.Sleep(testDebounce / 5)
		}
	}

	ev := expectEvent(t, w)
	assert.Contains(t, ev.Paths, filepath.Join(w.Root(), "a.rs"))
	assert.Contains(t, ev.Paths, filepath.Join(w.Root(), "c.rs"))
	assert.False(t, ev.At.IsZero())

	expectNoEvent(t, w, 4*testDebounce)
}

func TestWatcher_SeparateBurstsYieldSeparateEvents(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, Options{})

	writeFile(t, filepath.Join(dir, "one.go"), "package one")
	expectEvent(t, w)

	writeFile(t, filepath.Join(dir, "two.go"), "package two")
	ev := expectEvent(t, w)
	assert.Contains(t, ev.Paths, filepath.Join(w.Root(), "two.go"))
}

func TestWatcher_CoalescesWhileConsumerBusy(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, Options{})

	// two bursts separated by more than the debounce window, with nobody
	// reading in between
	writeFile(t, filepath.Join(dir, "first.go"), "package x")
	time.Sleep(3 * testDebounce)
	writeFile(t, filepath.Join(dir, "second.go"), "package x")
	time.Sleep(3 * testDebounce)

	ev := expectEvent(t, w)
	assert.Contains(t, ev.Paths, filepath.Join(w.Root(), "first.go"))
	assert.Contains(t, ev.Paths, filepath.Join(w.Root(), "second.go"))

	expectNoEvent(t, w, 4*testDebounce)
}

func TestWatcher_Recursive(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deep"), 0o755))
	w := newTestWatcher(t, dir, Options{})

	writeFile(t, filepath.Join(dir, "nested", "deep", "mod.rs"), "mod x;")
	ev := expectEvent(t, w)
	assert.Contains(t, ev.Paths, filepath.Join(w.Root(), "nested", "deep", "mod.rs"))

	t.Run("directories created after start", func(t *testing.T) {
		newDir := filepath.Join(dir, "later")
		require.NoError(t, os.Mkdir(newDir, 0o755))
		expectEvent(t, w)

		writeFile(t, filepath.Join(newDir, "lib.rs"), "pub fn f() {}")
		ev := expectEvent(t, w)
		assert.Contains(t, ev.Paths, filepath.Join(w.Root(), "later", "lib.rs"))
	})
}

func TestWatcher_Filtering(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target"), 0o755))
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

	w := newTestWatcher(t, dir, Options{
		Ignore:  []string{"target"},
		Exclude: []string{out},
	})

	tests := []struct {
		name string
		path string
	}{
		{"ignored component", filepath.Join(dir, "target", "build.log")},
		{"excluded directory", filepath.Join(out, "index.html")},
		{"hidden directory", filepath.Join(dir, ".git", "HEAD")},
		{"hidden file", filepath.Join(dir, ".lib.rs.swp")},
		{"swap file", filepath.Join(dir, "lib.rs.swp")},
		{"backup file", filepath.Join(dir, "lib.rs~")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writeFile(t, tt.path, "noise")
			expectNoEvent(t, w, 3*testDebounce)
		})
	}

	// a real source change still comes through
	writeFile(t, filepath.Join(dir, "lib.rs"), "pub fn f() {}")
	ev := expectEvent(t, w)
	assert.Equal(t, []string{filepath.Join(w.Root(), "lib.rs")}, ev.Paths)
}

func TestWatcher_ChmodIgnored(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "lib.rs")
	writeFile(t, f, "x")

	w := newTestWatcher(t, dir, Options{})
	require.NoError(t, os.Chmod(f, 0o600))

	expectNoEvent(t, w, 3*testDebounce)
}

func TestWatcher_Close(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, Options{Debounce: testDebounce}, testLogger())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second Close should be a no-op")

	select {
	case _, ok := <-w.Events():
		assert.False(t, ok, "Events should be closed after Close")
	case <-time.After(time.Second):
		t.Fatal("Events not closed after Close")
	}
	assert.NoError(t, w.Err(), "Close is not a failure")
}

func TestMerge(t *testing.T) {
	ev := merge(nil, map[string]struct{}{"b": {}, "a": {}})
	assert.Equal(t, []string{"a", "b"}, ev.Paths)

	ev = merge(ev, map[string]struct{}{"c": {}, "a": {}})
	assert.Equal(t, []string{"a", "b", "c"}, ev.Paths)
}
