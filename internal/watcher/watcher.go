package watcher

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

// ErrStopped is reported by [Watcher.Err] when fsnotify closes its channels
// without the watcher having been closed.
var ErrStopped = errors.New("filesystem notifications stopped")

// Event reports that something under the watched tree changed.
//
// Paths lists the changed files seen during the debounce window, sorted.
// It is informational only; consumers should treat every Event alike.
type Event struct {
	Paths []string
	At    time.Time
}

// Options configures a [Watcher].
type Options struct {
	// Debounce is the quiet period after the last raw notification before
	// an Event is emitted. Zero means [DefaultDebounce].
	Debounce time.Duration

	// Ignore lists path component names that never trigger events and are
	// not descended into, e.g. ".git" or "target".
	Ignore []string

	// Exclude lists directories whose contents never trigger events.
	// Relative entries are resolved against the current directory.
	Exclude []string
}

// Watcher emits debounced change events for a directory tree.
//
// Watcher follows a start-at-construction lifecycle: [New] registers the
// tree and starts the event loop, [Watcher.Close] stops it. Close is safe
// to call more than once and from any goroutine.
type Watcher struct {
	root     string
	debounce time.Duration
	ignore   map[string]struct{}
	exclude  []string
	fsw      *fsnotify.Watcher
	logger   *slog.Logger

	events chan Event
	done   chan struct{}
	wg     sync.WaitGroup

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

// New starts watching root recursively.
//
// Returns an error if root does not exist or the notification subsystem
// cannot be initialised.
func New(root string, opts Options, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("invalid watch root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s is not a directory", abs)
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	ignore := make(map[string]struct{}, len(opts.Ignore))
	for _, name := range opts.Ignore {
		ignore[name] = struct{}{}
	}
	exclude := make([]string, 0, len(opts.Exclude))
	for _, dir := range opts.Exclude {
		d, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude %q: %w", dir, err)
		}
		exclude = append(exclude, d)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		root:     abs,
		debounce: debounce,
		ignore:   ignore,
		exclude:  exclude,
		fsw:      fsw,
		logger:   logger,
		events:   make(chan Event),
		done:     make(chan struct{}),
	}

	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w.wg.Add(1)
	go w.run()

	return w, nil
}

// Events returns the channel of debounced change events.
//
// The channel is closed when the watcher stops. After that, [Watcher.Err]
// returns nil if Close was called and the failure cause otherwise.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Err returns the error that terminated the event loop, if any.
func (w *Watcher) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}

// run is the event loop. It owns the debounce timer and the pending event.
func (w *Watcher) run() {
	defer w.wg.Done()
	defer close(w.events)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		raw     = make(map[string]struct{})
		pending *Event
	)

	resetTimer := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.NewTimer(w.debounce)
		timerC = timer.C
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		// only offer the pending event once the debounce window has closed
		var out chan<- Event
		var next Event
		if pending != nil {
			out = w.events
			next = *pending
		}

		select {
		case <-w.done:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.fail(ErrStopped)
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.addIfDir(ev.Name)
			}
			raw[ev.Name] = struct{}{}
			resetTimer()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.fail(ErrStopped)
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// events were lost, but something certainly changed
				w.logger.Warn("filesystem event queue overflowed", "root", w.root)
				raw[w.root] = struct{}{}
				resetTimer()
				continue
			}
			w.fail(fmt.Errorf("watching %s: %w", w.root, err))
			return

		case <-timerC:
			timerC = nil
			pending = merge(pending, raw)
			raw = make(map[string]struct{})
			w.logger.Debug("change detected", "paths", len(pending.Paths))

		case out <- next:
			pending = nil
		}
	}
}

// fail records the terminal error unless the watcher is being closed.
func (w *Watcher) fail(err error) {
	select {
	case <-w.done:
		return
	default:
	}
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
	w.logger.Error("file watcher stopped", "root", w.root, "error", err)
}

// merge folds raw paths into the pending event, creating it if needed.
func merge(pending *Event, raw map[string]struct{}) *Event {
	if pending == nil {
		pending = &Event{}
	}
	seen := make(map[string]struct{}, len(pending.Paths)+len(raw))
	for _, p := range pending.Paths {
		seen[p] = struct{}{}
	}
	for p := range raw {
		if _, ok := seen[p]; !ok {
			pending.Paths = append(pending.Paths, p)
		}
	}
	sort.Strings(pending.Paths)
	pending.At = time.Now()
	return pending
}

// relevant reports whether a raw notification should count as a change.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	// permission and timestamp changes do not alter content
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return !w.skip(ev.Name)
}

// skip reports whether path is filtered out.
func (w *Watcher) skip(path string) bool {
	for _, dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}

	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if _, ok := w.ignore[part]; ok {
			return true
		}
		if strings.HasPrefix(part, ".") {
			return true
		}
	}

	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") {
		return true
	}
	switch filepath.Ext(base) {
	case ".swp", ".swo", ".swx", ".tmp":
		return true
	}
	return false
}

// addTree registers dir and every non-skipped directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// the directory may vanish between the event and the walk
			if path != dir && errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && w.skip(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// addIfDir registers a newly created directory tree.
func (w *Watcher) addIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("failed to watch new directory", "path", path, "error", err)
	}
}
