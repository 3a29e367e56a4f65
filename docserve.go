package docserve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/docserve/internal/index"
	"github.com/jpalmerr/docserve/internal/server"
	"github.com/jpalmerr/docserve/internal/watcher"
)

const (
	defaultAddr     = "127.0.0.1:8000"
	defaultDebounce = watcher.DefaultDebounce
	defaultGrace    = server.DefaultGrace
)

// defaultIgnore names build output and dependency directories that commonly
// sit next to the documentation output.
var defaultIgnore = []string{"target", "vendor", "node_modules"}

var (
	// ErrInitialBuild is returned by [DocServe.Run] when the first build
	// fails. Nothing has been served at that point.
	ErrInitialBuild = errors.New("initial documentation build failed")

	// ErrWatcher is returned by [DocServe.Run] when the file watcher cannot
	// be created or stops delivering events.
	ErrWatcher = errors.New("file watcher failed")
)

// changeSource delivers debounced change events. *watcher.Watcher is the
// production implementation.
type changeSource interface {
	Events() <-chan watcher.Event
	Err() error
	Close() error
}

// DocServe builds documentation and serves it over HTTP, optionally
// rebuilding and restarting the server whenever watched sources change.
//
// DocServe is created using [New] with functional options and run with
// [DocServe.Run]:
//
//	ds, err := docserve.New(
//	    docserve.WithBuilder(builder),
//	    docserve.WithDocDir("target/doc"),
//	    docserve.WithWatch("."),
//	)
//	if err != nil {
//	    slog.Error("failed to create docserve", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	if err := ds.Run(ctx); err != nil { // blocks until context cancelled
//	    os.Exit(1)
//	}
type DocServe struct {
	builder        Builder
	loader         UnitLoader
	units          []Unit
	selection      Selection
	docDir         string
	addr           string
	watchDir       string
	debounce       time.Duration
	ignore         []string
	grace          time.Duration
	logger         *slog.Logger
	stateCallbacks []func(StateChange)

	// replaced in tests
	newChangeSource func() (changeSource, error)
}

// New creates a new [DocServe] instance with the given options.
//
// A builder ([WithBuilder]) and a documentation directory ([WithDocDir])
// are required. Other options have sensible defaults:
//   - Address: 127.0.0.1:8000
//   - Debounce: 500ms
//   - Shutdown grace: 5 seconds
//   - Watch mode: off
//
// Returns an error if a required option is missing or any option is
// invalid.
func New(opts ...Option) (*DocServe, error) {
	cfg := &dsConfig{
		addr:     defaultAddr,
		debounce: defaultDebounce,
		grace:    defaultGrace,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.builder == nil {
		return nil, errors.New("a builder is required")
	}
	if cfg.docDir == "" {
		return nil, errors.New("a documentation directory is required")
	}
	if cfg.loader != nil && len(cfg.units) > 0 {
		return nil, errors.New("units and a unit loader are mutually exclusive")
	}

	docDir, err := filepath.Abs(cfg.docDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve doc dir %q: %w", cfg.docDir, err)
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	ignore := cfg.ignore
	if !cfg.ignoreSet {
		ignore = append([]string(nil), defaultIgnore...)
	}

	ds := &DocServe{
		builder:        cfg.builder,
		loader:         cfg.loader,
		units:          cfg.units,
		selection:      cfg.selection,
		docDir:         docDir,
		addr:           cfg.addr,
		watchDir:       cfg.watchDir,
		debounce:       cfg.debounce,
		ignore:         ignore,
		grace:          cfg.grace,
		logger:         logger,
		stateCallbacks: cfg.stateCallbacks,
	}
	ds.newChangeSource = ds.openWatcher
	return ds, nil
}

// Run builds the documentation and serves it until ctx is cancelled.
//
// Run is a blocking call. In watch mode every debounced change shuts the
// server down, rebuilds, and starts a fresh server. A failed rebuild is
// logged and the previous build keeps being served.
//
// Returns nil when ctx is cancelled. Returns an error wrapping
// [ErrInitialBuild] if the first build fails, a [*server.BindError] if the
// address cannot be bound, or an error wrapping [ErrWatcher] if the file
// watcher fails.
func (ds *DocServe) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}

	// the watcher comes first so edits made during the initial build are
	// not missed
	var changes changeSource
	if ds.watchDir != "" {
		src, err := ds.newChangeSource()
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrWatcher, err)
			ds.transition(StateChange{State: StateFailed, Err: err})
			return err
		}
		defer src.Close()
		changes = src
	}

	cycle := uuid.NewString()
	ds.transition(StateChange{State: StateBuilding, Cycle: cycle})

	current, err := ds.build(ctx, cycle)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		err = fmt.Errorf("%w: %w", ErrInitialBuild, err)
		ds.transition(StateChange{State: StateFailed, Cycle: cycle, Err: err})
		return err
	}

	var rebuildErr error
	for {
		handle, err := server.Start(current, ds.logger)
		if err != nil {
			ds.transition(StateChange{State: StateFailed, Cycle: cycle, Err: err})
			return err
		}
		ds.logger.Info("serving documentation",
			"cycle", cycle,
			"addr", handle.Addr(),
			"doc_dir", current.DocRoot,
		)
		ds.transition(StateChange{
			State: StateServing,
			Cycle: cycle,
			Addr:  handle.Addr(),
			Stale: rebuildErr != nil,
			Err:   rebuildErr,
		})

		var events <-chan watcher.Event
		if changes != nil {
			events = changes.Events()
		}

		select {
		case <-ctx.Done():
			ds.stop(handle, cycle)
			ds.logger.Info("docserve stopped")
			return nil

		case ev, ok := <-events:
			if !ok {
				ds.stop(handle, cycle)
				cause := changes.Err()
				if cause == nil {
					cause = watcher.ErrStopped
				}
				err := fmt.Errorf("%w: %w", ErrWatcher, cause)
				ds.transition(StateChange{State: StateFailed, Cycle: cycle, Err: err})
				return err
			}

			cycle = uuid.NewString()
			ds.logger.Info("change detected", "cycle", cycle, "paths", ev.Paths)

			ds.transition(StateChange{State: StateStopping, Cycle: cycle})
			ds.stop(handle, cycle)

			ds.transition(StateChange{State: StateBuilding, Cycle: cycle})
			next, err := ds.build(ctx, cycle)
			if err != nil {
				if ctx.Err() != nil {
					ds.logger.Info("docserve stopped")
					return nil
				}
				ds.logger.Error("rebuild failed, serving previous documentation",
					"cycle", cycle,
					"error", err.Error(),
				)
				rebuildErr = err
				continue
			}
			current = next
			rebuildErr = nil
		}
	}
}

// build runs the builder and the unit loader and returns the resulting
// serving configuration.
func (ds *DocServe) build(ctx context.Context, cycle string) (server.Config, error) {
	start := time.Now()
	ds.logger.Info("building documentation", "cycle", cycle, "doc_dir", ds.docDir)

	if err := ds.builder.Build(ctx, ds.selection); err != nil {
		return server.Config{}, err
	}

	units := ds.units
	if ds.loader != nil {
		loaded, err := ds.loader(ctx)
		if err != nil {
			return server.Config{}, fmt.Errorf("failed to load units: %w", err)
		}
		units = loaded
	}

	ds.logger.Info("documentation built",
		"cycle", cycle,
		"units", len(units),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return server.Config{
		DocRoot: ds.docDir,
		Units:   toIndexUnits(units),
		Addr:    ds.addr,
		Grace:   ds.grace,
	}, nil
}

// stop shuts the server down and waits until it has stopped. Shutdown
// errors are logged; the listener is released either way.
func (ds *DocServe) stop(h *server.Handle, cycle string) {
	if err := h.Shutdown(); err != nil {
		ds.logger.Warn("server shutdown incomplete",
			"cycle", cycle,
			"addr", h.Addr(),
			"error", err.Error(),
		)
	}
}

// openWatcher creates the production change source.
func (ds *DocServe) openWatcher() (changeSource, error) {
	return watcher.New(ds.watchDir, watcher.Options{
		Debounce: ds.debounce,
		Ignore:   ds.ignore,
		Exclude:  []string{ds.docDir},
	}, ds.logger)
}

// transition stamps the change and passes it to every state callback.
func (ds *DocServe) transition(change StateChange) {
	change.At = time.Now()
	for _, cb := range ds.stateCallbacks {
		invokeCallbackSafe(cb, change, ds.logger)
	}
}

// Units returns a copy of the statically configured units.
func (ds *DocServe) Units() []Unit {
	cp := make([]Unit, len(ds.units))
	copy(cp, ds.units)
	return cp
}

// Addr returns the configured listen address.
func (ds *DocServe) Addr() string {
	return ds.addr
}

// DocDir returns the absolute documentation directory.
func (ds *DocServe) DocDir() string {
	return ds.docDir
}

// Watching reports whether watch mode is enabled.
func (ds *DocServe) Watching() bool {
	return ds.watchDir != ""
}

// toIndexUnits converts Unit values to the index renderer's format.
func toIndexUnits(units []Unit) []index.Unit {
	result := make([]index.Unit, len(units))
	for i, u := range units {
		result[i] = index.Unit{
			Name: u.name,
			Kind: u.kind.String(),
			Path: u.path,
		}
	}
	return result
}

// invokeCallbackSafe calls a state callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(StateChange), change StateChange, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("state callback panicked",
				"panic", r,
				"state", change.State.String(),
				"cycle", change.Cycle,
			)
		}
	}()
	cb(change)
}
