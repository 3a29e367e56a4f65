package docserve

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"
)

// dsConfig holds mutable state during DocServe construction.
type dsConfig struct {
	builder        Builder
	loader         UnitLoader
	units          []Unit
	selection      Selection
	docDir         string
	addr           string
	watchDir       string
	debounce       time.Duration
	ignore         []string
	ignoreSet      bool
	grace          time.Duration
	logger         *slog.Logger
	stateCallbacks []func(StateChange)
}

// Option is a function that configures a [DocServe] instance during
// construction.
//
// Option implements the functional options pattern. Options return an
// error if validation fails.
type Option func(*dsConfig) error

// WithBuilder sets the documentation build collaborator. Required.
func WithBuilder(b Builder) Option {
	return func(cfg *dsConfig) error {
		if b == nil {
			return errors.New("builder cannot be nil")
		}
		cfg.builder = b
		return nil
	}
}

// WithDocDir sets the directory the builder writes documentation into and
// the server serves from. Required. Relative paths are resolved against the
// working directory when [New] is called.
func WithDocDir(dir string) Option {
	return func(cfg *dsConfig) error {
		if dir == "" {
			return errors.New("doc dir cannot be empty")
		}
		cfg.docDir = dir
		return nil
	}
}

// WithAddr sets the listen address. Defaults to 127.0.0.1:8000.
//
// Returns an error if the address is not host:port.
func WithAddr(addr string) Option {
	return func(cfg *dsConfig) error {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid listen address %q: %w", addr, err)
		}
		cfg.addr = addr
		return nil
	}
}

// WithSelection sets the target selection passed to the builder.
func WithSelection(sel Selection) Option {
	return func(cfg *dsConfig) error {
		cfg.selection = sel
		return nil
	}
}

// WithUnits sets a fixed list of units for the index page.
//
// Units are listed in the given order. Mutually exclusive with
// [WithUnitLoader].
func WithUnits(units ...Unit) Option {
	return func(cfg *dsConfig) error {
		cfg.units = append(cfg.units, units...)
		return nil
	}
}

// WithUnitLoader sets a function that enumerates units after every
// successful build. A loader error counts as a build failure.
//
// Mutually exclusive with [WithUnits].
func WithUnitLoader(l UnitLoader) Option {
	return func(cfg *dsConfig) error {
		if l == nil {
			return errors.New("unit loader cannot be nil")
		}
		cfg.loader = l
		return nil
	}
}

// WithWatch enables watch mode: dir is watched recursively and every
// debounced change triggers shutdown, rebuild, and restart.
//
// The documentation directory is never watched, even when it lies inside
// dir.
func WithWatch(dir string) Option {
	return func(cfg *dsConfig) error {
		if dir == "" {
			return errors.New("watch dir cannot be empty")
		}
		cfg.watchDir = dir
		return nil
	}
}

// WithDebounce sets the quiet period after the last file change before a
// rebuild starts. Defaults to 500ms.
//
// Returns an error if the duration is zero or negative.
func WithDebounce(d time.Duration) Option {
	return func(cfg *dsConfig) error {
		if d <= 0 {
			return errors.New("debounce must be positive")
		}
		cfg.debounce = d
		return nil
	}
}

// WithIgnore adds path component names that never trigger a rebuild, such
// as "target" or "node_modules". Hidden files and directories are always
// ignored.
//
// Without WithIgnore, "target", "vendor" and "node_modules" are ignored.
// Calling WithIgnore with no names ignores nothing beyond hidden paths.
func WithIgnore(names ...string) Option {
	return func(cfg *dsConfig) error {
		cfg.ignore = append(cfg.ignore, names...)
		cfg.ignoreSet = true
		return nil
	}
}

// WithShutdownGrace bounds how long a restart waits for in-flight requests
// before closing connections forcibly. Defaults to 5 seconds.
//
// Returns an error if the duration is zero or negative.
func WithShutdownGrace(d time.Duration) Option {
	return func(cfg *dsConfig) error {
		if d <= 0 {
			return errors.New("shutdown grace must be positive")
		}
		cfg.grace = d
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified,
// [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *dsConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithStateCallback registers a function called on every coordinator
// transition.
//
// Callbacks run synchronously on the coordinator goroutine, in
// registration order, and must not block. Panics are recovered and logged.
// Nil callbacks are silently ignored.
//
// Example:
//
//	ds, err := docserve.New(
//	    docserve.WithBuilder(b),
//	    docserve.WithDocDir("target/doc"),
//	    docserve.WithStateCallback(func(c docserve.StateChange) {
//	        if c.Stale {
//	            log.Printf("rebuild failed: %v", c.Err)
//	        }
//	    }),
//	)
func WithStateCallback(cb func(StateChange)) Option {
	return func(cfg *dsConfig) error {
		if cb == nil {
			return nil
		}
		cfg.stateCallbacks = append(cfg.stateCallbacks, cb)
		return nil
	}
}
