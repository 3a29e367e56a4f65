package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jpalmerr/docserve"
	"github.com/jpalmerr/docserve/internal/build"
	"github.com/jpalmerr/docserve/internal/project"
)

// BuildOptions converts parsed configuration into SDK options.
//
// The returned options configure the builder, documentation directory,
// address, shutdown grace, units and, when cfg.Watch.Enabled is set, watch
// mode. sel is passed unchanged to the build command on every build.
// Callers add their own options, such as [docserve.WithLogger] or
// [docserve.WithStateCallback], after these.
func BuildOptions(cfg *Config, sel docserve.Selection, logger *slog.Logger) ([]docserve.Option, error) {
	if logger == nil {
		logger = slog.Default()
	}

	builder, err := buildCommand(cfg.Build, logger)
	if err != nil {
		return nil, err
	}

	opts := []docserve.Option{
		docserve.WithBuilder(builder),
		docserve.WithDocDir(cfg.DocDir),
		docserve.WithAddr(cfg.Addr),
		docserve.WithSelection(sel),
		docserve.WithShutdownGrace(cfg.ShutdownGrace.Duration()),
	}

	if len(cfg.Units) > 0 {
		units, err := buildUnits(cfg.Units)
		if err != nil {
			return nil, err
		}
		opts = append(opts, docserve.WithUnits(units...))
	} else {
		opts = append(opts, docserve.WithUnitLoader(projectLoader(cfg.Build.Dir)))
	}

	if cfg.Watch.Enabled {
		opts = append(opts,
			docserve.WithWatch(cfg.Watch.Dir),
			docserve.WithDebounce(cfg.Watch.Debounce.Duration()),
			docserve.WithIgnore(cfg.Watch.Ignore...),
		)
	}

	return opts, nil
}

// buildCommand wraps the configured command as a docserve.Builder.
func buildCommand(bc BuildConfig, logger *slog.Logger) (docserve.Builder, error) {
	cmd, err := build.NewCommand(bc.Command,
		build.WithDir(bc.Dir),
		build.WithEnv(bc.Env),
		build.WithTimeout(bc.Timeout.Duration()),
		build.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("build.command: %w", err)
	}

	return docserve.BuilderFunc(func(ctx context.Context, sel docserve.Selection) error {
		return cmd.Run(ctx, toBuildSelection(sel))
	}), nil
}

// buildUnits converts UnitConfig entries to SDK units, preserving order.
func buildUnits(ucs []UnitConfig) ([]docserve.Unit, error) {
	units := make([]docserve.Unit, 0, len(ucs))
	for i, uc := range ucs {
		kind, err := docserve.ParseKind(uc.Kind)
		if err != nil {
			return nil, fmt.Errorf("units[%d] (%s): %w", i, uc.Name, err)
		}

		var opts []docserve.UnitOption
		if uc.Path != "" {
			opts = append(opts, docserve.WithPath(uc.Path))
		}

		u, err := docserve.NewUnit(uc.Name, kind, opts...)
		if err != nil {
			return nil, fmt.Errorf("units[%d]: %w", i, err)
		}
		units = append(units, u)
	}
	return units, nil
}

// projectLoader discovers units from the Go module in dir.
func projectLoader(dir string) docserve.UnitLoader {
	return func(ctx context.Context) ([]docserve.Unit, error) {
		found, err := project.Load(dir)
		if errors.Is(err, project.ErrNoModule) {
			return nil, fmt.Errorf("discover units in %s: %w (only Go modules are discovered; list units in the config)", dir, err)
		}
		if err != nil {
			return nil, err
		}

		units := make([]docserve.Unit, 0, len(found))
		for _, f := range found {
			u, err := docserve.NewUnit(f.Name, docserve.Kind(f.Kind), docserve.WithPath(f.Path))
			if err != nil {
				return nil, fmt.Errorf("unit %q: %w", f.Name, err)
			}
			units = append(units, u)
		}
		return units, nil
	}
}

// toBuildSelection converts the public selection to the build package's
// format. Slices are copied so a running build never shares them.
func toBuildSelection(sel docserve.Selection) build.Selection {
	return build.Selection{
		All:      sel.All,
		Packages: append([]string(nil), sel.Packages...),
		Exclude:  append([]string(nil), sel.Exclude...),
		NoDeps:   sel.NoDeps,
	}
}
