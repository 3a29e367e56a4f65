package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/docserve"
	"github.com/jpalmerr/docserve/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// parseLogLevel converts a --log-level value to a slog level.
func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q (expected debug, info, warn or error)", s)
	}
	return level, nil
}

// newLogger creates a JSON logger for CLI use.
func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// serveCmd builds the documentation and serves it.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Build and serve the documentation",
	Long: `Build the documentation and serve it over HTTP.

The server will:
  - Load configuration from the specified YAML file
  - Run the build command once
  - Serve the generated documentation on the configured address
  - With --watch, rebuild and restart whenever a watched file changes

The target selection flags are passed to the build command templates as
.All, .Packages, .Exclude and .NoDeps.

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  docserve serve -c docserve.yaml
  docserve serve -c docserve.yaml --watch -p core -p cli --no-deps`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
	_ = serveCmd.MarkFlagRequired("config")
}

// addServeFlags registers the serve flags on cmd.
func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	cmd.Flags().Bool("all", false, "document all units in the workspace")
	cmd.Flags().StringArrayP("package", "p", nil, "unit to document (repeatable)")
	cmd.Flags().StringArray("exclude", nil, "unit to leave out (repeatable)")
	cmd.Flags().Bool("no-deps", false, "do not document dependencies")
	cmd.Flags().BoolP("watch", "w", false, "rebuild and restart the server when files change")
	cmd.Flags().String("addr", "", "listen address, overrides the config file")
	cmd.Flags().String("log-level", "info", "log level: debug, info, warn or error")
}

// selectionFromFlags reads the target selection flags.
func selectionFromFlags(cmd *cobra.Command) docserve.Selection {
	all, _ := cmd.Flags().GetBool("all")
	packages, _ := cmd.Flags().GetStringArray("package")
	exclude, _ := cmd.Flags().GetStringArray("exclude")
	noDeps, _ := cmd.Flags().GetBool("no-deps")

	return docserve.Selection{
		All:      all,
		Packages: packages,
		Exclude:  exclude,
		NoDeps:   noDeps,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	levelFlag, _ := cmd.Flags().GetString("log-level")
	level, err := parseLogLevel(levelFlag)
	if err != nil {
		return err
	}
	logger := newLogger(level)

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		cfg.Watch.Enabled = true
	}
	if cmd.Flags().Changed("addr") {
		cfg.Addr, _ = cmd.Flags().GetString("addr")
	}

	logger.Info("config loaded",
		"doc_dir", cfg.DocDir,
		"units", len(cfg.Units),
		"watch", cfg.Watch.Enabled,
	)

	opts, err := config.BuildOptions(cfg, selectionFromFlags(cmd), logger)
	if err != nil {
		return fmt.Errorf("failed to build options: %w", err)
	}

	status := newStatusPrinter(cmd.ErrOrStderr())
	opts = append(opts,
		docserve.WithLogger(logger),
		docserve.WithStateCallback(status.onStateChange),
	)

	ds, err := docserve.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create docserve: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// run - blocks until context cancelled or a fatal error
	errChan := make(chan error, 1)
	go func() {
		errChan <- ds.Run(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return err
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
