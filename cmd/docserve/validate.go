package main

import (
	"fmt"
	"strings"

	"github.com/jpalmerr/docserve/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without building or serving.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a docserve configuration file without running the build.

This command parses the YAML, expands environment variables, and validates
all fields, including the build command templates. It's useful for CI/CD
pipelines or pre-commit checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  docserve validate -c docserve.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	units := fmt.Sprintf("%d configured", len(cfg.Units))
	if len(cfg.Units) == 0 {
		units = fmt.Sprintf("discovered from go.mod in %s", cfg.Build.Dir)
	}
	watch := "off"
	if cfg.Watch.Enabled {
		watch = fmt.Sprintf("%s (debounce %s)", cfg.Watch.Dir, cfg.Watch.Debounce.Duration())
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Address:   %s\n", cfg.Addr)
	fmt.Printf("  Doc dir:   %s\n", cfg.DocDir)
	fmt.Printf("  Build:     %s\n", strings.Join(cfg.Build.Command, " "))
	fmt.Printf("  Watch:     %s\n", watch)
	fmt.Printf("  Units:     %s\n", units)

	return nil
}
