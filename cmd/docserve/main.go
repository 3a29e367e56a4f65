// Package main is the entry point for the docserve CLI.
//
// docserve can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	docserve serve -c docserve.yaml       # Build and serve the documentation
//	docserve serve -c docserve.yaml -w    # Rebuild and restart on changes
//	docserve validate -c docserve.yaml    # Validate configuration
//	docserve version                      # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "docserve",
	Short: "Build and serve project documentation",
	Long: `docserve builds a project's reference documentation and serves it locally.

It runs the configured documentation build command, then serves the
generated tree over HTTP. In watch mode every source change triggers a
rebuild and a server restart; when a rebuild fails the previous
documentation stays online.

Quick start:
  1. Create a config file (docserve.yaml)
  2. Run: docserve serve -c docserve.yaml --watch
  3. Open http://127.0.0.1:8000 in your browser

Example config:
  doc_dir: target/doc
  build:
    command: ["cargo", "doc", "{{if .NoDeps}}--no-deps{{end}}"]
  units:
    - name: core
      kind: lib

When units is omitted, docserve discovers them from go.mod and cmd/ in
build.dir. Discovery only understands Go modules; projects built with
other toolchains, like the cargo example above, list their units.`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this docserve binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("docserve %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
