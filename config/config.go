// Package config provides YAML configuration parsing for docserve.
//
// This package enables running docserve as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	addr: 127.0.0.1:8000
//	doc_dir: target/doc
//
//	build:
//	  command: ["cargo", "doc", "{{if .NoDeps}}--no-deps{{end}}", "{{range .Packages}}-p {{.}} {{end}}"]
//	  env:
//	    RUSTDOCFLAGS: ${RUSTDOCFLAGS:-}
//	  timeout: 10m
//
//	watch:
//	  dir: src
//	  debounce: 500ms
//	  ignore: [target]
//
//	units:
//	  - name: core
//	    kind: lib
//
// Relative paths are resolved against the working directory of the
// process.
//
// When units is empty, units are discovered from go.mod and cmd/ in
// build.dir. Discovery only understands Go modules; other toolchains (the
// cargo example above included) should list their units explicitly.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAddr          = "127.0.0.1:8000"
	defaultShutdownGrace = 5 * time.Second
	defaultDebounce      = 500 * time.Millisecond
	defaultSourceDir     = "src"

	// minDebounce keeps an editor's save burst from producing several
	// rebuilds.
	minDebounce = 10 * time.Millisecond
)

// Config is the root configuration structure for docserve.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Addr is the HTTP listen address. Defaults to 127.0.0.1:8000.
	Addr string `yaml:"addr"`

	// DocDir is the directory the build writes documentation into and the
	// server serves from. Required.
	DocDir string `yaml:"doc_dir"`

	// ShutdownGrace bounds how long a restart waits for in-flight
	// requests. Defaults to 5s.
	ShutdownGrace Duration `yaml:"shutdown_grace"`

	// Build describes the documentation build command.
	Build BuildConfig `yaml:"build"`

	// Watch configures watch mode.
	Watch WatchConfig `yaml:"watch"`

	// Units lists the units shown on the index page, in order. When empty,
	// units are discovered from go.mod in Build.Dir after each build; this
	// only works for Go modules.
	Units []UnitConfig `yaml:"units"`
}

// BuildConfig defines the external documentation build command.
type BuildConfig struct {
	// Command is the program and its arguments. Arguments may be Go
	// templates over the target selection: {{.All}}, {{.NoDeps}},
	// {{.Packages}}, {{.Exclude}}. Accepts a list or a single string,
	// which is split on whitespace.
	Command Command `yaml:"command"`

	// Dir is the working directory of the command. Defaults to ".".
	Dir string `yaml:"dir"`

	// Env adds environment variables for the command.
	// Values support environment variable substitution.
	Env map[string]string `yaml:"env"`

	// Timeout bounds a single build. Zero means no limit.
	Timeout Duration `yaml:"timeout"`
}

// WatchConfig configures rebuild-on-change.
type WatchConfig struct {
	// Enabled turns watch mode on. The --watch flag overrides it.
	Enabled bool `yaml:"enabled"`

	// Dir is the directory watched recursively. Defaults to build.dir/src
	// when that directory exists, and to build.dir otherwise.
	Dir string `yaml:"dir"`

	// Debounce is the quiet period before a rebuild starts.
	// Defaults to 500ms.
	Debounce Duration `yaml:"debounce"`

	// Ignore lists path component names that never trigger a rebuild.
	// Defaults to target, vendor and node_modules so build output next to
	// doc_dir does not retrigger the build.
	Ignore []string `yaml:"ignore"`
}

// UnitConfig defines a documented unit.
type UnitConfig struct {
	// Name is the display name shown on the index page.
	Name string `yaml:"name"`

	// Kind is "lib" or "bin". Defaults to "lib".
	Kind string `yaml:"kind"`

	// Path is the unit's directory relative to doc_dir. Defaults to Name.
	Path string `yaml:"path"`
}

// Command is an argv that accepts either YAML form:
//
//	command: go doc -all ./...
//	command: ["go", "doc", "-all", "./..."]
type Command []string

// UnmarshalYAML implements yaml.Unmarshaler for Command.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		*c = strings.Fields(s)
		return nil
	case yaml.SequenceNode:
		var argv []string
		if err := node.Decode(&argv); err != nil {
			return err
		}
		*c = argv
		return nil
	default:
		return fmt.Errorf("command must be a string or list, got %v", node.Kind)
	}
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in addr, doc_dir, build.command,
// build.dir, build.env values and watch.dir. Defaults are applied for
// addr (127.0.0.1:8000), shutdown_grace (5s), build.dir ("."),
// watch.dir (build.dir/src if it exists, else build.dir), watch.ignore
// (target, vendor, node_modules), watch.debounce (500ms) and unit kind
// ("lib").
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.expand(); err != nil {
		return nil, err
	}

	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.ShutdownGrace == 0 {
		cfg.ShutdownGrace = Duration(defaultShutdownGrace)
	}
	if cfg.Build.Dir == "" {
		cfg.Build.Dir = "."
	}
	if cfg.Watch.Dir == "" {
		cfg.Watch.Dir = defaultWatchDir(cfg.Build.Dir)
	}
	if cfg.Watch.Ignore == nil {
		cfg.Watch.Ignore = defaultIgnore()
	}
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = Duration(defaultDebounce)
	}
	for i := range cfg.Units {
		if cfg.Units[i].Kind == "" {
			cfg.Units[i].Kind = "lib"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// defaultWatchDir returns buildDir/src when it is a directory, and
// buildDir otherwise.
func defaultWatchDir(buildDir string) string {
	src := filepath.Join(buildDir, defaultSourceDir)
	if info, err := os.Stat(src); err == nil && info.IsDir() {
		return src
	}
	return buildDir
}

// defaultIgnore returns the directory names skipped when watch.ignore is
// not set.
func defaultIgnore() []string {
	return []string{"target", "vendor", "node_modules"}
}

// expand substitutes environment variables in path-like and command fields.
func (c *Config) expand() error {
	var err error
	if c.Addr, err = expandEnvVars(c.Addr); err != nil {
		return fmt.Errorf("addr: %w", err)
	}
	if c.DocDir, err = expandEnvVars(c.DocDir); err != nil {
		return fmt.Errorf("doc_dir: %w", err)
	}
	if c.Build.Dir, err = expandEnvVars(c.Build.Dir); err != nil {
		return fmt.Errorf("build.dir: %w", err)
	}
	if c.Watch.Dir, err = expandEnvVars(c.Watch.Dir); err != nil {
		return fmt.Errorf("watch.dir: %w", err)
	}
	for i, a := range c.Build.Command {
		if c.Build.Command[i], err = expandEnvVars(a); err != nil {
			return fmt.Errorf("build.command[%d]: %w", i, err)
		}
	}
	for k, v := range c.Build.Env {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("build.env[%s]: %w", k, err)
		}
		c.Build.Env[k] = expanded
	}
	return nil
}

// validate checks the config after defaults are applied.
func (c *Config) validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("addr %q must be host:port: %w", c.Addr, err)
	}

	if c.DocDir == "" {
		return errors.New("doc_dir is required")
	}

	if c.ShutdownGrace.Duration() < 0 {
		return fmt.Errorf("shutdown_grace cannot be negative, got %s", c.ShutdownGrace.Duration())
	}

	if len(c.Build.Command) == 0 || strings.TrimSpace(c.Build.Command[0]) == "" {
		return errors.New("build.command is required")
	}
	for i, a := range c.Build.Command[1:] {
		if !strings.Contains(a, "{{") {
			continue
		}
		// fail fast before the first build tries to render it
		if _, err := template.New("").Parse(a); err != nil {
			return fmt.Errorf("build.command[%d]: invalid template: %w", i+1, err)
		}
	}
	if c.Build.Timeout.Duration() < 0 {
		return fmt.Errorf("build.timeout cannot be negative, got %s", c.Build.Timeout.Duration())
	}

	if c.Watch.Debounce.Duration() < minDebounce {
		return fmt.Errorf("watch.debounce must be at least %s, got %s", minDebounce, c.Watch.Debounce.Duration())
	}

	seen := make(map[string]struct{}, len(c.Units))
	for i, u := range c.Units {
		if u.Name == "" {
			return fmt.Errorf("units[%d]: name is required", i)
		}
		if _, exists := seen[u.Name]; exists {
			return fmt.Errorf("units[%d]: duplicate unit name %q", i, u.Name)
		}
		seen[u.Name] = struct{}{}

		if u.Kind != "lib" && u.Kind != "bin" {
			return fmt.Errorf("units[%d] (%s): kind must be lib or bin, got %q", i, u.Name, u.Kind)
		}
		if u.Path != "" && !filepath.IsLocal(filepath.FromSlash(u.Path)) {
			return fmt.Errorf("units[%d] (%s): path %q must be relative and inside doc_dir", i, u.Name, u.Path)
		}
	}

	return nil
}
