package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"
	"text/template"
	"time"
)

// maxOutputLines bounds how much of the build output is kept in errors.
const maxOutputLines = 20

// Selection is the build-internal view of the target selection.
//
// This is decoupled from the public docserve.Selection type to avoid
// circular dependencies.
type Selection struct {
	All      bool
	Packages []string
	Exclude  []string
	NoDeps   bool
}

// Command is a documentation build command.
//
// Arguments containing "{{" are text/template strings rendered against a
// [Selection]; the result is split on whitespace and empty results are
// dropped, so "{{if .NoDeps}}--no-deps{{end}}" disappears when NoDeps is
// false and "{{range .Packages}}-p {{.}} {{end}}" expands to one flag pair
// per package. Other arguments are passed through unchanged.
type Command struct {
	name    string
	args    []arg
	dir     string
	env     []string
	timeout time.Duration
	logger  *slog.Logger
}

// arg is one argument: a literal, or a template when tmpl is set.
type arg struct {
	literal string
	tmpl    *template.Template
}

// CommandOption configures a [Command].
type CommandOption func(*Command)

// WithDir sets the working directory of the command.
func WithDir(dir string) CommandOption {
	return func(c *Command) {
		c.dir = dir
	}
}

// WithEnv adds environment variables on top of the current process
// environment.
func WithEnv(env map[string]string) CommandOption {
	return func(c *Command) {
		keys := make([]string, 0, len(env))
		for k := range env {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c.env = append(c.env, k+"="+env[k])
		}
	}
}

// WithTimeout bounds a single build run. Zero means no limit beyond the
// caller's context.
func WithTimeout(d time.Duration) CommandOption {
	return func(c *Command) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for build output.
func WithLogger(logger *slog.Logger) CommandOption {
	return func(c *Command) {
		c.logger = logger
	}
}

// NewCommand parses argv into a [Command].
//
// argv[0] is the program and is not templated. Returns an error if argv is
// empty or any argument is not a valid template.
func NewCommand(argv []string, opts ...CommandOption) (*Command, error) {
	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, errors.New("build command cannot be empty")
	}

	c := &Command{name: argv[0]}
	for i, a := range argv[1:] {
		if !strings.Contains(a, "{{") {
			c.args = append(c.args, arg{literal: a})
			continue
		}
		tmpl, err := template.New(fmt.Sprintf("arg%d", i+1)).Parse(a)
		if err != nil {
			return nil, fmt.Errorf("invalid template in argument %d %q: %w", i+1, a, err)
		}
		c.args = append(c.args, arg{literal: a, tmpl: tmpl})
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// Args renders the argument list for sel, without the program name.
func (c *Command) Args(sel Selection) ([]string, error) {
	var out []string
	for _, a := range c.args {
		if a.tmpl == nil {
			out = append(out, a.literal)
			continue
		}
		var buf bytes.Buffer
		if err := a.tmpl.Execute(&buf, sel); err != nil {
			return nil, fmt.Errorf("rendering %q: %w", a.literal, err)
		}
		out = append(out, strings.Fields(buf.String())...)
	}
	return out, nil
}

// String returns the unrendered command line.
func (c *Command) String() string {
	parts := []string{c.name}
	for _, a := range c.args {
		parts = append(parts, a.literal)
	}
	return strings.Join(parts, " ")
}

// Run executes the command for sel and waits for it to finish.
//
// The command is killed when ctx is cancelled or the timeout elapses.
// Output is logged at debug level; on failure the last lines are included
// in the returned error.
func (c *Command) Run(ctx context.Context, sel Selection) error {
	args, err := c.Args(sel)
	if err != nil {
		return err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.name, args...)
	cmd.Dir = c.dir
	cmd.Env = append(os.Environ(), c.env...)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	start := time.Now()
	c.logger.Debug("running build command", "command", c.name, "args", args, "dir", c.dir)

	err = cmd.Run()
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		if line != "" {
			c.logger.Debug("build output", "line", line)
		}
	}

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("build command %s interrupted: %w", c.name, ctxErr)
		}
		if tail := lastLines(output.String(), maxOutputLines); tail != "" {
			return fmt.Errorf("build command %s failed: %w\n%s", c.name, err, tail)
		}
		return fmt.Errorf("build command %s failed: %w", c.name, err)
	}

	c.logger.Debug("build command finished", "command", c.name, "duration_ms", time.Since(start).Milliseconds())
	return nil
}

// lastLines returns at most n trailing non-empty lines of s.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
