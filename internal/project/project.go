// Package project discovers the documentable units of a Go module.
//
// Discovery reads go.mod with golang.org/x/mod/modfile and lists the module
// itself as a library unit followed by every command under cmd/ as a
// binary unit. The order is stable: library first, then commands sorted by
// directory name.
//
// Only Go modules are understood. Projects using other documentation
// toolchains have to list their units in configuration.
package project

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/mod/modfile"
)

// Kinds reported by [Load].
const (
	KindLibrary = "lib"
	KindBinary  = "bin"
)

// ErrNoModule is returned when the directory has no go.mod.
var ErrNoModule = errors.New("no go.mod found")

// Unit is a discovered documentable unit.
type Unit struct {
	Name string
	Kind string
	Path string
}

// Load discovers the units of the module rooted at dir.
func Load(dir string) ([]Unit, error) {
	goModPath := filepath.Join(dir, "go.mod")

	content, err := os.ReadFile(goModPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoModule, dir)
		}
		return nil, fmt.Errorf("reading go.mod at %s: %w", goModPath, err)
	}

	parsed, err := modfile.ParseLax(goModPath, content, nil)
	if err != nil {
		return nil, fmt.Errorf("parsing go.mod: %w", err)
	}
	if parsed.Module == nil || parsed.Module.Mod.Path == "" {
		return nil, fmt.Errorf("go.mod at %s has no module directive", goModPath)
	}

	lib := path.Base(parsed.Module.Mod.Path)
	units := []Unit{{Name: lib, Kind: KindLibrary, Path: lib}}

	bins, err := commands(filepath.Join(dir, "cmd"))
	if err != nil {
		return nil, err
	}
	for _, name := range bins {
		units = append(units, Unit{Name: name, Kind: KindBinary, Path: name})
	}

	return units, nil
}

// commands lists the subdirectories of cmdDir that contain Go sources.
func commands(cmdDir string) ([]string, error) {
	entries, err := os.ReadDir(cmdDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", cmdDir, err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		ok, err := hasGoSource(filepath.Join(cmdDir, e.Name()))
		if err != nil {
			return nil, err
		}
		if ok {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func hasGoSource(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() && strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") {
			return true, nil
		}
	}
	return false, nil
}
