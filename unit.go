package docserve

import (
	"errors"
	"fmt"
	"path/filepath"
)

// Kind identifies what sort of target a [Unit] documents.
type Kind string

const (
	// KindLibrary is a library target.
	KindLibrary Kind = "lib"

	// KindBinary is a binary (command) target.
	KindBinary Kind = "bin"
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// ParseKind converts "lib" or "bin" to a [Kind].
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindLibrary, KindBinary:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown unit kind %q (expected %q or %q)", s, KindLibrary, KindBinary)
	}
}

// Unit is one documented library or binary target.
//
// Unit is immutable after creation via [NewUnit]. The index page lists
// units in the order they are configured and links each one to
// "<Path>/index.html" below the documentation root.
type Unit struct {
	name string
	kind Kind
	path string
}

// Name returns the unit's display name.
func (u Unit) Name() string {
	return u.name
}

// Kind returns the unit's kind.
func (u Unit) Kind() Kind {
	return u.kind
}

// Path returns the unit's directory relative to the documentation root.
// Defaults to the name when not set via [WithPath].
func (u Unit) Path() string {
	return u.path
}

// unitConfig holds mutable state during unit construction.
type unitConfig struct {
	path string
}

// UnitOption configures a [Unit] during construction.
type UnitOption func(*unitConfig) error

// WithPath sets the unit's documentation directory relative to the root.
//
// Returns an error if the path is absolute or climbs out of the root.
func WithPath(p string) UnitOption {
	return func(cfg *unitConfig) error {
		if !filepath.IsLocal(filepath.FromSlash(p)) {
			return fmt.Errorf("unit path %q must be relative and inside the documentation root", p)
		}
		cfg.path = filepath.ToSlash(filepath.Clean(p))
		return nil
	}
}

// NewUnit creates a [Unit] with the given name and kind.
//
// Returns an error if the name is empty or the kind is unknown.
//
// Example:
//
//	u, err := docserve.NewUnit("core", docserve.KindLibrary,
//	    docserve.WithPath("core"),
//	)
func NewUnit(name string, kind Kind, opts ...UnitOption) (Unit, error) {
	if name == "" {
		return Unit{}, errors.New("unit name cannot be empty")
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return Unit{}, err
	}

	cfg := &unitConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Unit{}, err
		}
	}

	path := cfg.path
	if path == "" {
		path = name
	}

	return Unit{
		name: name,
		kind: kind,
		path: path,
	}, nil
}
