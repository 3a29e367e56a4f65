package docserve

import "context"

// Selection chooses which units the build collaborator documents.
//
// docserve does not interpret a Selection; it is passed unchanged to the
// [Builder] on every build.
type Selection struct {
	// All documents every unit in the workspace.
	All bool

	// Packages names the units to document.
	Packages []string

	// Exclude names units to leave out.
	Exclude []string

	// NoDeps skips documentation for dependencies.
	NoDeps bool
}

// Builder generates the documentation tree.
//
// Build may be slow and may fail. It is never called concurrently with
// itself, and never while the server is running in watch mode.
type Builder interface {
	Build(ctx context.Context, sel Selection) error
}

// BuilderFunc adapts an ordinary function to the [Builder] interface.
type BuilderFunc func(ctx context.Context, sel Selection) error

// Build calls f(ctx, sel).
func (f BuilderFunc) Build(ctx context.Context, sel Selection) error {
	return f(ctx, sel)
}

// UnitLoader enumerates the documentable units after a successful build.
type UnitLoader func(ctx context.Context) ([]Unit, error)
