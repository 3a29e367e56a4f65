package server

import (
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

const (
	// defaultFile is served when a request path names a directory.
	defaultFile = "index.html"

	// fallbackContentType is used when the extension has no known mapping.
	fallbackContentType = "application/octet-stream"
)

// ErrOutsideRoot is returned by [Resolver.Resolve] when a request path would
// escape the documentation root.
var ErrOutsideRoot = errors.New("path escapes documentation root")

// Resolver maps URL paths onto files below a documentation root.
//
// Every path returned by Resolve is the root itself or a descendant of it.
// Paths that would climb out of the root via ".." segments are rejected
// before any filesystem access happens. Symlinks are followed only while
// their target stays inside the root; a link pointing elsewhere is
// rejected like a ".." escape.
type Resolver struct {
	root string
}

// NewResolver creates a [Resolver] for root. The root is cleaned and made
// absolute.
func NewResolver(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Resolver{root: abs}, nil
}

// Root returns the absolute documentation root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the filesystem path for urlPath and a content type hint.
//
// A single leading "/" is stripped and the remainder is joined onto the
// root. If the result is a directory, "index.html" is appended. The content
// type is guessed from the extension and falls back to
// application/octet-stream.
func (r *Resolver) Resolve(urlPath string) (string, string, error) {
	rel := strings.TrimPrefix(urlPath, "/")
	if strings.ContainsRune(rel, 0) {
		return "", "", ErrOutsideRoot
	}

	p := filepath.Join(r.root, filepath.FromSlash(rel))
	if !r.contains(p) {
		return "", "", ErrOutsideRoot
	}

	if info, err := os.Stat(p); err == nil && info.IsDir() {
		p = filepath.Join(p, defaultFile)
	}

	if r.escapes(p) {
		return "", "", ErrOutsideRoot
	}

	return p, contentType(p), nil
}

// contains reports whether p is the root or lies below it.
func (r *Resolver) contains(p string) bool {
	return within(r.root, p)
}

// escapes reports whether p, or its parent directory when p itself does not
// exist, resolves through a symlink to somewhere outside the root. Missing
// paths below the root are left for the caller to report as not found.
func (r *Resolver) escapes(p string) bool {
	for _, candidate := range []string{p, filepath.Dir(p)} {
		real, err := filepath.EvalSymlinks(candidate)
		if err != nil {
			continue
		}
		return !within(r.realRoot(), real)
	}
	return false
}

// realRoot returns the root with symlinks resolved, or the root as given
// when it cannot be resolved.
func (r *Resolver) realRoot() string {
	if real, err := filepath.EvalSymlinks(r.root); err == nil {
		return real
	}
	return r.root
}

// within reports whether p is root or lies below it, by path text only.
func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || filepath.IsLocal(rel)
}

// contentType guesses a MIME type from the file extension.
func contentType(p string) string {
	if ct := mime.TypeByExtension(filepath.Ext(p)); ct != "" {
		return ct
	}
	return fallbackContentType
}
