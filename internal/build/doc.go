// Package build runs the external documentation build command.
//
// This package is internal to docserve. The documentation generator itself
// is an opaque collaborator: a command line configured by the user, whose
// arguments are text/template strings rendered against the target
// [Selection]. A non-zero exit is reported as an error carrying the tail of
// the command's combined output.
package build
