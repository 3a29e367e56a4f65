// Package dashboard provides the embedded web assets for docserve.
//
// This package uses Go's embed directive to include the index page template
// at compile time, so the binary can render the unit listing without any
// external files next to the generated documentation.
//
// Users of the docserve library should not need to interact with this
// package directly.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the index page template.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - html/template listing the documented units
//
//go:embed assets/*
var Assets embed.FS
