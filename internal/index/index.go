// Package index renders the synthesized index page listing documented units.
//
// The page is rendered from the html/template embedded in the dashboard
// package. Rendering is a pure function of the ordered unit list: the same
// input always yields byte-identical output, and units appear in the order
// given (never sorted).
package index

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/jpalmerr/docserve/dashboard"
)

// Unit is the index-internal view of a documented unit.
//
// This is decoupled from the public docserve.Unit type to avoid circular
// dependencies.
type Unit struct {
	// Name is the display name of the unit.
	Name string

	// Kind is a short label such as "lib" or "bin".
	Kind string

	// Path is the directory under the documentation root holding the
	// unit's generated pages. The link target is "./<Path>/index.html".
	Path string
}

var pageTemplate = template.Must(template.ParseFS(dashboard.Assets, "assets/index.html"))

// Render returns the index page for units.
//
// A template execution failure can only come from a defect in the embedded
// template, so Render panics instead of returning an error.
func Render(units []Unit) string {
	var buf bytes.Buffer
	data := struct{ Units []Unit }{Units: units}
	if err := pageTemplate.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("index: executing template: %v", err))
	}
	return buf.String()
}
