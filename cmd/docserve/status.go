package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/jpalmerr/docserve"
)

// statusPrinter writes cargo-style progress lines for state changes:
//
//	    Docserve Generating the documentation
//	    Docserve Starting HTTP server listening on http://127.0.0.1:8000
type statusPrinter struct {
	mu    sync.Mutex
	out   io.Writer
	built bool

	label *color.Color
	warn  *color.Color
	fail  *color.Color
}

func newStatusPrinter(out io.Writer) *statusPrinter {
	return &statusPrinter{
		out:   out,
		label: color.New(color.FgGreen, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		fail:  color.New(color.FgRed, color.Bold),
	}
}

// onStateChange is registered with docserve.WithStateCallback.
func (p *statusPrinter) onStateChange(c docserve.StateChange) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch c.State {
	case docserve.StateBuilding:
		if p.built {
			p.line(p.label, "Docserve", "Regenerating the documentation")
		} else {
			p.line(p.label, "Docserve", "Generating the documentation")
		}
	case docserve.StateServing:
		p.built = true
		if c.Stale {
			p.line(p.warn, "warning", fmt.Sprintf("rebuild failed, serving the previous documentation: %v", c.Err))
		}
		p.line(p.label, "Docserve", "Starting HTTP server listening on http://"+c.Addr)
	case docserve.StateStopping:
		p.line(p.label, "Docserve", "Shutdown the HTTP server")
	case docserve.StateFailed:
		p.line(p.fail, "error", fmt.Sprint(c.Err))
	}
}

// line prints msg after a right-aligned, coloured label.
func (p *statusPrinter) line(c *color.Color, label, msg string) {
	fmt.Fprintf(p.out, "%s %s\n", c.Sprintf("%12s", label), msg)
}
