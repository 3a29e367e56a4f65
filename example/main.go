package main

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jpalmerr/docserve"
)

// renderNotes is a toy documentation generator: every .txt file in src
// becomes <docDir>/notes/<name>.html, with an index at notes/index.html.
func renderNotes(src, docDir string) docserve.Builder {
	return docserve.BuilderFunc(func(ctx context.Context, sel docserve.Selection) error {
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}

		out := filepath.Join(docDir, "notes")
		if err := os.MkdirAll(out, 0o755); err != nil {
			return err
		}

		var links strings.Builder
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
				continue
			}
			body, err := os.ReadFile(filepath.Join(src, e.Name()))
			if err != nil {
				return err
			}
			name := strings.TrimSuffix(e.Name(), ".txt")
			page := fmt.Sprintf("<!DOCTYPE html><title>%s</title><pre>%s</pre>\n",
				html.EscapeString(name), html.EscapeString(string(body)))
			if err := os.WriteFile(filepath.Join(out, name+".html"), []byte(page), 0o644); err != nil {
				return err
			}
			fmt.Fprintf(&links, "<li><a href=\"%s.html\">%s</a></li>\n", name, html.EscapeString(name))
		}

		index := "<!DOCTYPE html><title>notes</title><ul>\n" + links.String() + "</ul>\n"
		return os.WriteFile(filepath.Join(out, "index.html"), []byte(index), 0o644)
	})
}

func main() {
	src := "example/src"
	docDir := filepath.Join(os.TempDir(), "docserve-example")

	if err := os.MkdirAll(src, 0o755); err != nil {
		slog.Error("failed to create source dir", "error", err)
		os.Exit(1)
	}
	hello := filepath.Join(src, "hello.txt")
	if _, err := os.Stat(hello); os.IsNotExist(err) {
		_ = os.WriteFile(hello, []byte("Edit me and reload the page.\n"), 0o644)
	}

	notes, _ := docserve.NewUnit("notes", docserve.KindLibrary)

	ds, err := docserve.New(
		docserve.WithBuilder(renderNotes(src, docDir)),
		docserve.WithDocDir(docDir),
		docserve.WithUnits(notes),
		docserve.WithWatch(src),
		docserve.WithStateCallback(func(c docserve.StateChange) {
			if c.State == docserve.StateServing {
				fmt.Printf("  serving http://%s (cycle %s)\n", c.Addr, c.Cycle)
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create docserve", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  docserve demo")
	fmt.Printf("  edit files in %s; the docs rebuild on save\n", src)
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ds.Run(ctx); err != nil {
		slog.Error("docserve failed", "error", err)
		os.Exit(1)
	}
}
