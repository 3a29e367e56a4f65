package server

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/jpalmerr/docserve/internal/index"
)

// Handler serves the index page and static documentation files.
//
// Routing, in order:
//   - any method other than GET: 405 with an empty body
//   - "/" and "/index.html": the rendered unit index
//   - anything else: the resolved file, read fully into memory
//
// Error responses carry "Cache-Control: no-cache" and "Connection: close".
// A Handler holds no mutable state and is safe for concurrent use.
type Handler struct {
	resolver *Resolver
	units    []index.Unit
	logger   *slog.Logger
}

// NewHandler creates a [Handler] serving files from resolver's root and an
// index listing units.
func NewHandler(resolver *Resolver, units []index.Unit, logger *slog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		units:    units,
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "")
		return
	}

	if r.URL.Path == "/" || r.URL.Path == "/index.html" {
		h.serveIndex(w)
		return
	}

	h.serveFile(w, r)
}

func (h *Handler) serveIndex(w http.ResponseWriter) {
	page := index.Render(h.units)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(page)); err != nil {
		h.logger.Debug("failed to write index response", "error", err)
	}
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request) {
	path, ctype, err := h.resolver.Resolve(r.URL.Path)
	if err != nil {
		// escaping paths look exactly like missing files
		h.logger.Debug("rejected request path", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusNotFound, notFoundBody(r.URL.Path))
		return
	}

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		writeError(w, http.StatusNotFound, notFoundBody(r.URL.Path))
		return
	case errors.Is(err, fs.ErrPermission):
		writeError(w, http.StatusForbidden, fmt.Sprintf("permission denied: %s", r.URL.Path))
		return
	default:
		h.logger.Warn("failed to read documentation file", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.logger.Debug("failed to write file response", "path", path, "error", err)
	}
}

func notFoundBody(urlPath string) string {
	return fmt.Sprintf("not found: %s", urlPath)
}

// writeError writes an error response with the no-cache and close headers.
func writeError(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "close")
	if body != "" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	}
	w.WriteHeader(status)
	if body != "" {
		_, _ = w.Write([]byte(body))
	}
}
