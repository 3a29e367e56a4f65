// Package docserve builds a project's reference documentation and serves
// the generated tree over HTTP, rebuilding and hot-restarting the server
// when sources change.
//
// docserve is SDK-first: the command in cmd/docserve is a thin wrapper
// around [New] and [DocServe.Run]. The documentation generator itself is
// external and opaque; it is plugged in as a [Builder].
//
// # Quick Start
//
// Serve an already configured build once, until interrupted:
//
//	b := docserve.BuilderFunc(func(ctx context.Context, sel docserve.Selection) error {
//	    return exec.CommandContext(ctx, "make", "docs").Run()
//	})
//	core, _ := docserve.NewUnit("core", docserve.KindLibrary)
//
//	ds, _ := docserve.New(
//	    docserve.WithBuilder(b),
//	    docserve.WithDocDir("build/docs"),
//	    docserve.WithUnits(core),
//	)
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	ds.Run(ctx) // blocks until context is cancelled
//
// # Watch Mode
//
// With [WithWatch] the source tree is watched recursively. Bursts of file
// events are debounced into a single change (500ms quiet period by
// default). Each change runs one cycle:
//
//	Serving → Stopping → Building → Serving
//
// The server is always fully stopped, and its address released, before the
// rebuild starts. If the rebuild fails the previous build is served again,
// so the documentation stays reachable. Changes that arrive while a
// rebuild is running are coalesced into one further cycle.
//
// # HTTP Surface
//
//   - GET / and GET /index.html render an index linking every [Unit]
//   - GET /<path> serves a file from the documentation directory; a
//     directory serves its index.html
//   - Missing files and paths outside the documentation directory are 404
//   - Any other method is 405
//
// # Architecture
//
// docserve consists of several internal packages (under internal/):
//
//   - internal/server: static file resolution, HTTP handler and server lifecycle
//   - internal/index: index page rendering
//   - internal/watcher: recursive, debounced filesystem watching
//   - internal/build: templated external build commands
//   - internal/project: unit discovery from go.mod and cmd/
//   - dashboard: embedded index page template
//
// The internal packages are not part of the public API and may change
// without notice.
package docserve
