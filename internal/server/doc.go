// Package server provides the HTTP server for docserve.
//
// This package is internal to docserve and handles all HTTP concerns:
//
//   - [Resolver]: maps URL paths to files under the documentation root,
//     rejecting paths that would escape it
//   - [Handler]: GET-only request handling for the index page and static
//     files, with the 404/403/500 error mapping
//   - [Handle]: one bound listener with a bounded graceful shutdown
//
// The server is restarted by the coordinator after every rebuild; each
// restart uses a fresh [Config] and a fresh [Handle]. Users of the docserve
// library should not need to interact with this package directly.
package server
